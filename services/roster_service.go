package services

import (
	"errors"

	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/repository"
	"gorm.io/gorm"
)

// RosterService assembles the recognition roster for a class: every enrolled
// student with whatever descriptors their stored face data yields. Students
// without a profile, or with data the normalizer cannot use, participate with
// an empty descriptor set and simply never match.
type RosterService struct {
	Classes  repository.ClassRepositoryInterface
	Profiles repository.FaceProfileRepositoryInterface
}

// NewRosterService creates a new roster service
func NewRosterService(classes repository.ClassRepositoryInterface, profiles repository.FaceProfileRepositoryInterface) *RosterService {
	return &RosterService{Classes: classes, Profiles: profiles}
}

// RosterForClass loads the enrolled students of a class and normalizes their
// stored face data into recognition roster entries.
func (s *RosterService) RosterForClass(classID uint) ([]recognition.RosterEntry, error) {
	students, err := s.Classes.ListEnrolledStudents(classID)
	if err != nil {
		return nil, err
	}

	roster := make([]recognition.RosterEntry, 0, len(students))
	for _, student := range students {
		entry := recognition.RosterEntry{
			StudentID: student.ID,
			Name:      student.Name,
		}

		profile, err := s.Profiles.GetByUserID(student.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if profile != nil {
			entry.Descriptors = recognition.NormalizeJSON(profile.RawData)
		}

		roster = append(roster, entry)
	}
	return roster, nil
}
