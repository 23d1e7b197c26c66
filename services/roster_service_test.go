package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
)

type fakeFaceRepo struct {
	profiles map[uint]*models.FaceProfile
}

var _ repository.FaceProfileRepositoryInterface = (*fakeFaceRepo)(nil)

func (f *fakeFaceRepo) GetByUserID(userID uint) (*models.FaceProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeFaceRepo) AppendDescriptors(userID uint, batch [][]float64) (*models.FaceProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		p = &models.FaceProfile{UserID: userID}
		f.profiles[userID] = p
	}
	if err := p.AppendBatch(batch); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *fakeFaceRepo) DeleteByUserID(userID uint) error {
	if _, ok := f.profiles[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.profiles, userID)
	return nil
}

func descriptorJSON(t *testing.T, groups [][][]float64) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"descriptors": groups})
	require.NoError(t, err)
	return data
}

func uniformVector(val float64) []float64 {
	v := make([]float64, 128)
	for i := range v {
		v[i] = val
	}
	return v
}

func TestRosterForClassNormalizesStoredData(t *testing.T) {
	classes := &fakeClassRepo{roster: map[uint][]models.User{
		1: {
			{ID: 10, Name: "Alice"},
			{ID: 11, Name: "Bob"},
		},
	}}
	faces := &fakeFaceRepo{profiles: map[uint]*models.FaceProfile{
		10: {UserID: 10, RawData: descriptorJSON(t, [][][]float64{
			{uniformVector(0.1), uniformVector(0.2)},
		})},
	}}
	svc := NewRosterService(classes, faces)

	roster, err := svc.RosterForClass(1)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	require.Equal(t, uint(10), roster[0].StudentID)
	require.Len(t, roster[0].Descriptors, 2)

	// no profile yields an empty descriptor set, not an error
	require.Equal(t, uint(11), roster[1].StudentID)
	require.Empty(t, roster[1].Descriptors)
}

func TestRosterForClassToleratesCorruptData(t *testing.T) {
	classes := &fakeClassRepo{roster: map[uint][]models.User{
		1: {{ID: 10, Name: "Alice"}},
	}}
	faces := &fakeFaceRepo{profiles: map[uint]*models.FaceProfile{
		10: {UserID: 10, RawData: []byte(`{"descriptors": "not an array"`)},
	}}
	svc := NewRosterService(classes, faces)

	roster, err := svc.RosterForClass(1)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Empty(t, roster[0].Descriptors)
}
