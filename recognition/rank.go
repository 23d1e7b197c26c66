package recognition

import "sort"

// RosterEntry is one enrolled student eligible for matching, with their
// normalized descriptor set. Students who never registered a face simply have
// an empty set.
type RosterEntry struct {
	StudentID   uint
	Name        string
	Descriptors []Descriptor
}

// Candidate is a transient per-attempt match result. It exists only for the
// duration of one recognition attempt and is never persisted.
type Candidate struct {
	StudentID  uint    `json:"student_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Rank compares the probe descriptor against every student's stored
// descriptors, keeping each student's best score. A student's appearance
// varies across registration photos, so any single strong match counts; the
// scores are never averaged. Students with zero descriptors are excluded from
// the output entirely. The result is sorted descending by confidence; ties
// keep roster order.
func Rank(probe Descriptor, roster []RosterEntry) []Candidate {
	var candidates []Candidate
	for _, entry := range roster {
		if len(entry.Descriptors) == 0 {
			continue
		}
		best := 0.0
		for _, d := range entry.Descriptors {
			if s := Similarity(probe, d); s > best {
				best = s
			}
		}
		candidates = append(candidates, Candidate{
			StudentID:  entry.StudentID,
			Name:       entry.Name,
			Confidence: best,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}
