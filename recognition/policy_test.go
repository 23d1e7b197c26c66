package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideAutoMarksTopOnly(t *testing.T) {
	candidates := []Candidate{
		{StudentID: 1, Name: "S1", Confidence: 0.7},
		{StudentID: 2, Name: "S2", Confidence: 0.45},
		{StudentID: 3, Name: "S3", Confidence: 0.2},
	}

	d := Decide(candidates, DefaultThresholds())
	assert.Equal(t, OutcomeAutoMark, d.Outcome)
	assert.Equal(t, uint(1), d.Best.StudentID)
	// S2 survives as a suggestion, S3 is discarded entirely
	require.Len(t, d.Suggestions, 1)
	assert.Equal(t, uint(2), d.Suggestions[0].StudentID)
}

func TestDecideSuggestsBelowConfidenceThreshold(t *testing.T) {
	candidates := []Candidate{
		{StudentID: 1, Name: "S1", Confidence: 0.45},
		{StudentID: 2, Name: "S2", Confidence: 0.42},
	}

	d := Decide(candidates, DefaultThresholds())
	assert.Equal(t, OutcomeSuggest, d.Outcome)
	assert.Equal(t, uint(1), d.Best.StudentID)
	// the best candidate is carried in Best only, never repeated as a suggestion
	require.Len(t, d.Suggestions, 1)
	assert.Equal(t, uint(2), d.Suggestions[0].StudentID)
}

func TestDecideNoMatch(t *testing.T) {
	candidates := []Candidate{
		{StudentID: 1, Name: "S1", Confidence: 0.39},
		{StudentID: 2, Name: "S2", Confidence: 0.1},
	}

	d := Decide(candidates, DefaultThresholds())
	assert.Equal(t, OutcomeNoMatch, d.Outcome)
	assert.Empty(t, d.Suggestions)
}

func TestDecideEmptyCandidates(t *testing.T) {
	d := Decide(nil, DefaultThresholds())
	assert.Equal(t, OutcomeNoMatch, d.Outcome)
}

func TestDecideThresholdBoundaries(t *testing.T) {
	th := DefaultThresholds()

	// exactly at the recognition threshold survives
	d := Decide([]Candidate{{StudentID: 1, Confidence: 0.4}}, th)
	assert.Equal(t, OutcomeSuggest, d.Outcome)

	// exactly at the confidence threshold auto-marks
	d = Decide([]Candidate{{StudentID: 1, Confidence: 0.5}}, th)
	assert.Equal(t, OutcomeAutoMark, d.Outcome)
}

func TestDecideCustomThresholds(t *testing.T) {
	th := Thresholds{Recognition: 0.6, Confidence: 0.9}
	d := Decide([]Candidate{{StudentID: 1, Confidence: 0.7}}, th)
	assert.Equal(t, OutcomeSuggest, d.Outcome)
}
