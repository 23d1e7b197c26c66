package recognition

// Default decision cutoffs. Both are empirical tuning constants and are
// overridable through configuration.
const (
	DefaultRecognitionThreshold = 0.4
	DefaultConfidenceThreshold  = 0.5
)

// Thresholds holds the two decision cutoffs: Recognition is the minimum
// confidence for a candidate to be considered at all, Confidence is the
// minimum for automatic attendance marking.
type Thresholds struct {
	Recognition float64
	Confidence  float64
}

// DefaultThresholds returns the stock 0.4/0.5 cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Recognition: DefaultRecognitionThreshold,
		Confidence:  DefaultConfidenceThreshold,
	}
}

// Outcome classifies one recognition attempt.
type Outcome string

const (
	// OutcomeNoMatch means no candidate survived the recognition threshold;
	// nothing is marked or suggested. This is a normal result, not an error.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeSuggest means the best candidate survived the recognition
	// threshold but fell below the confidence threshold; the survivors are
	// surfaced to the teacher, nothing is committed automatically.
	OutcomeSuggest Outcome = "suggestion"
	// OutcomeAutoMark means the top candidate cleared the confidence
	// threshold and should be marked present automatically.
	OutcomeAutoMark Outcome = "auto_mark"
)

// Decision is the result of applying the thresholds to one ranked candidate
// list.
type Decision struct {
	Outcome     Outcome
	Best        Candidate   // zero value when Outcome is OutcomeNoMatch
	Suggestions []Candidate // survivors not auto-committed
}

// Decide filters the ranked candidates through the recognition threshold and
// picks the action for this attempt. Only the top-ranked survivor is ever
// auto-marked. Best always holds the top survivor and is never repeated in
// Suggestions, which carry the weaker survivors only.
func Decide(candidates []Candidate, th Thresholds) Decision {
	var survivors []Candidate
	for _, c := range candidates {
		if c.Confidence >= th.Recognition {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 0 {
		return Decision{Outcome: OutcomeNoMatch}
	}

	top := survivors[0]
	if top.Confidence >= th.Confidence {
		return Decision{Outcome: OutcomeAutoMark, Best: top, Suggestions: survivors[1:]}
	}
	return Decision{Outcome: OutcomeSuggest, Best: top, Suggestions: survivors[1:]}
}
