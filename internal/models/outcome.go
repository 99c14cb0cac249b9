package models

import "fmt"

// Outcome is the final result label of a finished match.
type Outcome string

// Outcome labels follow the data provider's vocabulary.
const (
	OutcomeHome Outcome = "HOME_TEAM"
	OutcomeDraw Outcome = "DRAW"
	OutcomeAway Outcome = "AWAY_TEAM"
)

// ClassOrder is the canonical, fixed enumeration order of outcome classes.
// Every tie-break in the prediction core ("first-encountered label") resolves
// against this order, which keeps training and inference deterministic.
var ClassOrder = []Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}

// Valid reports whether the outcome is one of the known labels.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeHome, OutcomeDraw, OutcomeAway:
		return true
	}
	return false
}

// ParseOutcome converts a provider label into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown outcome label %q", s)
	}
	return o, nil
}
