package exam

import "fmt"

// allowedTransitions is the closed per-type transition table. Anything not
// listed here is rejected; there is no backward edge outside the
// administrative override path.
var allowedTransitions = map[PartialType]map[PartialStatus][]PartialStatus{
	PartialTheory: {
		StatusNotYet:     {StatusInProgress},
		StatusInProgress: {StatusSubmitted},
		StatusSubmitted:  {StatusCompleted},
	},
	PartialSimulation: {
		StatusNotYet:     {StatusInProgress},
		StatusInProgress: {StatusSubmitted},
		StatusSubmitted:  {StatusCompleted},
	},
	PartialPractical: {
		StatusNotYet:     {StatusInProgress},
		StatusInProgress: {StatusSubmitted},
		StatusSubmitted:  {StatusApproved, StatusRejected},
	},
}

// CanTransition reports whether a partial of type t may move from to next.
func CanTransition(t PartialType, from, next PartialStatus) bool {
	for _, s := range allowedTransitions[t][from] {
		if s == next {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition (wrapped with context) when
// the edge is not in the table.
func CheckTransition(t PartialType, from, next PartialStatus) error {
	if !CanTransition(t, from, next) {
		return fmt.Errorf("%w: %s partial cannot move %s -> %s", ErrInvalidTransition, t, from, next)
	}
	return nil
}

// AutoCompletes reports whether the type's Submitted state resolves without
// human review. Practical never auto-completes.
func AutoCompletes(t PartialType) bool {
	return t == PartialTheory || t == PartialSimulation
}
