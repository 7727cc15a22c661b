package exam

import (
	"errors"
	"fmt"
)

// Admission errors returned by StartPartial. Each names the definitive
// reason an attempt cannot start; none is retried by the engine.
var (
	ErrInvalidCode          = errors.New("exam code does not match")
	ErrWindowNotOpen        = errors.New("scheduled window has not opened")
	ErrWindowClosed         = errors.New("scheduled window has closed")
	ErrSessionAlreadyActive = errors.New("session already active for this partial")
	ErrAlreadyTerminal      = errors.New("partial already graded")
)

// Lifecycle errors.
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrExamNotFound       = errors.New("final exam not found")
	ErrPartialNotFound    = errors.New("partial not found")
	ErrClassNotConfigured = errors.New("class exam config not committed")
)

// ErrInvalidWeightDistribution is the errors.Is target for every weight
// validation failure; the concrete error carries which rule was broken.
var ErrInvalidWeightDistribution = errors.New("invalid weight distribution")

// WeightDistributionError reports a rejected weight triple. Rule is either
// "out_of_range" or "sum_mismatch".
type WeightDistributionError struct {
	Rule   string
	Detail string
}

func (e *WeightDistributionError) Error() string {
	return fmt.Sprintf("invalid weight distribution (%s): %s", e.Rule, e.Detail)
}

func (e *WeightDistributionError) Unwrap() error { return ErrInvalidWeightDistribution }

// ErrChecklistMismatch is the errors.Is target for checklist validation
// failures in practical grading.
var ErrChecklistMismatch = errors.New("checklist mismatch")

// ChecklistMismatchError reports a checklist that does not cover the
// configured items exactly once each.
type ChecklistMismatchError struct {
	Missing   []string
	Duplicate []string
	Unknown   []string
}

func (e *ChecklistMismatchError) Error() string {
	return fmt.Sprintf("checklist mismatch: missing=%v duplicate=%v unknown=%v",
		e.Missing, e.Duplicate, e.Unknown)
}

func (e *ChecklistMismatchError) Unwrap() error { return ErrChecklistMismatch }
