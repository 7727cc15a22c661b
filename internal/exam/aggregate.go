package exam

import "time"

// Aggregate is the result of combining a final exam's partials.
type Aggregate struct {
	TotalMarks   float64
	IsPass       bool
	Status       ExamStatus
	CompleteTime *time.Time
}

// AggregateScores recomputes the weighted total and verdict from the
// partial set. Pure function: running it twice over unchanged partials
// yields the same result. Only terminal partials contribute marks; the exam
// is Completed once all three types are terminal, InProgress when any
// partial has been touched, NotYet otherwise.
func AggregateScores(partials []Partial, passingThreshold float64, now time.Time) Aggregate {
	total := 0.0
	terminal := 0
	touched := 0
	for _, p := range partials {
		if p.Status != StatusNotYet {
			touched++
		}
		if p.Status.Terminal() {
			terminal++
			total += p.NormalizedScore * p.Weight
		}
	}

	total = Round2(total)
	if total < 0 {
		total = 0
	}
	if total > 10 {
		total = 10
	}

	agg := Aggregate{
		TotalMarks: total,
		IsPass:     total >= passingThreshold,
		Status:     ExamNotYet,
	}
	switch {
	case terminal == len(PartialTypes):
		agg.Status = ExamCompleted
		agg.CompleteTime = &now
	case touched > 0:
		agg.Status = ExamInProgress
	}
	return agg
}
