package exam_test

import (
	"errors"
	"testing"

	"github.com/skillcert/examengine/internal/exam"
)

func items(names ...string) []exam.ChecklistItem {
	out := make([]exam.ChecklistItem, 0, len(names))
	for _, n := range names {
		out = append(out, exam.ChecklistItem{Name: n})
	}
	return out
}

func results(passed map[string]bool, names ...string) []exam.ChecklistResult {
	out := make([]exam.ChecklistResult, 0, len(names))
	for _, n := range names {
		out = append(out, exam.ChecklistResult{Name: n, Passed: passed[n]})
	}
	return out
}

func TestValidateChecklist(t *testing.T) {
	configured := items("brakes", "lights", "mirrors")

	if err := exam.ValidateChecklist(configured, results(nil, "brakes", "lights", "mirrors")); err != nil {
		t.Fatalf("complete result set rejected: %v", err)
	}
	// order does not matter
	if err := exam.ValidateChecklist(configured, results(nil, "mirrors", "brakes", "lights")); err != nil {
		t.Fatalf("reordered result set rejected: %v", err)
	}

	err := exam.ValidateChecklist(configured, results(nil, "brakes", "lights"))
	var cme *exam.ChecklistMismatchError
	if !errors.As(err, &cme) || len(cme.Missing) != 1 || cme.Missing[0] != "mirrors" {
		t.Fatalf("expected missing=[mirrors], got %v", err)
	}

	err = exam.ValidateChecklist(configured, results(nil, "brakes", "brakes", "lights", "mirrors"))
	if !errors.As(err, &cme) || len(cme.Duplicate) != 1 || cme.Duplicate[0] != "brakes" {
		t.Fatalf("expected duplicate=[brakes], got %v", err)
	}

	err = exam.ValidateChecklist(configured, results(nil, "brakes", "lights", "mirrors", "horn"))
	if !errors.As(err, &cme) || len(cme.Unknown) != 1 || cme.Unknown[0] != "horn" {
		t.Fatalf("expected unknown=[horn], got %v", err)
	}

	if !errors.Is(err, exam.ErrChecklistMismatch) {
		t.Fatalf("mismatch should unwrap to ErrChecklistMismatch, got %v", err)
	}
}

func TestScoreChecklist(t *testing.T) {
	// 4 of 6 passed: 10 * 4/6 = 6.666..., rounded to 6.67
	rs := []exam.ChecklistResult{
		{Name: "a", Passed: true},
		{Name: "b", Passed: true},
		{Name: "c", Passed: false},
		{Name: "d", Passed: true},
		{Name: "e", Passed: false},
		{Name: "f", Passed: true},
	}
	if got := exam.ScoreChecklist(rs); got != 6.67 {
		t.Fatalf("ScoreChecklist = %v, want 6.67", got)
	}

	all := []exam.ChecklistResult{{Name: "a", Passed: true}, {Name: "b", Passed: true}}
	if got := exam.ScoreChecklist(all); got != 10 {
		t.Fatalf("all passed = %v, want 10", got)
	}
	none := []exam.ChecklistResult{{Name: "a"}, {Name: "b"}}
	if got := exam.ScoreChecklist(none); got != 0 {
		t.Fatalf("none passed = %v, want 0", got)
	}
	if got := exam.ScoreChecklist(nil); got != 0 {
		t.Fatalf("empty result set = %v, want 0", got)
	}
}
