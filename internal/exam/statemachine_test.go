package exam_test

import (
	"errors"
	"testing"

	"github.com/skillcert/examengine/internal/exam"
)

func TestCanTransition_Table(t *testing.T) {
	cases := []struct {
		typ        exam.PartialType
		from, next exam.PartialStatus
		want       bool
	}{
		{exam.PartialTheory, exam.StatusNotYet, exam.StatusInProgress, true},
		{exam.PartialTheory, exam.StatusInProgress, exam.StatusSubmitted, true},
		{exam.PartialTheory, exam.StatusSubmitted, exam.StatusCompleted, true},
		{exam.PartialTheory, exam.StatusSubmitted, exam.StatusApproved, false},
		{exam.PartialTheory, exam.StatusCompleted, exam.StatusInProgress, false},

		{exam.PartialSimulation, exam.StatusNotYet, exam.StatusInProgress, true},
		{exam.PartialSimulation, exam.StatusInProgress, exam.StatusCompleted, false},

		{exam.PartialPractical, exam.StatusSubmitted, exam.StatusApproved, true},
		{exam.PartialPractical, exam.StatusSubmitted, exam.StatusRejected, true},
		{exam.PartialPractical, exam.StatusSubmitted, exam.StatusCompleted, false},
		{exam.PartialPractical, exam.StatusInProgress, exam.StatusApproved, false},
		{exam.PartialPractical, exam.StatusRejected, exam.StatusSubmitted, false},

		// no backward edges, no self loops
		{exam.PartialTheory, exam.StatusInProgress, exam.StatusNotYet, false},
		{exam.PartialTheory, exam.StatusInProgress, exam.StatusInProgress, false},
	}
	for _, c := range cases {
		if got := exam.CanTransition(c.typ, c.from, c.next); got != c.want {
			t.Errorf("CanTransition(%s, %s, %s) = %v, want %v", c.typ, c.from, c.next, got, c.want)
		}
	}
}

func TestCheckTransition_WrapsSentinel(t *testing.T) {
	err := exam.CheckTransition(exam.PartialTheory, exam.StatusCompleted, exam.StatusInProgress)
	if !errors.Is(err, exam.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := exam.CheckTransition(exam.PartialPractical, exam.StatusSubmitted, exam.StatusRejected); err != nil {
		t.Fatalf("valid edge rejected: %v", err)
	}
}

func TestAutoCompletes(t *testing.T) {
	if !exam.AutoCompletes(exam.PartialTheory) || !exam.AutoCompletes(exam.PartialSimulation) {
		t.Fatal("theory and simulation must auto-complete")
	}
	if exam.AutoCompletes(exam.PartialPractical) {
		t.Fatal("practical must wait for an instructor decision")
	}
}

func TestPartialStatus_Terminal(t *testing.T) {
	terminal := []exam.PartialStatus{exam.StatusCompleted, exam.StatusApproved, exam.StatusRejected}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []exam.PartialStatus{exam.StatusNotYet, exam.StatusInProgress, exam.StatusSubmitted}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
