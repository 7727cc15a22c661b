package exam

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClassDirectory resolves class-level facts owned by the enrollment system.
type ClassDirectory interface {
	PassingThreshold(ctx context.Context, classID string) (float64, error)
}

// EventSink receives lifecycle events for the audit log. Append failures
// are reported to the caller but never roll back the transition itself.
type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

// Event types written to the sink.
const (
	EventPartialStarted   = "PartialStarted"
	EventPartialSubmitted = "PartialSubmitted"
	EventPartialCompleted = "PartialCompleted"
	EventPartialApproved  = "PartialApproved"
	EventPartialRejected  = "PartialRejected"
	EventExamCompleted    = "FinalExamCompleted"
	EventStatusOverridden = "StatusOverridden"
)

// Submission carries the external grading input for a partial: a raw score
// plus max-score for theory/simulation, a finalized checklist for practical.
type Submission struct {
	RawScore  float64           `json:"raw_score"`
	MaxScore  float64           `json:"max_score"`
	Checklist []ChecklistResult `json:"checklist,omitempty"`
}

// Service drives the final-exam lifecycle: weight configuration, session
// admission, partial transitions, practical grading and score aggregation.
type Service struct {
	store   Store
	classes ClassDirectory
	events  EventSink
	now     func() time.Time
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithEventSink(sink EventSink) ServiceOption {
	return func(s *Service) { s.events = sink }
}

func NewService(store Store, classes ClassDirectory, opts ...ServiceOption) *Service {
	s := &Service{store: store, classes: classes, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ConfigureWeights validates and commits a class's exam configuration. All
// three partial types must be present; the commit is all-or-none. Weights
// are stored at two-decimal precision. Existing partials keep their
// creation-time snapshots.
func (s *Service) ConfigureWeights(ctx context.Context, cfg ClassExamConfig) (ClassExamConfig, error) {
	if cfg.ClassID == "" {
		return ClassExamConfig{}, fmt.Errorf("class id required")
	}
	for _, t := range PartialTypes {
		if _, ok := cfg.Partials[t]; !ok {
			return ClassExamConfig{}, &WeightDistributionError{
				Rule:   "out_of_range",
				Detail: fmt.Sprintf("missing %s partial config", t),
			}
		}
	}
	w := WeightSet{
		Theory:     cfg.Partials[PartialTheory].Weight,
		Simulation: cfg.Partials[PartialSimulation].Weight,
		Practical:  cfg.Partials[PartialPractical].Weight,
	}
	if err := w.Validate(); err != nil {
		return ClassExamConfig{}, err
	}
	for t, pc := range cfg.Partials {
		pc.Type = t
		pc.Weight = Round2(pc.Weight)
		if t != PartialPractical && pc.WindowStart != nil && pc.WindowEnd != nil &&
			!pc.WindowStart.Before(*pc.WindowEnd) {
			return ClassExamConfig{}, fmt.Errorf("%s window start must precede end", t)
		}
		cfg.Partials[t] = pc
	}
	if err := s.store.PutClassConfig(ctx, cfg); err != nil {
		return ClassExamConfig{}, err
	}
	return s.store.GetClassConfig(ctx, cfg.ClassID)
}

func (s *Service) GetClassConfig(ctx context.Context, classID string) (ClassExamConfig, error) {
	return s.store.GetClassConfig(ctx, classID)
}

// CreateFinalExam opens one exam per (class, enrollment) with a fresh
// one-time exam code. The class must be fully configured first.
func (s *Service) CreateFinalExam(ctx context.Context, classID, enrollmentID string) (FinalExam, error) {
	if _, err := s.store.GetClassConfig(ctx, classID); err != nil {
		return FinalExam{}, err
	}
	e := FinalExam{
		ID:           uuid.NewString(),
		ClassID:      classID,
		EnrollmentID: enrollmentID,
		ExamCode:     newExamCode(),
		Status:       ExamNotYet,
	}
	if err := s.store.CreateFinalExam(ctx, e); err != nil {
		return FinalExam{}, err
	}
	return e, nil
}

func (s *Service) GetFinalExam(ctx context.Context, id string) (FinalExam, error) {
	return s.store.GetFinalExam(ctx, id)
}

func (s *Service) ListFinalExams(ctx context.Context, classID string) ([]FinalExam, error) {
	return s.store.ListFinalExams(ctx, classID)
}

func (s *Service) DeleteFinalExam(ctx context.Context, id string) error {
	return s.store.DeleteFinalExam(ctx, id)
}

// StartPartial is the code-gated admission point for theory and simulation
// attempts. On success the partial is InProgress and its content reference
// is returned to the caller. The final check-and-set is a single
// conditional update, so two racing starts produce one winner and one
// ErrSessionAlreadyActive.
func (s *Service) StartPartial(ctx context.Context, examID string, t PartialType, code string, at time.Time) (Partial, error) {
	if !t.Valid() {
		return Partial{}, fmt.Errorf("unknown partial type %q", t)
	}
	if t == PartialPractical {
		return Partial{}, fmt.Errorf("%w: practical sessions are instructor-initiated", ErrInvalidTransition)
	}
	e, err := s.store.GetFinalExam(ctx, examID)
	if err != nil {
		return Partial{}, err
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(e.ExamCode)) != 1 {
		return Partial{}, ErrInvalidCode
	}
	p, err := s.ensurePartial(ctx, e, t)
	if err != nil {
		return Partial{}, err
	}
	if p.WindowStart != nil && at.Before(*p.WindowStart) {
		return Partial{}, ErrWindowNotOpen
	}
	if p.WindowEnd != nil && !at.Before(*p.WindowEnd) {
		return Partial{}, ErrWindowClosed
	}
	return s.casStart(ctx, p.ID, at)
}

// StartPractical opens a practical session on the instructor's initiative.
// An assigned window, when given, is recorded on the partial before the
// session starts; no exam code is required on this path.
func (s *Service) StartPractical(ctx context.Context, examID string, windowStart, windowEnd *time.Time, at time.Time) (Partial, error) {
	e, err := s.store.GetFinalExam(ctx, examID)
	if err != nil {
		return Partial{}, err
	}
	p, err := s.ensurePartial(ctx, e, PartialPractical)
	if err != nil {
		return Partial{}, err
	}
	if windowStart != nil || windowEnd != nil {
		if err := s.store.AssignWindow(ctx, p.ID, windowStart, windowEnd); err != nil {
			return Partial{}, err
		}
	}
	return s.casStart(ctx, p.ID, at)
}

func (s *Service) casStart(ctx context.Context, partialID string, at time.Time) (Partial, error) {
	ok, err := s.store.CasStart(ctx, partialID, at)
	if err != nil {
		return Partial{}, err
	}
	p, gerr := s.store.GetPartial(ctx, partialID)
	if gerr != nil {
		return Partial{}, gerr
	}
	if !ok {
		switch {
		case p.Status == StatusInProgress:
			return Partial{}, ErrSessionAlreadyActive
		case p.Status.Terminal():
			return Partial{}, ErrAlreadyTerminal
		default:
			return Partial{}, fmt.Errorf("%w: %s partial cannot start from %s", ErrInvalidTransition, p.Type, p.Status)
		}
	}
	s.record(ctx, EventPartialStarted, p.ID, map[string]any{
		"exam_id": p.ExamID, "type": p.Type, "started_at": at.Unix(),
	})
	return p, nil
}

// ensurePartial creates the partial on first touch, snapshotting weight,
// window, content reference and checklist from the class's current config.
func (s *Service) ensurePartial(ctx context.Context, e FinalExam, t PartialType) (Partial, error) {
	for _, p := range e.Partials {
		if p.Type == t {
			return p, nil
		}
	}
	cfg, err := s.store.GetClassConfig(ctx, e.ClassID)
	if err != nil {
		return Partial{}, err
	}
	pc := cfg.Partials[t]
	snap := Partial{
		ID:            uuid.NewString(),
		ExamID:        e.ID,
		Type:          t,
		Status:        StatusNotYet,
		ConfigVersion: cfg.Version,
		Weight:        pc.Weight,
		ContentRef:    pc.ContentRef,
		DurationMin:   pc.DurationMin,
		Items:         pc.Checklist,
		WindowStart:   pc.WindowStart,
		WindowEnd:     pc.WindowEnd,
	}
	return s.store.EnsurePartial(ctx, snap)
}

// SubmitPartial records the external grading input and advances the
// lifecycle. Theory and simulation auto-complete on submission; practical
// moves to Submitted and waits for the instructor's decision.
func (s *Service) SubmitPartial(ctx context.Context, partialID string, sub Submission) (Partial, error) {
	p, err := s.store.GetPartial(ctx, partialID)
	if err != nil {
		return Partial{}, err
	}
	at := s.now()

	if AutoCompletes(p.Type) {
		if sub.MaxScore <= 0 {
			return Partial{}, fmt.Errorf("max score must be positive")
		}
		normalized := normalize(sub.RawScore, sub.MaxScore)
		ok, err := s.store.CasSubmitAuto(ctx, p.ID, sub.RawScore, sub.MaxScore, normalized, at)
		if err != nil {
			return Partial{}, err
		}
		if !ok {
			return Partial{}, fmt.Errorf("%w: %s partial cannot submit from %s", ErrInvalidTransition, p.Type, p.Status)
		}
		s.record(ctx, EventPartialSubmitted, p.ID, map[string]any{"exam_id": p.ExamID, "type": p.Type})
		s.record(ctx, EventPartialCompleted, p.ID, map[string]any{"exam_id": p.ExamID, "normalized_score": normalized})
		if err := s.recompute(ctx, p.ExamID); err != nil {
			return Partial{}, err
		}
		return s.store.GetPartial(ctx, p.ID)
	}

	// practical: instructor finalizes checklist entry
	if err := ValidateChecklist(p.Items, sub.Checklist); err != nil {
		return Partial{}, err
	}
	normalized := ScoreChecklist(sub.Checklist)
	ok, err := s.store.CasSubmitPractical(ctx, p.ID, sub.Checklist, normalized, at)
	if err != nil {
		return Partial{}, err
	}
	if !ok {
		return Partial{}, fmt.Errorf("%w: practical partial cannot submit from %s", ErrInvalidTransition, p.Status)
	}
	s.record(ctx, EventPartialSubmitted, p.ID, map[string]any{"exam_id": p.ExamID, "type": p.Type})
	return s.store.GetPartial(ctx, p.ID)
}

// GradePractical records the instructor's checklist evaluation and terminal
// decision for a Submitted practical partial. The decision is independent
// of the computed pass ratio.
func (s *Service) GradePractical(ctx context.Context, partialID string, results []ChecklistResult, decision PartialStatus) (Partial, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return Partial{}, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidTransition)
	}
	p, err := s.store.GetPartial(ctx, partialID)
	if err != nil {
		return Partial{}, err
	}
	if p.Type != PartialPractical {
		return Partial{}, fmt.Errorf("%w: %s partial has no manual decision", ErrInvalidTransition, p.Type)
	}
	if err := ValidateChecklist(p.Items, results); err != nil {
		return Partial{}, err
	}
	normalized := ScoreChecklist(results)
	ok, err := s.store.CasDecidePractical(ctx, p.ID, decision, results, normalized)
	if err != nil {
		return Partial{}, err
	}
	if !ok {
		return Partial{}, fmt.Errorf("%w: practical partial cannot be decided from %s", ErrInvalidTransition, p.Status)
	}
	typ := EventPartialApproved
	if decision == StatusRejected {
		typ = EventPartialRejected
	}
	s.record(ctx, typ, p.ID, map[string]any{"exam_id": p.ExamID, "normalized_score": normalized})
	if err := s.recompute(ctx, p.ExamID); err != nil {
		return Partial{}, err
	}
	return s.store.GetPartial(ctx, p.ID)
}

// OverrideStatus is the administrative escape hatch: it forces a partial's
// status outside the transition table and leaves an audit event behind.
func (s *Service) OverrideStatus(ctx context.Context, partialID string, status PartialStatus, actor string) (Partial, error) {
	p, err := s.store.GetPartial(ctx, partialID)
	if err != nil {
		return Partial{}, err
	}
	if err := s.store.OverrideStatus(ctx, partialID, status); err != nil {
		return Partial{}, err
	}
	s.record(ctx, EventStatusOverridden, p.ID, map[string]any{
		"exam_id": p.ExamID, "from": p.Status, "to": status, "actor": actor,
	})
	if err := s.recompute(ctx, p.ExamID); err != nil {
		return Partial{}, err
	}
	return s.store.GetPartial(ctx, partialID)
}

// recompute re-runs the aggregator for the owning exam. Idempotent over an
// unchanged partial set.
func (s *Service) recompute(ctx context.Context, examID string) error {
	e, err := s.store.GetFinalExam(ctx, examID)
	if err != nil {
		return err
	}
	threshold, err := s.classes.PassingThreshold(ctx, e.ClassID)
	if err != nil {
		return err
	}
	agg := AggregateScores(e.Partials, threshold, s.now())
	if err := s.store.SaveAggregate(ctx, examID, agg); err != nil {
		return err
	}
	if agg.Status == ExamCompleted && e.Status != ExamCompleted {
		s.record(ctx, EventExamCompleted, examID, map[string]any{
			"total_marks": agg.TotalMarks, "is_pass": agg.IsPass,
		})
	}
	return nil
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	_ = s.events.Record(ctx, typ, key, data)
}

func normalize(raw, max float64) float64 {
	v := Round2(raw / max * 10)
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func newExamCode() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uuid.NewString()[:12]
	}
	return hex.EncodeToString(b[:])
}
