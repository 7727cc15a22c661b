package exam

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the persistence boundary of the engine. Every Cas* method is an
// atomic check-and-set against the partial row: it returns false (with no
// error) when the guard status no longer holds, so two racing callers get
// exactly one true.
type Store interface {
	PutClassConfig(ctx context.Context, cfg ClassExamConfig) error
	GetClassConfig(ctx context.Context, classID string) (ClassExamConfig, error)

	CreateFinalExam(ctx context.Context, e FinalExam) error
	GetFinalExam(ctx context.Context, id string) (FinalExam, error)
	ListFinalExams(ctx context.Context, classID string) ([]FinalExam, error)
	DeleteFinalExam(ctx context.Context, id string) error

	// EnsurePartial creates the row from the given snapshot if it does not
	// exist yet (first-touch creation) and returns the current row.
	EnsurePartial(ctx context.Context, snap Partial) (Partial, error)
	GetPartial(ctx context.Context, id string) (Partial, error)

	// AssignWindow records a per-trainee practical window. Only a partial
	// that has not started yet can have its window changed.
	AssignWindow(ctx context.Context, partialID string, start, end *time.Time) error

	CasStart(ctx context.Context, partialID string, at time.Time) (bool, error)
	CasSubmitAuto(ctx context.Context, partialID string, raw, max, normalized float64, at time.Time) (bool, error)
	CasSubmitPractical(ctx context.Context, partialID string, results []ChecklistResult, normalized float64, at time.Time) (bool, error)
	CasDecidePractical(ctx context.Context, partialID string, decision PartialStatus, results []ChecklistResult, normalized float64) (bool, error)
	OverrideStatus(ctx context.Context, partialID string, status PartialStatus) error

	SaveAggregate(ctx context.Context, examID string, agg Aggregate) error
}

type memoryStore struct {
	mu       sync.Mutex
	configs  map[string]ClassExamConfig
	exams    map[string]FinalExam
	partials map[string]Partial
}

// NewInMemoryStore returns a Store backed by process memory, used in tests
// and offline tooling.
func NewInMemoryStore() Store {
	return &memoryStore{
		configs:  map[string]ClassExamConfig{},
		exams:    map[string]FinalExam{},
		partials: map[string]Partial{},
	}
}

func (m *memoryStore) PutClassConfig(_ context.Context, cfg ClassExamConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.configs[cfg.ClassID]
	if ok {
		cfg.Version = prev.Version + 1
	} else {
		cfg.Version = 1
	}
	m.configs[cfg.ClassID] = cfg
	return nil
}

func (m *memoryStore) GetClassConfig(_ context.Context, classID string) (ClassExamConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[classID]
	if !ok {
		return ClassExamConfig{}, ErrClassNotConfigured
	}
	return cfg, nil
}

func (m *memoryStore) CreateFinalExam(_ context.Context, e FinalExam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetFinalExam(_ context.Context, id string) (FinalExam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getExamLocked(id)
}

func (m *memoryStore) getExamLocked(id string) (FinalExam, error) {
	e, ok := m.exams[id]
	if !ok {
		return FinalExam{}, ErrExamNotFound
	}
	e.Partials = nil
	for _, p := range m.partials {
		if p.ExamID == id {
			e.Partials = append(e.Partials, p)
		}
	}
	sort.Slice(e.Partials, func(i, j int) bool { return e.Partials[i].Type < e.Partials[j].Type })
	return e, nil
}

func (m *memoryStore) ListFinalExams(_ context.Context, classID string) ([]FinalExam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []FinalExam{}
	for id, e := range m.exams {
		if e.ClassID != classID {
			continue
		}
		full, _ := m.getExamLocked(id)
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteFinalExam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return ErrExamNotFound
	}
	delete(m.exams, id)
	for pid, p := range m.partials {
		if p.ExamID == id {
			delete(m.partials, pid)
		}
	}
	return nil
}

func (m *memoryStore) EnsurePartial(_ context.Context, snap Partial) (Partial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partials {
		if p.ExamID == snap.ExamID && p.Type == snap.Type {
			return p, nil
		}
	}
	m.partials[snap.ID] = snap
	return snap, nil
}

func (m *memoryStore) GetPartial(_ context.Context, id string) (Partial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[id]
	if !ok {
		return Partial{}, ErrPartialNotFound
	}
	return p, nil
}

func (m *memoryStore) AssignWindow(_ context.Context, partialID string, start, end *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[partialID]
	if !ok {
		return ErrPartialNotFound
	}
	if p.Status != StatusNotYet {
		return nil
	}
	p.WindowStart = start
	p.WindowEnd = end
	m.partials[partialID] = p
	return nil
}

func (m *memoryStore) CasStart(_ context.Context, partialID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[partialID]
	if !ok {
		return false, ErrPartialNotFound
	}
	if p.Status != StatusNotYet {
		return false, nil
	}
	p.Status = StatusInProgress
	p.ActualStartTime = &at
	m.partials[partialID] = p
	return true, nil
}

func (m *memoryStore) CasSubmitAuto(_ context.Context, partialID string, raw, max, normalized float64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[partialID]
	if !ok {
		return false, ErrPartialNotFound
	}
	if p.Status != StatusInProgress {
		return false, nil
	}
	p.Status = StatusCompleted
	p.RawScore = raw
	p.MaxScore = max
	p.NormalizedScore = normalized
	p.SubmittedAt = &at
	m.partials[partialID] = p
	return true, nil
}

func (m *memoryStore) CasSubmitPractical(_ context.Context, partialID string, results []ChecklistResult, normalized float64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[partialID]
	if !ok {
		return false, ErrPartialNotFound
	}
	if p.Status != StatusInProgress {
		return false, nil
	}
	p.Status = StatusSubmitted
	p.Checklist = append([]ChecklistResult(nil), results...)
	p.NormalizedScore = normalized
	p.SubmittedAt = &at
	m.partials[partialID] = p
	return true, nil
}

func (m *memoryStore) CasDecidePractical(_ context.Context, partialID string, decision PartialStatus, results []ChecklistResult, normalized float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[partialID]
	if !ok {
		return false, ErrPartialNotFound
	}
	if p.Status != StatusSubmitted {
		return false, nil
	}
	p.Status = decision
	p.Checklist = append([]ChecklistResult(nil), results...)
	p.NormalizedScore = normalized
	m.partials[partialID] = p
	return true, nil
}

func (m *memoryStore) OverrideStatus(_ context.Context, partialID string, status PartialStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[partialID]
	if !ok {
		return ErrPartialNotFound
	}
	p.Status = status
	m.partials[partialID] = p
	return nil
}

func (m *memoryStore) SaveAggregate(_ context.Context, examID string, agg Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return ErrExamNotFound
	}
	e.TotalMarks = agg.TotalMarks
	e.IsPass = agg.IsPass
	e.Status = agg.Status
	switch {
	case agg.Status != ExamCompleted:
		e.CompleteTime = nil
	case e.CompleteTime == nil:
		e.CompleteTime = agg.CompleteTime
	}
	m.exams[examID] = e
	return nil
}
