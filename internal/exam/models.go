package exam

import "time"

type PartialType string

const (
	PartialTheory     PartialType = "theory"
	PartialSimulation PartialType = "simulation"
	PartialPractical  PartialType = "practical"
)

// PartialTypes lists the three types in their canonical order.
var PartialTypes = []PartialType{PartialTheory, PartialSimulation, PartialPractical}

func (t PartialType) Valid() bool {
	switch t {
	case PartialTheory, PartialSimulation, PartialPractical:
		return true
	}
	return false
}

type PartialStatus string

const (
	StatusNotYet     PartialStatus = "not_yet"
	StatusInProgress PartialStatus = "in_progress"
	StatusSubmitted  PartialStatus = "submitted"
	StatusCompleted  PartialStatus = "completed"
	StatusApproved   PartialStatus = "approved"
	StatusRejected   PartialStatus = "rejected"
)

// Terminal reports whether a partial in this status can no longer move
// forward (administrative override excepted).
func (s PartialStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type ExamStatus string

const (
	ExamNotYet     ExamStatus = "not_yet"
	ExamInProgress ExamStatus = "in_progress"
	ExamCompleted  ExamStatus = "completed"
)

// ChecklistItem is one configured rubric entry for a practical partial.
type ChecklistItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PartialConfig is the per-type slice of a class's exam configuration.
// Theory and simulation carry a class-wide scheduling window; practical
// windows are assigned per trainee when the instructor opens the session.
type PartialConfig struct {
	Type        PartialType     `json:"type"`
	Weight      float64         `json:"weight"`
	DurationMin int             `json:"duration_min"`
	ContentRef  string          `json:"content_ref"` // quiz id / practice id
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	WindowStart *time.Time      `json:"window_start,omitempty"`
	WindowEnd   *time.Time      `json:"window_end,omitempty"`
}

// ClassExamConfig holds exactly one PartialConfig per type. A class counts
// as configured only when all three are committed together; Version bumps
// on every successful commit.
type ClassExamConfig struct {
	ClassID  string                        `json:"class_id"`
	Version  int                           `json:"version"`
	Partials map[PartialType]PartialConfig `json:"partials"`
}

// ChecklistResult is the instructor's pass/fail judgment on one item.
type ChecklistResult struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Passed      bool   `json:"passed"`
}

// Partial is one weighted sub-assessment of a final exam. Weight, window
// and content reference are snapshots taken from the class config when the
// row is created; later config edits never touch them.
type Partial struct {
	ID              string            `json:"id"`
	ExamID          string            `json:"exam_id"`
	Type            PartialType       `json:"type"`
	Status          PartialStatus     `json:"status"`
	ConfigVersion   int               `json:"config_version"`
	Weight          float64           `json:"weight"`
	ContentRef      string            `json:"content_ref"`
	DurationMin     int               `json:"duration_min"`
	WindowStart     *time.Time        `json:"window_start,omitempty"`
	WindowEnd       *time.Time        `json:"window_end,omitempty"`
	Items           []ChecklistItem   `json:"checklist_items,omitempty"` // practical only, config snapshot
	RawScore        float64           `json:"raw_score"`
	MaxScore        float64           `json:"max_score"`
	NormalizedScore float64           `json:"normalized_score"` // 0-10
	ActualStartTime *time.Time        `json:"actual_start_time,omitempty"`
	SubmittedAt     *time.Time        `json:"submitted_at,omitempty"`
	Checklist       []ChecklistResult `json:"checklist,omitempty"`
}

// FinalExam is one trainee's certification exam within a class. TotalMarks
// and IsPass are recomputed by the aggregator whenever an owned partial
// reaches a terminal status.
type FinalExam struct {
	ID           string     `json:"id"`
	ClassID      string     `json:"class_id"`
	EnrollmentID string     `json:"enrollment_id"`
	ExamCode     string     `json:"exam_code,omitempty"`
	Status       ExamStatus `json:"status"`
	TotalMarks   float64    `json:"total_marks"` // 0-10
	IsPass       bool       `json:"is_pass"`
	CompleteTime *time.Time `json:"complete_time,omitempty"`
	Partials     []Partial  `json:"partials"`
}
