package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skillcert/examengine/internal/exam"
)

type startPartialResp struct {
	PartialID   string           `json:"partial_id"`
	Type        exam.PartialType `json:"type"`
	ContentRef  string           `json:"content_ref"`
	DurationMin int              `json:"duration_min"`
	WindowEnd   *time.Time       `json:"window_end,omitempty"`
}

// POST /final-exams/{examID}/partials/{type}/start
// Body: {"code": "..."}, the code-gated trainee path for theory/simulation.
func StartPartialHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		ptype := exam.PartialType(chi.URLParam(r, "type"))
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err := svc.StartPartial(r.Context(), examID, ptype, req.Code, time.Now())
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, startPartialResp{
			PartialID:   p.ID,
			Type:        p.Type,
			ContentRef:  p.ContentRef,
			DurationMin: p.DurationMin,
			WindowEnd:   p.WindowEnd,
		})
	}
}

// POST /final-exams/{examID}/practical/start
// Instructor-initiated; assigns the per-trainee window when provided.
func StartPracticalHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		var req struct {
			WindowStart *time.Time `json:"window_start,omitempty"`
			WindowEnd   *time.Time `json:"window_end,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err := svc.StartPractical(r.Context(), examID, req.WindowStart, req.WindowEnd, time.Now())
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}

// POST /partials/{partialID}/submit
// Theory/simulation: {"raw_score": x, "max_score": y} from the external
// grading engine. Practical: {"checklist": [...]} finalized by the
// instructor.
func SubmitPartialHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partialID := chi.URLParam(r, "partialID")
		var sub exam.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err := svc.SubmitPartial(r.Context(), partialID, sub)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}
