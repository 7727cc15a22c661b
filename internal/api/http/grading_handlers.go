package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skillcert/examengine/internal/exam"
	"github.com/skillcert/examengine/internal/rbac"
	syncx "github.com/skillcert/examengine/internal/sync"
)

type gradePracticalReq struct {
	Checklist []exam.ChecklistResult `json:"checklist" validate:"required,min=1"`
	Decision  string                 `json:"decision" validate:"required,oneof=approved rejected"`
}

// POST /partials/{partialID}/grade
func GradePracticalHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partialID := chi.URLParam(r, "partialID")
		var req gradePracticalReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(&req); err != nil {
			http.Error(w, "invalid grading request: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		p, err := svc.GradePractical(r.Context(), partialID, req.Checklist, exam.PartialStatus(req.Decision))
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}

// POST /partials/{partialID}/override
// Admin-only forced status change; the transition table does not apply, the
// event log keeps the trace.
func OverridePartialHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partialID := chi.URLParam(r, "partialID")
		var req struct {
			Status string `json:"status" validate:"required,oneof=not_yet in_progress submitted completed approved rejected"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(&req); err != nil {
			http.Error(w, "invalid status", http.StatusUnprocessableEntity)
			return
		}
		actor := rbac.SubjectFromContext(r.Context())
		p, err := svc.OverrideStatus(r.Context(), partialID, exam.PartialStatus(req.Status), actor)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}

// GET /partials/{partialID}/events
func ListPartialEventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := events.ListByKey(r.Context(), chi.URLParam(r, "partialID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, out)
	}
}
