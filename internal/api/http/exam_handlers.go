package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skillcert/examengine/internal/exam"
)

// POST /final-exams
func CreateFinalExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ClassID      string `json:"class_id" validate:"required"`
			EnrollmentID string `json:"enrollment_id" validate:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(&req); err != nil {
			http.Error(w, "class_id and enrollment_id required", http.StatusBadRequest)
			return
		}
		e, err := svc.CreateFinalExam(r.Context(), req.ClassID, req.EnrollmentID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, e)
	}
}

// GET /final-exams/{examID}
func GetFinalExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetFinalExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		// the one-time code is only disclosed at creation time
		e.ExamCode = ""
		writeJSON(w, e)
	}
}

// GET /classes/{classID}/final-exams
func ListFinalExamsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams, err := svc.ListFinalExams(r.Context(), chi.URLParam(r, "classID"))
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		for i := range exams {
			exams[i].ExamCode = ""
		}
		writeJSON(w, exams)
	}
}

// DELETE /final-exams/{examID}
func DeleteFinalExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteFinalExam(r.Context(), chi.URLParam(r, "examID")); err != nil {
			writeDomainErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
