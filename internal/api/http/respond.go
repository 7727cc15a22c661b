package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/skillcert/examengine/internal/exam"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainErr maps engine errors onto HTTP statuses: admission rejections
// carry the definitive reason, lifecycle misuse is a conflict, validation
// failures are unprocessable.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrInvalidCode):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, exam.ErrWindowNotOpen), errors.Is(err, exam.ErrWindowClosed):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, exam.ErrSessionAlreadyActive),
		errors.Is(err, exam.ErrAlreadyTerminal),
		errors.Is(err, exam.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, exam.ErrInvalidWeightDistribution),
		errors.Is(err, exam.ErrChecklistMismatch):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, exam.ErrExamNotFound),
		errors.Is(err, exam.ErrPartialNotFound),
		errors.Is(err, exam.ErrClassNotConfigured):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
