package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skillcert/examengine/internal/exam"
)

type partialConfigReq struct {
	Weight      float64              `json:"weight" validate:"required,gt=0,lt=1"`
	DurationMin int                  `json:"duration_min" validate:"gte=0"`
	ContentRef  string               `json:"content_ref"`
	Checklist   []exam.ChecklistItem `json:"checklist,omitempty" validate:"dive"`
	WindowStart *time.Time           `json:"window_start,omitempty"`
	WindowEnd   *time.Time           `json:"window_end,omitempty"`
}

type classConfigReq struct {
	Theory     *partialConfigReq `json:"theory" validate:"required"`
	Simulation *partialConfigReq `json:"simulation" validate:"required"`
	Practical  *partialConfigReq `json:"practical" validate:"required"`
}

// POST /classes/{classID}/exam-config
func PutClassConfigHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := chi.URLParam(r, "classID")
		var req classConfigReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(&req); err != nil {
			http.Error(w, "invalid config: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		cfg := exam.ClassExamConfig{
			ClassID: classID,
			Partials: map[exam.PartialType]exam.PartialConfig{
				exam.PartialTheory:     toPartialConfig(exam.PartialTheory, req.Theory),
				exam.PartialSimulation: toPartialConfig(exam.PartialSimulation, req.Simulation),
				exam.PartialPractical:  toPartialConfig(exam.PartialPractical, req.Practical),
			},
		}
		committed, err := svc.ConfigureWeights(r.Context(), cfg)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, committed)
	}
}

// GET /classes/{classID}/exam-config
func GetClassConfigHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := svc.GetClassConfig(r.Context(), chi.URLParam(r, "classID"))
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeJSON(w, cfg)
	}
}

func toPartialConfig(t exam.PartialType, req *partialConfigReq) exam.PartialConfig {
	return exam.PartialConfig{
		Type:        t,
		Weight:      req.Weight,
		DurationMin: req.DurationMin,
		ContentRef:  req.ContentRef,
		Checklist:   req.Checklist,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
	}
}
