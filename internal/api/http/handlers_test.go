package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skillcert/examengine/internal/exam"
)

func newTestRouter() http.Handler {
	svc := exam.NewService(exam.NewInMemoryStore(), exam.StaticThreshold(7.0))

	r := chi.NewRouter()
	r.Post("/classes/{classID}/exam-config", PutClassConfigHandler(svc))
	r.Get("/classes/{classID}/exam-config", GetClassConfigHandler(svc))
	r.Post("/final-exams", CreateFinalExamHandler(svc))
	r.Get("/final-exams/{examID}", GetFinalExamHandler(svc))
	r.Post("/final-exams/{examID}/partials/{type}/start", StartPartialHandler(svc))
	r.Post("/final-exams/{examID}/practical/start", StartPracticalHandler(svc))
	r.Post("/partials/{partialID}/submit", SubmitPartialHandler(svc))
	r.Post("/partials/{partialID}/grade", GradePracticalHandler(svc))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func configBody(theory, simulation, practical float64) map[string]any {
	open := time.Now().Add(-time.Hour)
	close := time.Now().Add(time.Hour)
	checklist := []map[string]any{}
	for i := 1; i <= 10; i++ {
		checklist = append(checklist, map[string]any{"name": fmt.Sprintf("step-%02d", i)})
	}
	return map[string]any{
		"theory": map[string]any{
			"weight": theory, "duration_min": 60, "content_ref": "quiz-1",
			"window_start": open, "window_end": close,
		},
		"simulation": map[string]any{
			"weight": simulation, "duration_min": 45, "content_ref": "sim-1",
			"window_start": open, "window_end": close,
		},
		"practical": map[string]any{
			"weight": practical, "duration_min": 90, "content_ref": "rig-1",
			"checklist": checklist,
		},
	}
}

func TestPutClassConfig_Validation(t *testing.T) {
	h := newTestRouter()

	// weights summing to 0.90 are a domain rejection
	rec := doJSON(t, h, "POST", "/classes/class-1/exam-config", configBody(0.40, 0.30, 0.20))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("sum mismatch: status = %d, want 422", rec.Code)
	}

	// a weight of 1.0 fails request validation before the engine runs
	rec = doJSON(t, h, "POST", "/classes/class-1/exam-config", configBody(1.0, 0.30, 0.30))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out of range: status = %d, want 422", rec.Code)
	}

	// a missing partial section is rejected
	body := configBody(0.40, 0.30, 0.30)
	delete(body, "practical")
	rec = doJSON(t, h, "POST", "/classes/class-1/exam-config", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing section: status = %d, want 422", rec.Code)
	}

	// nothing was committed
	req := httptest.NewRequest("GET", "/classes/class-1/exam-config", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("config after failed commits: status = %d, want 404", rec.Code)
	}
}

func TestExamFlow_OverHTTP(t *testing.T) {
	h := newTestRouter()

	rec := doJSON(t, h, "POST", "/classes/class-1/exam-config", configBody(0.40, 0.30, 0.30))
	if rec.Code != http.StatusOK {
		t.Fatalf("put config: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, "POST", "/final-exams", map[string]string{
		"class_id": "class-1", "enrollment_id": "enr-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create exam: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created exam.FinalExam
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode exam: %v", err)
	}
	if created.ExamCode == "" {
		t.Fatal("creation response must disclose the exam code")
	}

	// the code never leaks after creation
	req := httptest.NewRequest("GET", "/final-exams/"+created.ID, nil)
	get := httptest.NewRecorder()
	h.ServeHTTP(get, req)
	var fetched exam.FinalExam
	if err := json.Unmarshal(get.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode exam: %v", err)
	}
	if fetched.ExamCode != "" {
		t.Fatal("exam code leaked on read")
	}

	rec = doJSON(t, h, "POST", "/final-exams/"+created.ID+"/partials/theory/start",
		map[string]string{"code": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, "POST", "/final-exams/"+created.ID+"/partials/theory/start",
		map[string]string{"code": created.ExamCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("start theory: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var started startPartialResp
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if started.ContentRef != "quiz-1" || started.DurationMin != 60 {
		t.Fatalf("start response = %+v", started)
	}

	// a second start conflicts with the active session
	rec = doJSON(t, h, "POST", "/final-exams/"+created.ID+"/partials/theory/start",
		map[string]string{"code": created.ExamCode})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double start: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, "POST", "/partials/"+started.PartialID+"/submit",
		map[string]float64{"raw_score": 16, "max_score": 20})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var submitted exam.Partial
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode partial: %v", err)
	}
	if submitted.Status != exam.StatusCompleted || submitted.NormalizedScore != 8.0 {
		t.Fatalf("submitted partial = %+v", submitted)
	}

	// practical: start, submit a bad checklist, then the real one, then grade
	rec = doJSON(t, h, "POST", "/final-exams/"+created.ID+"/practical/start", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("start practical: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var practical exam.Partial
	if err := json.Unmarshal(rec.Body.Bytes(), &practical); err != nil {
		t.Fatalf("decode practical: %v", err)
	}

	short := []map[string]any{{"name": "step-01", "passed": true}}
	rec = doJSON(t, h, "POST", "/partials/"+practical.ID+"/submit",
		map[string]any{"checklist": short})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("mismatched checklist: status = %d, want 422", rec.Code)
	}

	full := []map[string]any{}
	for i := 1; i <= 10; i++ {
		full = append(full, map[string]any{"name": fmt.Sprintf("step-%02d", i), "passed": i > 1})
	}
	rec = doJSON(t, h, "POST", "/partials/"+practical.ID+"/submit",
		map[string]any{"checklist": full})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit practical: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, "POST", "/partials/"+practical.ID+"/grade",
		map[string]any{"checklist": full, "decision": "approved"})
	if rec.Code != http.StatusOK {
		t.Fatalf("grade: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var graded exam.Partial
	if err := json.Unmarshal(rec.Body.Bytes(), &graded); err != nil {
		t.Fatalf("decode graded: %v", err)
	}
	if graded.Status != exam.StatusApproved || graded.NormalizedScore != 9.0 {
		t.Fatalf("graded partial = %+v", graded)
	}

	// the decision field is a closed set
	rec = doJSON(t, h, "POST", "/partials/"+practical.ID+"/grade",
		map[string]any{"checklist": full, "decision": "maybe"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad decision: status = %d, want 422", rec.Code)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	h := newTestRouter()

	rec := doJSON(t, h, "POST", "/final-exams", map[string]string{
		"class_id": "unconfigured", "enrollment_id": "enr-1",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unconfigured class: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, "POST", "/final-exams/no-such/partials/theory/start",
		map[string]string{"code": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing exam: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, "POST", "/partials/no-such/submit",
		map[string]float64{"raw_score": 1, "max_score": 10})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing partial: status = %d, want 404", rec.Code)
	}
}
