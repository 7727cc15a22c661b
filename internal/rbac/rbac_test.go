package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_Has(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"trainee", "partial:start", true},
		{"trainee", "partial:submit", true},
		{"trainee", "config:write", false},
		{"trainee", "practical:grade", false},
		{"instructor", "config:write", true},
		{"instructor", "practical:grade", true},
		{"instructor", "partial:override", false},
		{"admin", "partial:override", true},
		{"admin", "anything:at_all", true},
		{"", "exam:view", false},
		{"ghost", "exam:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestChecker_WildcardSuffix(t *testing.T) {
	c := NewChecker(map[string][]string{"auditor": {"exam:*"}})
	if !c.Has("auditor", "exam:view") || !c.Has("auditor", "exam:list") {
		t.Fatal("suffix wildcard must cover the prefix")
	}
	if c.Has("auditor", "config:read") {
		t.Fatal("suffix wildcard must not cross prefixes")
	}
}

func TestRequire_Middleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	h := Require("practical:grade")(ok)

	req := httptest.NewRequest("POST", "/partials/p1/grade", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "instructor")))
	if rec.Code != 200 {
		t.Fatalf("instructor grade: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "trainee")))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("trainee grade: status = %d, want 403", rec.Code)
	}

	// no role in context at all
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing role: status = %d, want 403", rec.Code)
	}
}

func TestRequireAny_Middleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	h := RequireAny("exam:list", "exam:view")(ok)

	req := httptest.NewRequest("GET", "/final-exams/e1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "trainee")))
	if rec.Code != 200 {
		t.Fatalf("trainee view: status = %d, want 200", rec.Code)
	}
}

func TestSubjectRoundTrip(t *testing.T) {
	ctx := WithSubject(WithRole(httptest.NewRequest("GET", "/", nil).Context(), "admin"), "user-1")
	if RoleFromContext(ctx) != "admin" || SubjectFromContext(ctx) != "user-1" {
		t.Fatal("context round-trip lost role or subject")
	}
}
