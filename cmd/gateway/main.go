package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/skillcert/examengine/internal/api/http"
	auth "github.com/skillcert/examengine/internal/auth/middleware"
	"github.com/skillcert/examengine/internal/config"
	"github.com/skillcert/examengine/internal/db"
	"github.com/skillcert/examengine/internal/exam"
	"github.com/skillcert/examengine/internal/rbac"
	syncx "github.com/skillcert/examengine/internal/sync"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	store := exam.NewSQLStore(dbh, cfg.DBDriver)
	classes := exam.NewSQLClassDirectory(dbh, cfg.PassingThreshold)
	events := syncx.NewEventRepo(dbh)
	svc := exam.NewService(store, classes, exam.WithEventSink(events))

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	}

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		// Class exam configuration (instructor)
		pr.With(rbac.Require("config:write")).
			Post("/classes/{classID}/exam-config", api.PutClassConfigHandler(svc))
		pr.With(rbac.Require("config:read")).
			Get("/classes/{classID}/exam-config", api.GetClassConfigHandler(svc))

		// Final exam administration
		pr.With(rbac.Require("exam:create")).
			Post("/final-exams", api.CreateFinalExamHandler(svc))
		pr.With(rbac.Require("exam:list")).
			Get("/classes/{classID}/final-exams", api.ListFinalExamsHandler(svc))
		pr.With(rbac.Require("exam:view")).
			Get("/final-exams/{examID}", api.GetFinalExamHandler(svc))
		pr.With(rbac.Require("exam:delete")).
			Delete("/final-exams/{examID}", api.DeleteFinalExamHandler(svc))

		// Trainee flow: code-gated timed attempts
		pr.With(rbac.Require("partial:start")).
			Post("/final-exams/{examID}/partials/{type}/start", api.StartPartialHandler(svc))
		pr.With(rbac.Require("partial:submit")).
			Post("/partials/{partialID}/submit", api.SubmitPartialHandler(svc))

		// Instructor flow: practical sessions and grading
		pr.With(rbac.Require("practical:start")).
			Post("/final-exams/{examID}/practical/start", api.StartPracticalHandler(svc))
		pr.With(rbac.Require("practical:grade")).
			Post("/partials/{partialID}/grade", api.GradePracticalHandler(svc))

		// Admin: forced status changes, audit trail
		pr.With(rbac.Require("partial:override")).
			Post("/partials/{partialID}/override", api.OverridePartialHandler(svc))
		pr.With(rbac.Require("events:view")).
			Get("/partials/{partialID}/events", api.ListPartialEventsHandler(events))

		// Users (instructor/admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
