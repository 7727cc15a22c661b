package config

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PASSING_THRESHOLD", "")

	cfg := FromEnv()
	if cfg.Mode != ModeOffline {
		t.Fatalf("Mode = %s, want offline", cfg.Mode)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %s", cfg.DBDriver)
	}
	if cfg.PassingThreshold != 7.0 {
		t.Fatalf("PassingThreshold = %v, want 7.0", cfg.PassingThreshold)
	}
	if !cfg.EnableLocalAuth {
		t.Fatal("local auth should default on")
	}
	if len(cfg.CORSOriginsOffline) != 2 {
		t.Fatalf("offline CORS origins = %v", cfg.CORSOriginsOffline)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PASSING_THRESHOLD", "6.5")
	t.Setenv("ENABLE_LOCAL_AUTH", "false")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.example, https://b.example")

	cfg := FromEnv()
	if cfg.Mode != ModeOnline || cfg.DBDriver != "postgres" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PassingThreshold != 6.5 {
		t.Fatalf("PassingThreshold = %v, want 6.5", cfg.PassingThreshold)
	}
	if cfg.EnableLocalAuth {
		t.Fatal("local auth should be off")
	}
	if len(cfg.CORSOriginsOnline) != 2 || cfg.CORSOriginsOnline[1] != "https://b.example" {
		t.Fatalf("online CORS origins = %v", cfg.CORSOriginsOnline)
	}
}

func TestEnvFloat_BadValueFallsBack(t *testing.T) {
	t.Setenv("PASSING_THRESHOLD", "seven")
	if got := envFloat("PASSING_THRESHOLD", 7.0); got != 7.0 {
		t.Fatalf("envFloat = %v, want fallback 7.0", got)
	}
}
