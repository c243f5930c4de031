package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "RABBIT_QUEUE", "REMOTE_TIMEOUT", "SESSION_TIMEOUT", "WORKER_CONCURRENCY", "FEEDBACK_RETRAIN_THRESHOLD"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.HTTPAddr != ":8080" || cfg.RabbitQueue != "supportbot_events" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RemoteTimeout != 15*time.Second || cfg.SessionTimeout != 30*time.Minute {
		t.Fatalf("unexpected durations: %s %s", cfg.RemoteTimeout, cfg.SessionTimeout)
	}
	if cfg.FeedbackRetrainThreshold != 20 || cfg.WorkerConcurrency != 2 {
		t.Fatalf("unexpected ints: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT", "5")
	t.Setenv("SESSION_TIMEOUT", "10m")
	t.Setenv("MAINTENANCE_INTERVAL", "bogus")
	t.Setenv("WORKER_CONCURRENCY", "500")

	cfg := Load()
	if cfg.RemoteTimeout != 5*time.Second {
		t.Fatalf("bare seconds: got %s", cfg.RemoteTimeout)
	}
	if cfg.SessionTimeout != 10*time.Minute {
		t.Fatalf("duration: got %s", cfg.SessionTimeout)
	}
	if cfg.MaintenanceInterval != time.Hour {
		t.Fatalf("bad value should fall back: got %s", cfg.MaintenanceInterval)
	}
	if cfg.WorkerConcurrency != 50 {
		t.Fatalf("concurrency should be capped: got %d", cfg.WorkerConcurrency)
	}
}
