package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "notes-service" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Auth.SessionTokenTTL() != 7*24*time.Hour {
		t.Errorf("SessionTokenTTL = %v, want 168h", cfg.Auth.SessionTokenTTL())
	}
	if cfg.Auth.OTPTTL() != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want 10m", cfg.Auth.OTPTTL())
	}
	if cfg.OAuth.StateTTL() != 10*time.Minute {
		t.Errorf("StateTTL = %v, want 10m", cfg.OAuth.StateTTL())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_SESSION_TOKEN_TTL_DAYS", "1")
	t.Setenv("AUTH_OTP_TTL_MINUTES", "5")
	t.Setenv("APP_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SessionTokenTTL() != 24*time.Hour {
		t.Errorf("SessionTokenTTL = %v, want 24h", cfg.Auth.SessionTokenTTL())
	}
	if cfg.Auth.OTPTTL() != 5*time.Minute {
		t.Errorf("OTPTTL = %v, want 5m", cfg.Auth.OTPTTL())
	}
	if got := cfg.App.Addr(); got != "0.0.0.0:9999" {
		t.Errorf("Addr = %q", got)
	}
}

func TestTTLGuards(t *testing.T) {
	auth := AuthConfig{SessionTokenTTLDay: 0, OTPTTLMinutes: -3}
	if auth.SessionTokenTTL() != 7*24*time.Hour {
		t.Errorf("zero days should fall back to 7")
	}
	if auth.OTPTTL() != 10*time.Minute {
		t.Errorf("negative minutes should fall back to 10")
	}
}
