package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	v := NewViper()
	v.Set("auth.access_secret", "access-secret")
	v.Set("auth.refresh_secret", "refresh-secret")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address: %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "linkhive.db" {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath)
	}
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", cfg.RefreshTokenTTL)
	}
	if cfg.RefreshCookieName != "refreshToken" {
		t.Fatalf("unexpected cookie name: %q", cfg.RefreshCookieName)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	v := NewViper()
	if _, err := Load(v); err == nil {
		t.Fatalf("expected error when secrets are missing")
	}

	v.Set("auth.access_secret", "access-secret")
	if _, err := Load(v); err == nil {
		t.Fatalf("expected error when refresh secret is missing")
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	v := NewViper()
	v.Set("auth.access_secret", "access-secret")
	v.Set("auth.refresh_secret", "refresh-secret")
	v.Set("token.access_ttl_minutes", 0)

	if _, err := Load(v); err == nil {
		t.Fatalf("expected error for zero access ttl")
	}
}
