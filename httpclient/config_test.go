package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.Name != "httpclient" {
		t.Errorf("expected default name httpclient, got %q", cfg.Name)
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{Timeout: 10 * time.Second, Name: "apify"}
	cfg.ApplyDefaults()
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.Name != "apify" {
		t.Errorf("expected name apify, got %q", cfg.Name)
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	cfg := Config{Timeout: 10 * time.Second, BaseURL: "https://api.apify.com/v2"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfig_Validate_InvalidTimeout(t *testing.T) {
	cfg := Config{Timeout: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestConfig_Validate_InvalidBaseURL(t *testing.T) {
	cfg := Config{Timeout: time.Second, BaseURL: "ftp://example.com"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http base URL")
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.RetryIf == nil {
		t.Fatal("expected RetryIf to be set")
	}
	if cfg.RetryIf(NewAuthError(401, nil)) {
		t.Error("auth errors should not be retried")
	}
	if !cfg.RetryIf(NewServerError(503, nil)) {
		t.Error("server errors should be retried")
	}
}
