package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, val)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/carehq")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.BlobDriver != "memory" {
		t.Errorf("expected default blob driver memory, got %q", cfg.BlobDriver)
	}
	if cfg.DispatchDelayMS != 500 {
		t.Errorf("expected default dispatch delay 500, got %d", cfg.DispatchDelayMS)
	}
}

func TestRendererEnabled(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"", false},
		{"http://pdf.internal", false},
		{"https://pdf.example.com", true},
	}
	for _, tc := range cases {
		c := &Config{RendererURL: tc.url}
		if got := c.RendererEnabled(); got != tc.want {
			t.Errorf("RendererEnabled(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	c := &Config{Env: "production", BlobDriver: "memory"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for production without AUTH_ISSUER")
	}
	c.AuthIssuer = "https://auth.example.com/realms/carehq"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BlobDriver(t *testing.T) {
	c := &Config{Env: "development", BlobDriver: "tape"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown blob driver")
	}
	c.BlobDriver = "s3"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for s3 driver without bucket")
	}
	c.BlobS3Bucket = "carehq-docs"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeDispatchDelay(t *testing.T) {
	c := &Config{Env: "development", BlobDriver: "memory", DispatchDelayMS: -1}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for negative dispatch delay")
	}
}
