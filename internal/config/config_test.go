package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	// Empty environment values are ignored, so the default base URL applies.
	t.Setenv("API_URL", "")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected transport default timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.JournalType != "bbolt" {
		t.Fatalf("unexpected journal type %q", cfg.JournalType)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_URL", "https://crm.example.com/api/")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")
	t.Setenv("JOURNAL_TYPE", "none")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://crm.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 7*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.JournalType != "none" {
		t.Fatalf("unexpected journal type %q", cfg.JournalType)
	}
	if cfg.JournalTTL != 30*24*time.Hour {
		t.Fatalf("unexpected journal ttl %v", cfg.JournalTTL)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("API_URL", "https://env.example.com/api")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	flags.String("unrelated", "", "")
	if err := flags.Parse([]string{"--api-url", "https://flag.example.com/api"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://flag.example.com/api" {
		t.Fatalf("expected flag value, got %q", cfg.APIURL)
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	t.Setenv("API_URL", "http://localhost:5000/api")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "-1")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestLoadValidatesExportTarget(t *testing.T) {
	t.Setenv("EXPORT_TARGET", "S3")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for s3 target without bucket")
	}

	t.Setenv("EXPORT_S3_BUCKET", "spedizioni")
	t.Setenv("EXPORT_S3_REGION", "eu-south-1")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExportTarget != "s3" || cfg.ExportS3Bucket != "spedizioni" {
		t.Fatalf("unexpected export config %+v", cfg)
	}

	t.Setenv("EXPORT_TARGET", "ftp")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for unknown export target")
	}
}
