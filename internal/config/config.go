package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files, environment variables and flags.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	APIURL                string        `mapstructure:"api_url"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	ExportDir             string        `mapstructure:"export_dir"`
	ExportTarget          string        `mapstructure:"export_target"`
	ExportS3Bucket        string        `mapstructure:"export_s3_bucket"`
	ExportS3Prefix        string        `mapstructure:"export_s3_prefix"`
	ExportS3Region        string        `mapstructure:"export_s3_region"`
	ExportS3Endpoint      string        `mapstructure:"export_s3_endpoint"`
	ResourcesFile         string        `mapstructure:"resources_file"`
	NotifiersFile         string        `mapstructure:"notifiers_file"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`
}

const DefaultAPIURL = "http://localhost:5000/api"

// Load reads configuration from configs/.env, environment variables and the optional flag set.
// Flags that were explicitly set take precedence over the environment.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "gestionale-natale")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("request_timeout_seconds", 0) // 0 keeps the transport default
	v.SetDefault("export_dir", ".")
	v.SetDefault("export_target", "dir")
	v.SetDefault("export_s3_bucket", "")
	v.SetDefault("export_s3_prefix", "")
	v.SetDefault("export_s3_region", "")
	v.SetDefault("export_s3_endpoint", "")
	v.SetDefault("resources_file", "")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("journal_type", "bbolt")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("invalid api_url (must not be empty)")
	}

	if cfg.RequestTimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must not be negative)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	cfg.ExportTarget = strings.ToLower(strings.TrimSpace(cfg.ExportTarget))
	switch cfg.ExportTarget {
	case "dir":
	case "s3":
		if cfg.ExportS3Bucket == "" || cfg.ExportS3Region == "" {
			return nil, fmt.Errorf("export_target s3 requires export_s3_bucket and export_s3_region")
		}
	default:
		return nil, fmt.Errorf("invalid export_target %q (must be dir or s3)", cfg.ExportTarget)
	}

	if cfg.JournalTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second

	return &cfg, nil
}

// bindFlags maps dashed flag names (api-url) onto the underscored config keys (api_url).
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnownKey(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

func isKnownKey(key string) bool {
	switch key {
	case "app_name", "app_env", "log_level", "api_url", "request_timeout_seconds", "export_dir",
		"export_target", "export_s3_bucket", "export_s3_prefix", "export_s3_region", "export_s3_endpoint",
		"resources_file", "notifiers_file", "journal_type", "journal_path",
		"journal_ttl_seconds", "journal_cleanup_interval_seconds":
		return true
	}
	return false
}
