// Package config loads server settings from a YAML file, a .env file and
// CMMS_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// S3Config mirrors the bucket settings of the S3 archive driver.
// CloudFrontDomain, when set, is used for returned object URLs.
type S3Config struct {
	Bucket           string `yaml:"bucket"`
	Region           string `yaml:"region"`
	Prefix           string `yaml:"prefix"`
	Endpoint         string `yaml:"endpoint"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	CloudFrontDomain string `yaml:"cloudfront_domain"`
}

// ArchiveConfig selects where generated documents are kept. Driver is
// "none", "local" or "s3".
type ArchiveConfig struct {
	Driver string   `yaml:"driver"`
	Dir    string   `yaml:"dir"`
	S3     S3Config `yaml:"s3"`
}

type Config struct {
	Addr      string        `yaml:"addr"`
	DBPath    string        `yaml:"db_path"`
	Seed      bool          `yaml:"seed"`
	Locale    string        `yaml:"locale"`
	Timezone  string        `yaml:"timezone"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	Archive   ArchiveConfig `yaml:"archive"`

	// AuditRetentionDays prunes older audit entries at startup; 0 keeps all.
	AuditRetentionDays int `yaml:"audit_retention_days"`
}

func Default() Config {
	return Config{
		Addr:      ":9000",
		DBPath:    "cmms.db",
		Seed:      true,
		Locale:    "en",
		Timezone:  "Local",
		LogLevel:  "info",
		LogFormat: "text",
		Archive:   ArchiveConfig{Driver: "none", Dir: "exports"},

		AuditRetentionDays: 365,
	}
}

// Load builds the configuration. A missing file at path is an error; an
// empty path skips the file. A missing .env is ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"CMMS_ADDR":             &cfg.Addr,
		"CMMS_DB":               &cfg.DBPath,
		"CMMS_LOCALE":           &cfg.Locale,
		"CMMS_TZ":               &cfg.Timezone,
		"CMMS_LOG_LEVEL":        &cfg.LogLevel,
		"CMMS_LOG_FORMAT":       &cfg.LogFormat,
		"CMMS_ARCHIVE_DRIVER":   &cfg.Archive.Driver,
		"CMMS_ARCHIVE_DIR":      &cfg.Archive.Dir,
		"CMMS_S3_BUCKET":        &cfg.Archive.S3.Bucket,
		"CMMS_S3_REGION":        &cfg.Archive.S3.Region,
		"CMMS_S3_PREFIX":        &cfg.Archive.S3.Prefix,
		"CMMS_S3_ENDPOINT":      &cfg.Archive.S3.Endpoint,
		"CMMS_S3_ACCESS_KEY_ID": &cfg.Archive.S3.AccessKeyID,
		"CMMS_S3_SECRET_KEY":    &cfg.Archive.S3.SecretAccessKey,
	}
	for name, dst := range str {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("CMMS_SEED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CMMS_SEED: %w", err)
		}
		cfg.Seed = b
	}
	return nil
}

// Validate checks enumerated settings and the archive driver's requirements.
func (c Config) Validate() error {
	var problems []string
	switch strings.ToLower(c.Locale) {
	case "en", "vi":
	default:
		problems = append(problems, fmt.Sprintf("locale %q (want en or vi)", c.Locale))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q (want text or json)", c.LogFormat))
	}
	if c.AuditRetentionDays < 0 {
		problems = append(problems, "audit_retention_days must not be negative")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
	}
	switch c.Archive.Driver {
	case "", "none":
	case "local":
		if c.Archive.Dir == "" {
			problems = append(problems, "archive.dir is required for the local driver")
		}
	case "s3":
		if c.Archive.S3.Bucket == "" || c.Archive.S3.Region == "" {
			problems = append(problems, "archive.s3.bucket and archive.s3.region are required for the s3 driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("archive.driver %q (want none, local or s3)", c.Archive.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves Timezone. "" and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
