package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmms/internal/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// inTempDir runs the test from an empty directory so no stray .env is read.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := inTempDir(t)
	path := writeFile(t, dir, "cmms.yaml", `
addr: ":8080"
db_path: /var/lib/cmms.db
locale: vi
timezone: Asia/Ho_Chi_Minh
seed: false
archive:
  driver: s3
  s3:
    bucket: plans
    region: ap-southeast-1
`)
	t.Setenv("CMMS_ADDR", ":7070")
	t.Setenv("CMMS_S3_PREFIX", "exports/")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "/var/lib/cmms.db", cfg.DBPath)
	assert.Equal(t, "vi", cfg.Locale)
	assert.False(t, cfg.Seed)
	assert.Equal(t, "s3", cfg.Archive.Driver)
	assert.Equal(t, "plans", cfg.Archive.S3.Bucket)
	assert.Equal(t, "exports/", cfg.Archive.S3.Prefix)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, dir, ".env", "CMMS_LOCALE=vi\nCMMS_SEED=false\n")
	// godotenv.Load never overrides variables that are already set, so make
	// sure the test does not inherit them.
	os.Unsetenv("CMMS_LOCALE")
	os.Unsetenv("CMMS_SEED")
	t.Cleanup(func() {
		os.Unsetenv("CMMS_LOCALE")
		os.Unsetenv("CMMS_SEED")
	})

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "vi", cfg.Locale)
	assert.False(t, cfg.Seed)
}

func TestLoadErrors(t *testing.T) {
	dir := inTempDir(t)

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "addr: [unterminated")
	_, err = config.Load(bad)
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("CMMS_SEED", "maybe")
	_, err = config.Load("")
	assert.ErrorContains(t, err, "CMMS_SEED")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		errMsg string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"locale", func(c *config.Config) { c.Locale = "fr" }, "locale"},
		{"log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
		{"timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"driver", func(c *config.Config) { c.Archive.Driver = "ftp" }, "archive.driver"},
		{"local dir", func(c *config.Config) { c.Archive.Driver = "local"; c.Archive.Dir = "" }, "archive.dir"},
		{"s3 bucket", func(c *config.Config) { c.Archive.Driver = "s3" }, "archive.s3.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
