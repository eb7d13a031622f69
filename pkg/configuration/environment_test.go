package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "SEEDLOAD_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "staffing")
	requireMkdirAll(t, sub)

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(sub); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	_ = os.Unsetenv("SEEDLOAD_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("SEEDLOAD_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("SEEDLOAD_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded from repo root, got %q", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(cfg.Unload)

	assert.Equal(t, "myScheduling Load.xlsx", cfg.Input.ExcelPath)
	assert.Equal(t, "Data", cfg.Input.SheetName)
	assert.Equal(t, "Aleut Federal", cfg.Tenant.Name)
	assert.Equal(t, "aleutfederal.com", cfg.Tenant.EmailDomain)
	assert.Equal(t, "Geoff Vaughan", cfg.Tenant.RootManagerName)
	assert.Equal(t, "admin@admin.com", cfg.Admin.Email)
	assert.Equal(t, 500, cfg.Batch.AssignmentPageSize)
	assert.Equal(t, 2000, cfg.Batch.ActualsPageSize)
	assert.NotNil(t, cfg.Logger())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("ACTUALS_PAGE_SIZE", "0")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ActualsPageSize")
}

func TestConfiguration_DatabaseOverride(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "Host=db.internal;Database=sched;Username=loader;Password=s3cret")
	t.Setenv("APPSETTINGS_PATH", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(cfg.Unload)

	db, err := cfg.Database()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, "sched", db.Name)
}

func TestConfiguration_DatabaseFromAppSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appsettings.Development.json")
	requireWriteFile(t, path, `{"ConnectionStrings":{"DefaultConnection":"Host=localhost;Port=5433;Database=myscheduling;Username=postgres;Password=pw;SSL Mode=Disable"}}`)
	t.Setenv("APPSETTINGS_PATH", path)
	t.Setenv("DB_CONNECTION_STRING", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(cfg.Unload)

	db, err := cfg.Database()
	require.NoError(t, err)
	assert.Equal(t, 5433, db.Port)
	assert.Equal(t, "disable", db.SSLMode)
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
