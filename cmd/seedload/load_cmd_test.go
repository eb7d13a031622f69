package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/modules/staffing/reconcile"
	"github.com/myscheduling/seedload/pkg/configuration"
)

const csvHeader = "Employee_Id,Employee_Name,Manager_ID,Active_Flag,Business_Unit,Hire_date,Termination_date,Project_ID,Project_Name,Hours_Date,Entered_Hours,Pay_Type,Pay_Type_Name"

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "load.csv")
	content := strings.Join(append([]string{csvHeader}, lines...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *configuration.Configuration {
	t.Helper()
	t.Setenv("LOG_LEVEL", "silent")
	t.Setenv("EMAIL_DOMAIN", "example.com")
	t.Setenv("METRICS_TEXTFILE", "")
	cfg, err := configuration.Load(nil)
	require.NoError(t, err)
	t.Cleanup(cfg.Unload)
	return cfg
}

var sampleRows = []string{
	`1,"Lee, Ann",,Y,Ops,2020-01-01,,100.20,Alpha,2025-01-06,4,REG,Regular`,
	`2,"Ray, Bob",1,Y,Ops,2020-01-01,,100.20,Alpha,2025-01-07,6,REG,Regular`,
	`2,"Ray, Bob",1,Y,Ops,2020-01-01,,200,Beta,2025-01-07,2,REG,Regular`,
}

func TestRunLoad_MissingFile(t *testing.T) {
	cfg := testConfig(t)
	var stdout, stderr bytes.Buffer

	err := runLoad(context.Background(), cfg, &stdout, &stderr, loadOptions{
		path:   filepath.Join(t.TempDir(), "nope.xlsx"),
		output: outputText,
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Contains(t, err.Error(), "Excel file not found")
	assert.Empty(t, stdout.String())
}

func TestRunLoad_UnsupportedOutput(t *testing.T) {
	cfg := testConfig(t)
	err := runLoad(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{}, loadOptions{
		path:   writeInput(t, sampleRows...),
		output: "yaml",
	})
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRunLoad_DryRunText(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t, sampleRows...)
	var stdout, stderr bytes.Buffer

	require.NoError(t, runLoad(context.Background(), cfg, &stdout, &stderr, loadOptions{
		path:   path,
		dryRun: true,
		output: outputText,
	}))

	out := stdout.String()
	assert.Contains(t, out, "Reading data from "+path+" ...")
	assert.Contains(t, out, "Employees: 2, Projects: 2, WBS: 2, Assignments: 3, Actual rows: 3")
	assert.Contains(t, out, "Hours: 12")
	assert.Contains(t, out, "Dry run complete")
	assert.Contains(t, out, "assignments")
	assert.Contains(t, out, "1 employees loaded as roots")
}

func TestRunLoad_DryRunJSONWithManifestAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t, sampleRows...)
	dir := t.TempDir()
	manifest := filepath.Join(dir, "out", "manifest.json")
	metricsFile := filepath.Join(dir, "metrics", "seedload.prom")
	var stdout, stderr bytes.Buffer

	require.NoError(t, runLoad(context.Background(), cfg, &stdout, &stderr, loadOptions{
		path:        path,
		dryRun:      true,
		output:      outputJSON,
		manifest:    manifest,
		metricsFile: metricsFile,
	}))

	assert.Contains(t, stderr.String(), "Reading data from")

	var summary loadSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, statusDryRun, summary.Status)
	require.NotNil(t, summary.Report)
	assert.Equal(t, 2, summary.Report.UsersUpserted)
	assert.Equal(t, 1, summary.Report.ManagersLinked)
	assert.Equal(t, int64(3), summary.Report.AssignmentsInserted)
	assert.Equal(t, int64(3), summary.Report.FactsInserted)

	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var fromFile loadSummary
	require.NoError(t, json.Unmarshal(raw, &fromFile))
	assert.Equal(t, summary.Report.RunID, fromFile.Report.RunID)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `seedload_entities_built{kind="employees"} 2`)
	assert.Contains(t, string(prom), "seedload_last_run_failed 0")
}

func TestRunLoad_StrictRollsBack(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t,
		`1,"Lee, Ann",99,Y,Ops,2020-01-01,,100.20,Alpha,2025-01-06,4,REG,Regular`,
	)
	var stdout bytes.Buffer

	err := runLoad(context.Background(), cfg, &stdout, &bytes.Buffer{}, loadOptions{
		path:   path,
		dryRun: true,
		strict: true,
		output: outputText,
	})
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, stdout.String(), "Error, rolled back:")
	assert.NotContains(t, stdout.String(), "Written")
}

func TestRunLoad_RolledBackManifestHasNoWrites(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t,
		`1,"Lee, Ann",99,Y,Ops,2020-01-01,,100.20,Alpha,2025-01-06,4,REG,Regular`,
	)
	manifest := filepath.Join(t.TempDir(), "manifest.json")

	err := runLoad(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{}, loadOptions{
		path:     path,
		dryRun:   true,
		strict:   true,
		output:   outputText,
		manifest: manifest,
	})
	require.ErrorIs(t, err, domain.ErrUnresolvedReference)

	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var summary loadSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, statusRolledBack, summary.Status)
	assert.Contains(t, summary.Error, "unresolved reference")
	require.NotNil(t, summary.Report)
	assert.False(t, summary.Report.Committed)
	assert.Equal(t, 1, summary.Report.Built.Employees)
	assert.Equal(t, 1, summary.Report.UnresolvedManagers)
	assert.Zero(t, summary.Report.UsersUpserted)
	assert.Zero(t, summary.Report.ProjectsUpserted)
	assert.Zero(t, summary.Report.FactsInserted)
}

func TestRunLoad_ManifestFailureKeepsRollbackExitCode(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t,
		`1,"Lee, Ann",99,Y,Ops,2020-01-01,,100.20,Alpha,2025-01-06,4,REG,Regular`,
	)
	blocker := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	var stderr bytes.Buffer

	err := runLoad(context.Background(), cfg, &bytes.Buffer{}, &stderr, loadOptions{
		path:     path,
		dryRun:   true,
		strict:   true,
		output:   outputText,
		manifest: filepath.Join(blocker, "out", "manifest.json"),
	})
	require.ErrorIs(t, err, domain.ErrUnresolvedReference)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, stderr.String(), "mkdir")
}

func TestRunLoad_ManifestFailureOnCommittedRun(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := runLoad(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{}, loadOptions{
		path:     writeInput(t, sampleRows...),
		dryRun:   true,
		output:   outputText,
		manifest: filepath.Join(blocker, "manifest.json"),
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRunLoad_InvalidInput(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t,
		`1,"Lee, Ann",,Y,Ops,2020-01-01,,100.20,Alpha,2025-01-06,lots,REG,Regular`,
	)

	err := runLoad(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{}, loadOptions{
		path:   path,
		dryRun: true,
		output: outputText,
	})
	require.ErrorIs(t, err, domain.ErrInvalidHours)
	assert.Equal(t, exitValidation, exitCode(err))
}

func TestReconcileExitCode(t *testing.T) {
	assert.Equal(t, exitDB, reconcileExitCode(&reconcile.StageError{Stage: reconcile.StageSchema, Err: errors.New("x")}))
	assert.Equal(t, exitDBWrite, reconcileExitCode(&reconcile.StageError{Stage: reconcile.StageReconcile, Err: errors.New("x")}))
	assert.Equal(t, exitValidation, reconcileExitCode(&reconcile.StageError{
		Stage: reconcile.StageReconcile,
		Err:   errors.Wrap(domain.ErrUnresolvedReference, "strict"),
	}))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, exitDB, exitCode(withCode(exitDB, errors.New("boom"))))
	assert.Nil(t, withCode(exitDB, nil))
}
