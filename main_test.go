package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adammathes/tagverify/pkg/report"
)

func run(t *testing.T, args ...string) int {
	t.Helper()
	exitStatus = 0
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return exitStatus
}

func TestStatusFor(t *testing.T) {
	r := report.NewReport()
	assert.Equal(t, 0, statusFor(r))
	r.Add(report.AltMissing, report.Finalization, "node 1 (Figure)")
	assert.Equal(t, 1, statusFor(r))
	r.Add(report.UnbalancedTags, report.Finalization, "stream 0 page 1")
	assert.Equal(t, 2, statusFor(r))
}

func TestValidateCommand(t *testing.T) {
	assert.Equal(t, 0, run(t, "validate", "testdata/fixtures/conforming.yaml"))
	assert.Equal(t, 1, run(t, "validate", "testdata/fixtures/broken.yaml"))
}

func TestAuditAndCompareCommands(t *testing.T) {
	assert.Equal(t, 1, run(t, "audit", "testdata/fixtures/broken.yaml"))
	assert.Equal(t, 0, run(t, "compare", "testdata/fixtures/broken.yaml"))
}

func TestJSONReportFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	run(t, "validate", "--json", out, "testdata/fixtures/broken.yaml")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"check_id": "PRM-001"`)
	rootCmd.PersistentFlags().Set("json", "")
}

func TestDoctorCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "fixed.yaml")
	status := run(t, "doctor", "-o", out, "testdata/fixtures/broken.yaml")
	assert.Equal(t, 1, status, "the Figure still lacks alternate text")
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestBadConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("standard: UA-9\n"), 0o644))
	rootCmd.SetArgs([]string{"validate", "--config", path, "testdata/fixtures/conforming.yaml"})
	assert.Error(t, rootCmd.Execute())
	rootCmd.PersistentFlags().Set("config", "")
}
