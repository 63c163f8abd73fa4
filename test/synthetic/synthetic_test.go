package synthetic

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/adammathes/tagverify/pkg/audit"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/validate"
)

type artifactSpec struct {
	ID       int    `json:"id"`
	Version  string `json:"version"`
	Filename string `json:"filename"`
	Faults   []struct {
		Name string `json:"name"`
	} `json:"faults"`
}

// TestSyntheticAgreement runs the embedded checker and the audit over
// generated artifacts and requires every difference between them to be a
// known divergence. Artifacts without faults must pass both.
//
// Generate synthetic samples:
//
//	go run ./cmd/tagfuzz testdata/synthetic
//
// Or set SYNTHETIC_SAMPLES_DIR to point at a directory holding a
// manifest.json.
func TestSyntheticAgreement(t *testing.T) {
	dir := os.Getenv("SYNTHETIC_SAMPLES_DIR")
	if dir == "" {
		dir = filepath.Join(findRepoRoot(t), "testdata", "synthetic")
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if os.IsNotExist(err) {
		t.Skipf("no manifest in %s (run tagfuzz first)", dir)
	}
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	var specs []artifactSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		t.Fatalf("parsing manifest: %v", err)
	}

	for _, spec := range specs {
		spec := spec
		t.Run(spec.Filename, func(t *testing.T) {
			path := filepath.Join(dir, spec.Filename)
			internal, err := validate.ValidateFile(path, validate.Options{})
			if err != nil {
				t.Fatalf("validation failed: %v", err)
			}
			external, err := audit.File(path, audit.Options{})
			if err != nil {
				t.Fatalf("audit failed: %v", err)
			}

			a := report.Compare(internal, external, spec.Version, report.KnownDivergences)
			for _, d := range a.Unexplained() {
				t.Errorf("unexplained %s difference: %s", d.Side, d.Message)
			}
			if len(spec.Faults) == 0 && (!internal.IsValid() || !external.IsValid()) {
				t.Errorf("fault-free artifact is invalid (internal=%v external=%v)",
					internal.IsValid(), external.IsValid())
				for _, m := range append(internal.Messages, external.Messages...) {
					t.Logf("  %s", m)
				}
			}
		})
	}
}

// findRepoRoot walks up from the test file location to find the repo root.
func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}
