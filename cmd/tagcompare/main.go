// Command tagcompare runs the embedded checker and the independent audit
// against a directory of synthetic artifacts and compares the results to
// find discrepancies.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adammathes/tagverify/pkg/audit"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/validate"
)

// --- manifest types (shared with tagfuzz) ---

type Fault struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ArtifactSpec struct {
	ID          int     `json:"id"`
	Version     string  `json:"version"`
	Faults      []Fault `json:"faults"`
	Filename    string  `json:"filename"`
	NumSections int     `json:"num_sections"`
}

// --- discrepancy ---

type Discrepancy struct {
	Artifact         string   `json:"artifact"`
	Faults           []string `json:"faults"`
	Version          string   `json:"version"`
	Type             string   `json:"type"`
	InternalValid    bool     `json:"internal_valid"`
	ExternalValid    bool     `json:"external_valid"`
	Explained        bool     `json:"explained"`
	Detail           string   `json:"detail"`
	InternalErrors   []string `json:"internal_errors,omitempty"`
	ExternalErrors   []string `json:"external_errors,omitempty"`
	InternalOnlyIDs  []string `json:"internal_only_check_ids,omitempty"`
	ExternalOnlyIDs  []string `json:"external_only_check_ids,omitempty"`
	UnexplainedDiffs []string `json:"unexplained,omitempty"`
}

// runInternal validates the artifact with the embedded checker. Panics are
// reported as errors so one bad artifact does not end the run.
func runInternal(path string) (r *report.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return validate.ValidateFile(path, validate.Options{})
}

func runExternal(path string) (r *report.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return audit.File(path, audit.Options{})
}

func failureStrings(r *report.Report) []string {
	var out []string
	for _, m := range r.Messages {
		if m.Severity == report.Fatal || m.Severity == report.Error {
			out = append(out, m.String())
		}
	}
	return out
}

func main() {
	synthDir := "testdata/synthetic"
	if len(os.Args) > 1 {
		synthDir = os.Args[1]
	}

	// Load manifest
	manifestData, err := os.ReadFile(filepath.Join(synthDir, "manifest.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read manifest: %v\n", err)
		os.Exit(1)
	}

	var specs []ArtifactSpec
	if err := json.Unmarshal(manifestData, &specs); err != nil {
		fmt.Fprintf(os.Stderr, "parse manifest: %v\n", err)
		os.Exit(1)
	}

	var discrepancies []Discrepancy
	validityMatches := 0
	validityMismatches := 0
	internalCrashes := 0
	externalCrashes := 0
	unexplained := 0

	for _, spec := range specs {
		path := filepath.Join(synthDir, spec.Filename)
		faultNames := make([]string, len(spec.Faults))
		for i, f := range spec.Faults {
			faultNames[i] = f.Name
		}
		faultStr := strings.Join(faultNames, ",")
		if faultStr == "" {
			faultStr = "(valid)"
		}

		fmt.Printf("[%3d] %s %s %s ... ", spec.ID, spec.Filename, spec.Version, faultStr)

		internal, inErr := runInternal(path)
		if inErr != nil {
			fmt.Printf("INTERNAL_CRASH\n")
			internalCrashes++
			unexplained++
			discrepancies = append(discrepancies, Discrepancy{
				Artifact: spec.Filename,
				Faults:   faultNames,
				Version:  spec.Version,
				Type:     "internal_crash",
				Detail:   fmt.Sprintf("embedded checker failed: %v", inErr),
			})
			continue
		}

		external, exErr := runExternal(path)
		if exErr != nil {
			fmt.Printf("EXTERNAL_CRASH\n")
			externalCrashes++
			unexplained++
			discrepancies = append(discrepancies, Discrepancy{
				Artifact: spec.Filename,
				Faults:   faultNames,
				Version:  spec.Version,
				Type:     "external_crash",
				Detail:   fmt.Sprintf("audit failed: %v", exErr),
			})
			continue
		}

		a := report.Compare(internal, external, spec.Version, report.KnownDivergences)
		var open []string
		for _, d := range a.Unexplained() {
			open = append(open, fmt.Sprintf("%s %s", d.Side, d.Message))
		}
		if len(open) > 0 {
			unexplained++
		}

		disc := Discrepancy{
			Artifact:         spec.Filename,
			Faults:           faultNames,
			Version:          spec.Version,
			InternalValid:    a.InternalValid,
			ExternalValid:    a.ExternalValid,
			Explained:        a.Agrees(),
			InternalErrors:   failureStrings(internal),
			ExternalErrors:   failureStrings(external),
			InternalOnlyIDs:  a.OnlyOn(report.InternalOnly),
			ExternalOnlyIDs:  a.OnlyOn(report.ExternalOnly),
			UnexplainedDiffs: open,
		}

		if a.InternalValid == a.ExternalValid {
			validityMatches++
			fmt.Printf("MATCH valid=%v", a.InternalValid)

			// Even when matching, track check differences for invalid artifacts
			if len(a.Differences) > 0 {
				disc.Type = "check_difference"
				disc.Detail = "Both invalid, but different checks flagged"
				discrepancies = append(discrepancies, disc)
				fmt.Printf(" (%d differences, explained=%v)", len(a.Differences), disc.Explained)
			}
			fmt.Println()
		} else {
			validityMismatches++
			disc.Type = "internal_only_failure" // checker says invalid, audit says valid
			if a.InternalValid {
				disc.Type = "external_only_failure" // checker says valid, audit says invalid
			}
			disc.Detail = fmt.Sprintf("internal=%v external=%v", a.InternalValid, a.ExternalValid)
			discrepancies = append(discrepancies, disc)
			fmt.Printf("MISMATCH internal=%v external=%v (%s, explained=%v)\n",
				a.InternalValid, a.ExternalValid, disc.Type, disc.Explained)
		}
	}

	// Write detailed results
	resultsPath := filepath.Join(synthDir, "comparison_results.json")
	data, _ := json.MarshalIndent(discrepancies, "", "  ")
	if err := os.WriteFile(resultsPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write results: %v\n", err)
	}

	// Print summary
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Println("                   SUMMARY")
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("Total artifacts tested: %d\n", len(specs))
	fmt.Printf("Validity matches:       %d\n", validityMatches)
	fmt.Printf("Validity mismatches:    %d\n", validityMismatches)
	fmt.Printf("Checker crashes:        %d\n", internalCrashes)
	fmt.Printf("Audit crashes:          %d\n", externalCrashes)
	fmt.Printf("Unexplained artifacts:  %d\n", unexplained)
	fmt.Println()

	// Count by type
	typeCounts := map[string]int{}
	for _, d := range discrepancies {
		typeCounts[d.Type]++
	}
	fmt.Println("Discrepancy breakdown:")
	types := []string{"external_only_failure", "internal_only_failure", "check_difference", "internal_crash", "external_crash"}
	for _, t := range types {
		if c, ok := typeCounts[t]; ok {
			fmt.Printf("  %-24s %d\n", t+":", c)
		}
	}

	// Unexplained differences are the ones worth a bug report.
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Println("  UNEXPLAINED DIFFERENCES")
	fmt.Println("═══════════════════════════════════════════════════")
	for _, d := range discrepancies {
		if d.Explained {
			continue
		}
		fmt.Printf("\n  %s (%s, faults: %s)\n", d.Artifact, d.Version, strings.Join(d.Faults, ", "))
		if d.Detail != "" && len(d.UnexplainedDiffs) == 0 {
			fmt.Printf("    - %s\n", d.Detail)
		}
		for _, e := range d.UnexplainedDiffs {
			fmt.Printf("    - %s\n", e)
		}
	}

	fmt.Printf("\nDetailed results: %s\n", resultsPath)
	if unexplained > 0 {
		os.Exit(1)
	}
}
