// Package doctor implements an artifact repair mode ("doctor") that applies
// safe, mechanical fixes for violations that have exactly one correct
// repair.
//
// The approach:
//  1. Open the artifact and validate it strictly
//  2. Apply the fixes below to the in-memory document
//  3. Write a new artifact with all fixes applied
//  4. Re-validate the output to confirm the fixes worked
//
// Fixes:
//   - STR-002: unbalanced marked content. Stray closes are dropped and
//     open tags are closed at the end of their stream
//   - STR-004: repairable parent/child relations. The child is retagged
//     as Span by the checker's own repair
//   - FIL-002: file specification without UF. The F name is stored as a
//     UTF-16 unicode file name
//   - PRM-001: encrypted without the accessibility permission. Bit 10 of
//     P is set
//
// Missing alternative texts, references and dynamic forms need an author
// and are left alone.
package doctor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/validate"
)

// Result holds the outcome of a doctor run.
type Result struct {
	Fixes        []report.Fix
	BeforeReport *report.Report
	AfterReport  *report.Report
	OutputPath   string
}

// Repair opens an artifact, applies fixes, and writes the repaired version.
// If outputPath is empty, it writes next to inputPath with a ".fixed"
// suffix before the extension.
func Repair(inputPath, outputPath string, opts validate.Options) (*Result, error) {
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + ".fixed" + ext
	}
	strict := opts
	strict.Strict = true

	// Step 1: Open and validate original
	doc, err := document.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	beforeReport, err := validate.ValidateFile(inputPath, strict)
	if err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}
	if beforeReport.IsValid() {
		return &Result{BeforeReport: beforeReport, AfterReport: beforeReport}, nil
	}

	// Step 2: Apply fixes
	var allFixes []report.Fix
	allFixes = append(allFixes, fixUnbalancedContent(doc)...)
	allFixes = append(allFixes, fixUnicodeFileNames(doc)...)
	allFixes = append(allFixes, fixAccessibilityPermission(doc)...)

	// Relation repairs come from the checker itself, run without Strict.
	relaxed := opts
	relaxed.Strict = false
	relaxed.Observer = nil
	allFixes = append(allFixes, validate.Validate(doc, relaxed).Fixes...)

	if len(allFixes) == 0 {
		return &Result{BeforeReport: beforeReport, AfterReport: beforeReport}, nil
	}

	// Step 3: Write repaired artifact
	if err := writeArtifact(outputPath, doc); err != nil {
		return nil, fmt.Errorf("writing repaired artifact: %w", err)
	}

	// Step 4: Re-validate to confirm
	afterReport, err := validate.ValidateFile(outputPath, strict)
	if err != nil {
		return nil, fmt.Errorf("validating repaired artifact: %w", err)
	}

	return &Result{
		Fixes:        allFixes,
		BeforeReport: beforeReport,
		AfterReport:  afterReport,
		OutputPath:   outputPath,
	}, nil
}

// fixUnbalancedContent drops closes with nothing open and closes tags left
// open at the end of a stream. Fixes STR-002.
func fixUnbalancedContent(doc *document.Document) []report.Fix {
	var fixes []report.Fix
	for _, s := range doc.Streams {
		depth, dropped := 0, 0
		ops := s.Ops[:0:0]
		for _, op := range s.Ops {
			switch op.Op {
			case document.OpBeginTag:
				depth++
			case document.OpEndTag:
				if depth == 0 {
					dropped++
					continue
				}
				depth--
			}
			ops = append(ops, op)
		}
		for i := 0; i < depth; i++ {
			ops = append(ops, document.Operator{Op: document.OpEndTag})
		}
		if dropped == 0 && depth == 0 {
			continue
		}
		s.Ops = ops
		fixes = append(fixes, report.Fix{
			CheckID:     report.UnbalancedTags,
			Description: fmt.Sprintf("Removed %d stray EMC and closed %d open tags", dropped, depth),
			Location:    report.StreamLocation(s.ID, s.Page),
		})
	}
	return fixes
}

// fixUnicodeFileNames adds a UF entry built from F. Fixes FIL-002.
func fixUnicodeFileNames(doc *document.Document) []report.Fix {
	var fixes []report.Fix
	for i := range doc.FileSpecs {
		fs := &doc.FileSpecs[i]
		if fs.UF != nil || fs.Name == "" {
			continue
		}
		uf := document.NewTextString(fs.Name, document.UTF16BE)
		fs.UF = &uf
		fixes = append(fixes, report.Fix{
			CheckID:     report.FileSpecNoUF,
			Description: fmt.Sprintf("Added UF entry %q", fs.Name),
			Location:    "file " + fs.Name,
		})
	}
	return fixes
}

// fixAccessibilityPermission grants content extraction for accessibility.
// Fixes PRM-001.
func fixAccessibilityPermission(doc *document.Document) []report.Fix {
	e := doc.Encryption
	if e == nil || e.HasPermission(document.PermExtractForAccessibility) {
		return nil
	}
	e.Permissions |= 1 << (document.PermExtractForAccessibility - 1)
	return []report.Fix{{
		CheckID:     report.PermissionBitMissing,
		Description: fmt.Sprintf("Set permission bit %d (P is now %d)", document.PermExtractForAccessibility, e.Permissions),
		Location:    "encryption",
	}}
}
