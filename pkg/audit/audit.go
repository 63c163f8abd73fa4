// Package audit is the external reference validator. It re-reads a written
// artifact and checks it from the stored bytes alone, with its own rule
// implementations, so its verdict can be compared with the embedded
// checker's.
package audit

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/adammathes/tagverify/internal/logging"
	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

// Observer receives every finished audit report.
type Observer interface {
	Observe(version document.Version, r *report.Report)
}

// Options configures an audit run.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
}

// auditor carries the state of one run.
type auditor struct {
	doc *document.Document
	r   *report.Report
	log *slog.Logger

	roles  map[document.NodeID]string
	owners map[document.MCR]document.NodeID
}

// File audits the artifact at path.
func File(path string, opts Options) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Reader(f, opts)
}

// Reader audits an artifact read from r.
func Reader(r io.Reader, opts Options) (*report.Report, error) {
	doc, err := document.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	return run(doc, opts), nil
}

// Document writes doc out and audits what was written, so values that did
// not survive encoding are not seen.
func Document(doc *document.Document, opts Options) (*report.Report, error) {
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("audit: writing artifact: %w", err)
	}
	return Reader(&buf, opts)
}

func run(doc *document.Document, opts Options) *report.Report {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	a := &auditor{
		doc:    doc,
		r:      report.NewReport(),
		log:    log,
		roles:  make(map[document.NodeID]string),
		owners: make(map[document.MCR]document.NodeID),
	}
	a.check()
	log.Debug("audit done", "standard", doc.Version.String(), "valid", a.r.IsValid())
	if opts.Observer != nil {
		opts.Observer.Observe(doc.Version, a.r)
	}
	return a.r
}

func (a *auditor) check() {
	if fatal := a.checkTree(); fatal {
		return
	}
	if fatal := a.checkStreams(); fatal {
		return
	}
	a.checkCatalog()
	a.checkAnnotations()
	a.checkInfo()
	a.checkFiles()
	a.checkEncryption()
	a.checkForm()
}

func (a *auditor) add(checkID, location string) {
	a.r.Add(checkID, report.Finalization, location)
}

// addBecause records a message whose condition the embedded checker is
// known to judge differently.
func (a *auditor) addBecause(checkID, location, reason string) {
	a.r.Append(report.New(checkID, report.Finalization, location).Because(reason))
}

func (a *auditor) checkCatalog() {
	if a.doc.Lang != nil && hasPrivateUse(stored(*a.doc.Lang)) {
		a.add(report.PUAInLang, "catalog Lang")
	}
}

func (a *auditor) checkAnnotations() {
	for i, annot := range a.doc.Annotations {
		for _, f := range annot.TextFields() {
			if hasPrivateUse(stored(*f.Value)) {
				a.add(report.PUAInAnnotation, fmt.Sprintf("annotation %d %s", i, f.Name))
			}
		}
	}
}

func (a *auditor) checkInfo() {
	keys := make([]string, 0, len(a.doc.Info))
	for k := range a.doc.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if hasPrivateUse(stored(a.doc.Info[k])) {
			a.addBecause(report.PUAInInfo, "info "+k, report.ReasonInfoString)
		}
	}
}

func (a *auditor) checkFiles() {
	for _, fs := range a.doc.FileSpecs {
		if fs.EF == nil {
			a.add(report.FileSpecNoEF, "file "+fs.Name)
		}
		if fs.UF == nil {
			a.add(report.FileSpecNoUF, "file "+fs.Name)
		}
	}
}

// accessibilityBit is bit 10 of the P entry.
const accessibilityBit = 1 << 9

func (a *auditor) checkEncryption() {
	if e := a.doc.Encryption; e != nil && e.Permissions&accessibilityBit == 0 {
		a.add(report.PermissionBitMissing, "encryption")
	}
}

func (a *auditor) checkForm() {
	if f := a.doc.Form; f != nil && f.NeedsRendering {
		a.add(report.DynamicForm, "form")
	}
}
