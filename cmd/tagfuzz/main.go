// Command tagfuzz generates randomized synthetic artifacts with potential
// conformance failures for testing the embedded checker against the audit.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adammathes/tagverify/pkg/document"
)

// Fault describes a single mutation applied to a generated artifact.
type Fault struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ArtifactSpec describes the parameters used to generate an artifact.
type ArtifactSpec struct {
	ID          int     `json:"id"`
	Version     string  `json:"version"` // "UA-1" or "UA-2"
	Faults      []Fault `json:"faults"`
	Filename    string  `json:"filename"`
	NumSections int     `json:"num_sections"`
}

// faultFunc is a function that mutates an artifact builder to inject a fault.
type faultFunc struct {
	name        string
	description string
	apply       func(b *artifactBuilder, rng *rand.Rand)
	weight      int      // relative probability weight
	excludes    []string // faults that cannot be combined with this one
	ua2Only     bool
}

var allFaults = []faultFunc{
	// === Alternative text ===
	{
		name:        "figure_without_alt",
		description: "Tag a figure without Alt or ActualText",
		weight:      4,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.figureAlt = nil },
		excludes:    []string{"figure_empty_alt"},
	},
	{
		name:        "figure_empty_alt",
		description: "Give a figure an empty Alt",
		weight:      3,
		apply: func(b *artifactBuilder, rng *rand.Rand) {
			empty := ""
			b.figureAlt = &empty
		},
		excludes: []string{"figure_without_alt"},
	},
	{
		name:        "custom_formula_role",
		description: "Add a custom role mapped to Formula through a chain, without Alt",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.customFormula = true },
	},
	// === Table of contents ===
	{
		name:        "toci_without_ref",
		description: "Leave the TOCI's Reference without a Ref",
		weight:      3,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.tociRef = false },
		excludes:    []string{"toci_ref_in_artifact"},
		ua2Only:     true,
	},
	{
		name:        "toci_ref_in_artifact",
		description: "Carry the TOCI's only Ref inside an Artifact",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.tociRefInArtifact = true },
		excludes:    []string{"toci_without_ref"},
		ua2Only:     true,
	},
	// === Embedded files ===
	{
		name:        "filespec_without_ef",
		description: "Embed a file specification with no EF stream",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.fileEF = false },
	},
	{
		name:        "filespec_without_uf",
		description: "Embed a file specification with no UF name",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.fileUF = false },
	},
	// === Private use code points ===
	{
		name:        "lang_pua_single_byte",
		description: "Put a private use code point in a single-byte encoded Lang",
		weight:      2,
		apply: func(b *artifactBuilder, rng *rand.Rand) {
			b.langPUA = true
			b.langEncoding = document.SingleByte
		},
		excludes: []string{"lang_pua_utf16"},
	},
	{
		name:        "lang_pua_utf16",
		description: "Put a private use code point in a UTF-16 Lang",
		weight:      2,
		apply: func(b *artifactBuilder, rng *rand.Rand) {
			b.langPUA = true
			b.langEncoding = document.UTF16BE
		},
		excludes: []string{"lang_pua_single_byte"},
	},
	{
		name:        "annotation_pua",
		description: "Put a private use code point in an annotation's Contents",
		weight:      2,
		apply: func(b *artifactBuilder, rng *rand.Rand) {
			b.annotationPUA = true
			b.annotationEncoding = []document.Encoding{document.SingleByte, document.UTF8, document.UTF16BE}[rng.Intn(3)]
		},
	},
	{
		name:        "info_pua",
		description: "Put a private use code point in the document information Title",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.infoPUA = true },
	},
	{
		name:        "content_pua_uncovered",
		description: "Paint private use text in a paragraph without ActualText",
		weight:      3,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.contentPUA = true },
	},
	{
		name:        "content_pua_bytes",
		description: "Paint private use text as an encoded byte array",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.bytesPUA = true },
	},
	// === Structure ===
	{
		name:        "role_mapping_cycle",
		description: "Map two custom roles onto each other and use one",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.roleCycle = true },
	},
	{
		name:        "unterminated_tag",
		description: "Leave a marked content sequence open at the end of the stream",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.unterminated = true },
		excludes:    []string{"stray_emc", "unresolved_mcid"},
	},
	{
		name:        "stray_emc",
		description: "Close a marked content sequence that was never opened",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.strayEMC = true },
		excludes:    []string{"unterminated_tag", "unresolved_mcid"},
	},
	{
		name:        "unresolved_mcid",
		description: "Open a marked content sequence with an MCID no element claims",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.orphanMCID = true },
		excludes:    []string{"unterminated_tag", "stray_emc"},
	},
	{
		name:        "nested_list_items",
		description: "Nest an LI directly inside an LI",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.nestedLI = true },
	},
	{
		name:        "nested_paragraphs",
		description: "Nest a P directly inside a P (repairable)",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.nestedP = true },
	},
	{
		name:        "nested_same_level_headings",
		description: "Nest an H2 directly inside an H2 (repairable)",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.nestedHeadings = true },
	},
	// === Document level ===
	{
		name:        "permission_bit_missing",
		description: "Encrypt without the accessibility extraction permission",
		weight:      2,
		apply: func(b *artifactBuilder, rng *rand.Rand) {
			b.encrypt = true
			b.permissions = -3904
		},
	},
	{
		name:        "dynamic_form",
		description: "Add an XFA form with NeedsRendering",
		weight:      2,
		apply:       func(b *artifactBuilder, rng *rand.Rand) { b.dynamicForm = true },
	},
}

type artifactBuilder struct {
	version     document.Version
	numSections int

	figureAlt     *string
	customFormula bool

	tociRef           bool
	tociRefInArtifact bool

	fileEF bool
	fileUF bool

	langPUA            bool
	langEncoding       document.Encoding
	annotationPUA      bool
	annotationEncoding document.Encoding
	infoPUA            bool
	contentPUA         bool
	bytesPUA           bool

	roleCycle      bool
	unterminated   bool
	strayEMC       bool
	orphanMCID     bool
	nestedLI       bool
	nestedP        bool
	nestedHeadings bool

	encrypt     bool
	permissions int32
	dynamicForm bool
}

func newBuilder(version document.Version, numSections int) *artifactBuilder {
	alt := "Chart of quarterly results"
	return &artifactBuilder{
		version:      version,
		numSections:  numSections,
		figureAlt:    &alt,
		tociRef:      true,
		fileEF:       true,
		fileUF:       true,
		langEncoding: document.UTF16BE,
		permissions:  -3904 | 1<<9,
	}
}

// writer emits marked content for the current cursor node.
type writer struct {
	cur *document.Cursor
	s   *document.ContentStream
}

func (w writer) tagged(op document.Operator) {
	ref := w.cur.TagReference(w.s)
	mcid := ref.MCID
	w.s.Append(document.Operator{Op: document.OpBeginTag, Tag: ref.Role, MCID: &mcid})
	w.s.Append(op)
	w.s.Append(document.Operator{Op: document.OpEndTag})
}

func (w writer) text(s string) {
	w.tagged(document.Operator{Op: document.OpShowText, Text: s})
}

func (b *artifactBuilder) build() *document.Document {
	d := document.New(b.version)

	lang := "en-US"
	if b.langPUA {
		lang += "\uE000"
	}
	d.SetLang(lang, b.langEncoding)

	title := "Quarterly Report"
	if b.infoPUA {
		title += " \uE0B0"
	}
	d.Info = map[string]document.TextString{
		"Title":    document.NewTextString(title, document.UTF16BE),
		"Producer": document.NewTextString("tagfuzz", document.SingleByte),
	}

	tree := d.Tree
	s := d.AddStream(1)
	cur := tree.Cursor()
	w := writer{cur: cur, s: s}

	// Title heading, the target of the table of contents.
	cur.AddTag("H1")
	heading := cur.CreateReference()
	w.text(title)
	if b.nestedHeadings {
		cur.MoveToRoot()
		cur.AddTag("H2")
		w.text("Overview")
		cur.AddTag("H2")
		w.text("Details")
	}
	cur.MoveToRoot()

	// Table of contents.
	cur.AddTag("TOC").AddTag("TOCI")
	if b.tociRefInArtifact {
		cur.AddTag("Artifact").AddTag("Reference")
		cur.AddRef(heading)
		cur.MoveToParent()
		cur.MoveToParent()
		cur.AddTag("Reference")
	} else {
		cur.AddTag("Reference")
		if b.tociRef {
			cur.AddRef(heading)
		}
	}
	w.text("Quarterly Report")
	cur.MoveToRoot()

	for i := 0; i < b.numSections; i++ {
		cur.AddTag("Sect")
		cur.AddTag("P")
		w.text("Section " + strconv.Itoa(i+1) + " body text.")
		if i == 0 && b.nestedP {
			cur.AddTag("P")
			w.text("Nested paragraph.")
			cur.MoveToParent()
		}
		cur.MoveToParent()
		if i == 0 {
			cur.AddTag("Figure")
			if b.figureAlt != nil {
				cur.SetAlt(*b.figureAlt)
			}
			w.tagged(document.Operator{Op: document.OpDraw, Name: "Im1"})
			cur.MoveToParent()
		}
		cur.MoveToRoot()
	}

	if b.customFormula {
		tree.MapRole("Equation", "MathBlock")
		tree.MapRole("MathBlock", "Formula")
		cur.AddTag("Equation")
		w.tagged(document.Operator{Op: document.OpShowGlyphs, Glyphs: []document.Glyph{{ID: 7, Unicode: "E=mc2"}}})
		cur.MoveToRoot()
	}

	if b.contentPUA {
		cur.AddTag("P")
		w.text("Icon \uE001 legend")
		cur.MoveToRoot()
	}

	if b.bytesPUA {
		cur.AddTag("P")
		w.tagged(document.Operator{Op: document.OpShowBytes, Bytes: document.HexBytes("\uE002")})
		cur.MoveToRoot()
	}

	cur.AddTag("L").AddTag("LI")
	w.text("First item")
	if b.nestedLI {
		cur.AddTag("LI")
		w.text("Nested item")
	}
	cur.MoveToRoot()

	if b.roleCycle {
		tree.MapRole("Loop", "Back")
		tree.MapRole("Back", "Loop")
		cur.AddTag("Loop")
		cur.MoveToRoot()
	}

	switch {
	case b.unterminated:
		s.Append(document.Operator{Op: document.OpBeginTag, Tag: "Span"})
	case b.strayEMC:
		s.Append(document.Operator{Op: document.OpEndTag})
	case b.orphanMCID:
		mcid := 9999
		s.Append(document.Operator{Op: document.OpBeginTag, Tag: "Span", MCID: &mcid})
		s.Append(document.Operator{Op: document.OpEndTag})
	}

	contents := document.NewTextString("Reviewer note", b.annotationEncoding)
	if b.annotationPUA {
		contents = document.NewTextString("Reviewer note \uF000", b.annotationEncoding)
	}
	d.Annotations = []document.Annotation{{Subtype: "Text", Page: 1, Contents: &contents}}

	fs := document.FileSpec{Name: "results.csv", Description: "Source data"}
	if b.fileEF {
		fs.EF = &document.EmbeddedFile{Subtype: "text/csv", Data: document.HexBytes("q,revenue\n1,100\n")}
	}
	if b.fileUF {
		uf := document.NewTextString("results.csv", document.UTF16BE)
		fs.UF = &uf
	}
	d.FileSpecs = []document.FileSpec{fs}

	if b.encrypt {
		d.Encryption = &document.Encryption{Filter: "Standard", Algorithm: "AESV3", Permissions: b.permissions}
	}
	if b.dynamicForm {
		d.Form = &document.Form{Fields: 3, XFA: true, NeedsRendering: true}
	}
	return d
}

func generateArtifact(id int, rng *rand.Rand) (*ArtifactSpec, *document.Document) {
	// Pick version: 50% UA-1, 50% UA-2
	version := document.UA1
	if rng.Float64() < 0.5 {
		version = document.UA2
	}
	numSections := 1 + rng.Intn(4)
	b := newBuilder(version, numSections)

	// 15% valid (0 faults), 35% 1 fault, 30% 2 faults, 15% 3 faults, 5% 4 faults
	r := rng.Float64()
	var numFaults int
	switch {
	case r < 0.15:
		numFaults = 0
	case r < 0.50:
		numFaults = 1
	case r < 0.80:
		numFaults = 2
	case r < 0.95:
		numFaults = 3
	default:
		numFaults = 4
	}

	var applicable []faultFunc
	for _, f := range allFaults {
		if f.ua2Only && version != document.UA2 {
			continue
		}
		applicable = append(applicable, f)
	}

	spec := &ArtifactSpec{ID: id, Version: version.String(), NumSections: numSections}

	usedFaults := map[string]bool{}
	for i := 0; i < numFaults; i++ {
		totalWeight := 0
		for _, f := range applicable {
			if !usedFaults[f.name] {
				totalWeight += f.weight
			}
		}
		if totalWeight == 0 {
			break
		}
		pick := rng.Intn(totalWeight)
		cumulative := 0
		for _, f := range applicable {
			if usedFaults[f.name] {
				continue
			}
			cumulative += f.weight
			if pick < cumulative {
				usedFaults[f.name] = true
				for _, x := range f.excludes {
					usedFaults[x] = true
				}
				f.apply(b, rng)
				spec.Faults = append(spec.Faults, Fault{Name: f.name, Description: f.description})
				break
			}
		}
	}

	spec.Filename = fmt.Sprintf("synth_%03d.yaml", id)
	return spec, b.build()
}

func main() {
	count := 100
	outDir := "testdata/synthetic"
	seed := int64(42)

	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "bad count %q\n", os.Args[2])
			os.Exit(1)
		}
		count = n
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", outDir, err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(seed))

	var specs []ArtifactSpec
	for i := 1; i <= count; i++ {
		spec, doc := generateArtifact(i, rng)

		path := filepath.Join(outDir, spec.Filename)
		if err := doc.Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
		specs = append(specs, *spec)

		faultNames := make([]string, len(spec.Faults))
		for j, f := range spec.Faults {
			faultNames[j] = f.Name
		}
		faultStr := "valid (no faults)"
		if len(faultNames) > 0 {
			faultStr = strings.Join(faultNames, ", ")
		}
		fmt.Printf("[%3d] %s %s %dsect: %s\n", i, spec.Filename, spec.Version, spec.NumSections, faultStr)
	}

	manifestPath := filepath.Join(outDir, "manifest.json")
	manifestData, _ := json.MarshalIndent(specs, "", "  ")
	if err := os.WriteFile(manifestPath, manifestData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write manifest: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nGenerated %d artifacts in %s\n", count, outDir)
	fmt.Printf("Manifest: %s\n", manifestPath)
}
