package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Version is the accessibility standard revision a document claims.
type Version int

const (
	UA1 Version = iota + 1
	UA2
)

func (v Version) String() string {
	switch v {
	case UA1:
		return "UA-1"
	case UA2:
		return "UA-2"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// ParseVersion accepts "UA-1", "UA-2" and the short forms "1", "2".
func ParseVersion(s string) (Version, error) {
	switch s {
	case "UA-1", "ua-1", "UA1", "1":
		return UA1, nil
	case "UA-2", "ua-2", "UA2", "2":
		return UA2, nil
	}
	return 0, fmt.Errorf("unknown standard version %q", s)
}

func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

func (v *Version) UnmarshalYAML(n *yaml.Node) error {
	parsed, err := ParseVersion(n.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Document is a tagged document as seen by the checker: the structure tree,
// its content streams, and the text-bearing locations the rules inspect.
type Document struct {
	Version     Version               `yaml:"standard"`
	Lang        *TextString           `yaml:"lang,omitempty"`
	Info        map[string]TextString `yaml:"info,omitempty"` // document information dictionary
	Tree        *Tree                 `yaml:"structTree"`
	Streams     []*ContentStream      `yaml:"streams,omitempty"`
	Annotations []Annotation          `yaml:"annotations,omitempty"`
	FileSpecs   []FileSpec            `yaml:"fileSpecs,omitempty"`
	Encryption  *Encryption           `yaml:"encryption,omitempty"`
	Form        *Form                 `yaml:"form,omitempty"`
}

// New creates an empty document with a bare structure tree.
func New(v Version) *Document {
	return &Document{
		Version: v,
		Tree:    NewTree(),
	}
}

// AddStream appends a new, empty content stream for page.
func (d *Document) AddStream(page int) *ContentStream {
	s := &ContentStream{ID: len(d.Streams), Page: page}
	d.Streams = append(d.Streams, s)
	return s
}

// Stream returns the content stream with the given id, or nil.
func (d *Document) Stream(id int) *ContentStream {
	if id < 0 || id >= len(d.Streams) {
		return nil
	}
	return d.Streams[id]
}

// SetLang stores the document language tag using enc.
func (d *Document) SetLang(lang string, enc Encoding) {
	ts := NewTextString(lang, enc)
	d.Lang = &ts
}

// Annotation is a page annotation with its textual fields.
type Annotation struct {
	Subtype  string      `yaml:"subtype"`
	Page     int         `yaml:"page"`
	Contents *TextString `yaml:"contents,omitempty"`
	Title    *TextString `yaml:"title,omitempty"`
	AltName  *TextString `yaml:"tu,omitempty"`
}

// TextField is a named text value inside an annotation.
type TextField struct {
	Name  string
	Value *TextString
}

// TextFields returns the populated textual fields in a stable order.
func (a Annotation) TextFields() []TextField {
	var out []TextField
	for _, f := range []TextField{
		{"Contents", a.Contents},
		{"T", a.Title},
		{"TU", a.AltName},
	} {
		if f.Value != nil {
			out = append(out, f)
		}
	}
	return out
}

// FileSpec is an embedded file specification. EF holds the byte stream and
// UF the unicode file name; PDF/UA requires both.
type FileSpec struct {
	Name        string        `yaml:"F"`
	UF          *TextString   `yaml:"UF,omitempty"`
	EF          *EmbeddedFile `yaml:"EF,omitempty"`
	Description string        `yaml:"desc,omitempty"`
}

// EmbeddedFile is the byte stream behind a file specification.
type EmbeddedFile struct {
	Subtype string   `yaml:"subtype,omitempty"`
	Data    HexBytes `yaml:"data"`
}

// PermExtractForAccessibility is the 1-based permission bit that grants
// text extraction for accessibility purposes.
const PermExtractForAccessibility = 10

// Encryption describes the security handler of an encrypted document.
type Encryption struct {
	Filter        string `yaml:"filter"`
	Algorithm     string `yaml:"algorithm,omitempty"`
	Permissions   int32  `yaml:"P"`
	UserPassword  string `yaml:"userPassword,omitempty"`
	OwnerPassword string `yaml:"ownerPassword,omitempty"`
}

// HasPermission reports whether the 1-based permission bit is set.
func (e *Encryption) HasPermission(bit int) bool {
	return uint32(e.Permissions)&(1<<(bit-1)) != 0
}

// Form is the document-level interactive form.
type Form struct {
	Fields         int  `yaml:"fields,omitempty"`
	XFA            bool `yaml:"xfa,omitempty"`
	NeedsRendering bool `yaml:"needsRendering,omitempty"`
}
