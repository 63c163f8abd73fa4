package document

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Open reads a document snapshot (YAML or JSON) from path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()
	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return d, nil
}

// Decode parses a snapshot and checks that its structure tree is a tree.
// Text strings come back with values decoded from their stored bytes.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty artifact")
		}
		return nil, fmt.Errorf("parsing artifact: %w", err)
	}
	if d.Version == 0 {
		return nil, fmt.Errorf("artifact does not declare a standard version")
	}
	if d.Tree == nil {
		d.Tree = NewTree()
	}
	if err := d.Tree.Check(); err != nil {
		return nil, err
	}
	for i, s := range d.Streams {
		if s == nil || s.ID != i {
			return nil, fmt.Errorf("content stream %d has the wrong id", i)
		}
		s.syncMCID()
	}
	return &d, nil
}

// Write encodes the document as a YAML snapshot.
func (d *Document) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	return enc.Close()
}

// Save writes the snapshot to path.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Reload round-trips the document through its snapshot form, producing
// what an auditor reading the finished artifact would see.
func (d *Document) Reload() (*Document, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return Decode(&buf)
}
