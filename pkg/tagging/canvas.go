package tagging

import (
	"fmt"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

// OpenCheck inspects a frame about to be opened. A returned message aborts
// the open.
type OpenCheck func(s *document.ContentStream, f Frame) (report.Message, bool)

// Canvas writes tagged content into one content stream. Every write either
// commits its operator or returns an error and leaves the stream untouched.
// A Canvas must be used by one writer at a time.
type Canvas struct {
	stream  *document.ContentStream
	tree    *document.Tree
	tracker *Tracker
	check   OpenCheck
	record  func(report.Message)
}

// NewCanvas creates a canvas over s. check runs on every open; record
// receives every immediate-phase violation. Both may be nil.
func NewCanvas(s *document.ContentStream, tree *document.Tree, check OpenCheck, record func(report.Message)) *Canvas {
	if record == nil {
		record = func(report.Message) {}
	}
	return &Canvas{
		stream:  s,
		tree:    tree,
		tracker: NewTracker(s.ID),
		check:   check,
		record:  record,
	}
}

// Stream returns the underlying content stream.
func (c *Canvas) Stream() *document.ContentStream { return c.stream }

// Depth returns the number of open tags.
func (c *Canvas) Depth() int { return c.tracker.Depth() }

// OpenTag opens a marked-content sequence bound to a structure node.
func (c *Canvas) OpenTag(ref document.TagReference) error {
	if ref.Stream != c.stream.ID {
		return fmt.Errorf("tag reference for stream %d used on stream %d", ref.Stream, c.stream.ID)
	}
	mcid := ref.MCID
	f := Frame{Role: ref.Role, Namespace: ref.Namespace, Node: ref.Node, MCID: mcid}
	return c.open(f, document.Operator{Op: document.OpBeginTag, Tag: ref.Role, MCID: &mcid})
}

// OpenInlineTag opens a marked-content sequence carrying its properties
// inline. Nothing in the structure tree can add to them later.
func (c *Canvas) OpenInlineTag(p document.TagProperties) error {
	f := Frame{Role: p.Role, Node: document.NoNode, MCID: -1, Alt: p.Alt, ActualText: p.ActualText}
	return c.open(f, document.Operator{Op: document.OpBeginTag, Tag: p.Role, Alt: p.Alt, ActualText: p.ActualText})
}

func (c *Canvas) open(f Frame, op document.Operator) error {
	if c.check != nil {
		if m, bad := c.check(c.stream, f); bad {
			c.record(m)
			return &report.ConformanceError{Violation: m}
		}
	}
	c.tracker.Open(f)
	c.stream.Append(op)
	return nil
}

// CloseTag closes the innermost open tag.
func (c *Canvas) CloseTag() error {
	if _, err := c.tracker.Close(); err != nil {
		return c.fail(report.UnbalancedTags, err)
	}
	c.stream.Append(document.Operator{Op: document.OpEndTag})
	return nil
}

// ShowText paints text given as character codes with a unicode mapping.
func (c *Canvas) ShowText(text string) {
	c.stream.Append(document.Operator{Op: document.OpShowText, Text: text})
}

// ShowGlyphs paints explicit glyph ids.
func (c *Canvas) ShowGlyphs(glyphs []document.Glyph) {
	c.stream.Append(document.Operator{Op: document.OpShowGlyphs, Glyphs: glyphs})
}

// ShowBytes paints an already-encoded byte array. Its text cannot be
// recovered, so it is not scanned for private use code points.
func (c *Canvas) ShowBytes(b []byte) {
	c.stream.Append(document.Operator{Op: document.OpShowBytes, Bytes: document.HexBytes(b)})
}

// Draw paints a named XObject.
func (c *Canvas) Draw(name string) {
	c.stream.Append(document.Operator{Op: document.OpDraw, Name: name})
}

// Release ends writing. Tags left open are a structural error.
func (c *Canvas) Release() error {
	if err := c.tracker.Finish(); err != nil {
		return c.fail(report.UnbalancedTags, err)
	}
	return nil
}

func (c *Canvas) fail(checkID string, cause error) error {
	m := report.New(checkID, report.Immediate, report.StreamLocation(c.stream.ID, c.stream.Page))
	c.record(m)
	return fmt.Errorf("%w: %w", &report.ConformanceError{Violation: m}, cause)
}
