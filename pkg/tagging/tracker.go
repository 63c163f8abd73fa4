// Package tagging tracks marked-content nesting in content streams and runs
// the checks that must fire while content is being written.
package tagging

import (
	"errors"
	"fmt"

	"github.com/adammathes/tagverify/pkg/document"
)

// ErrUnbalanced is matched by every *NestingError.
var ErrUnbalanced = errors.New("unbalanced marked content")

// NestingError reports a close without an open, or an open never closed.
type NestingError struct {
	Stream int
	Depth  int
	At     string
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("stream %d: unbalanced marked content at %s (depth %d)", e.Stream, e.At, e.Depth)
}

func (e *NestingError) Unwrap() error { return ErrUnbalanced }

// Frame is an open marked-content sequence. Node is document.NoNode for
// tags carrying their properties inline.
type Frame struct {
	Role       string
	Namespace  string
	Node       document.NodeID
	MCID       int
	Alt        *string
	ActualText *string
}

// Inline reports whether the frame is not bound to a structure node.
func (f Frame) Inline() bool { return f.Node == document.NoNode }

// HasAlternative reports whether the frame's own properties carry a usable
// replacement text.
func (f Frame) HasAlternative() bool {
	return (f.Alt != nil && *f.Alt != "") || f.ActualText != nil
}

// Tracker is the open-tag stack of a single content stream. It has a single
// writer; nothing guards it against concurrent use.
type Tracker struct {
	stream int
	stack  []Frame
}

// NewTracker creates an empty tracker for stream.
func NewTracker(stream int) *Tracker {
	return &Tracker{stream: stream}
}

// Open pushes a frame.
func (t *Tracker) Open(f Frame) {
	t.stack = append(t.stack, f)
}

// Close pops the innermost frame.
func (t *Tracker) Close() (Frame, error) {
	if len(t.stack) == 0 {
		return Frame{}, &NestingError{Stream: t.stream, At: "EMC"}
	}
	f := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return f, nil
}

// Top returns the innermost open frame.
func (t *Tracker) Top() (Frame, bool) {
	if len(t.stack) == 0 {
		return Frame{}, false
	}
	return t.stack[len(t.stack)-1], true
}

// Depth returns the number of open frames.
func (t *Tracker) Depth() int { return len(t.stack) }

// Finish fails if any frame is still open.
func (t *Tracker) Finish() error {
	if len(t.stack) != 0 {
		return &NestingError{Stream: t.stream, Depth: len(t.stack), At: "end of stream"}
	}
	return nil
}

// Replay feeds a finished stream's operators through a fresh tracker,
// calling fn for every operator with the frame stack as it is when the
// operator runs. Open operators bound to an MCID are resolved against tree.
func Replay(s *document.ContentStream, tree *document.Tree, fn func(op document.Operator, t *Tracker) error) error {
	t := NewTracker(s.ID)
	for i, op := range s.Ops {
		switch op.Op {
		case document.OpBeginTag:
			f, err := frameFor(s.ID, tree, op)
			if err != nil {
				return fmt.Errorf("operator %d: %w", i, err)
			}
			t.Open(f)
		case document.OpEndTag:
			if _, err := t.Close(); err != nil {
				return err
			}
		}
		if err := fn(op, t); err != nil {
			return err
		}
	}
	return t.Finish()
}

// ErrUnresolvedMCID is returned by Replay for a marked-content id that no
// structure node claims.
var ErrUnresolvedMCID = errors.New("marked content id does not resolve")

func frameFor(stream int, tree *document.Tree, op document.Operator) (Frame, error) {
	if op.MCID == nil {
		return Frame{Role: op.Tag, Node: document.NoNode, MCID: -1, Alt: op.Alt, ActualText: op.ActualText}, nil
	}
	id, ok := tree.MarkedContent(stream, *op.MCID)
	if !ok {
		return Frame{}, fmt.Errorf("%w: stream %d mcid %d", ErrUnresolvedMCID, stream, *op.MCID)
	}
	n := tree.Node(id)
	return Frame{Role: n.Role, Namespace: n.Namespace, Node: id, MCID: *op.MCID}, nil
}
