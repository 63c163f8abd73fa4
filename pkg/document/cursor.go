package document

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchKid = errors.New("no such kid")
	ErrAtRoot    = errors.New("cursor is at the root")
)

// Cursor is a movable position in the structure tree. It does not own the
// node it points at; several cursors may point into the same tree.
type Cursor struct {
	tree *Tree
	cur  NodeID
}

// Cursor returns a cursor positioned on the root.
func (t *Tree) Cursor() *Cursor {
	return &Cursor{tree: t, cur: t.Root}
}

// CursorAt returns a cursor positioned on id.
func (t *Tree) CursorAt(id NodeID) (*Cursor, error) {
	if t.Node(id) == nil {
		return nil, fmt.Errorf("cursor: node %d does not exist", id)
	}
	return &Cursor{tree: t, cur: id}, nil
}

// Node returns the node under the cursor.
func (c *Cursor) Node() *Node { return c.tree.Node(c.cur) }

// Role returns the role of the node under the cursor.
func (c *Cursor) Role() string { return c.Node().Role }

// MoveToKid moves to the index-th kid whose role is expectedRole. An empty
// expectedRole counts every kid.
func (c *Cursor) MoveToKid(index int, expectedRole string) error {
	seen := 0
	for _, kid := range c.Node().Kids {
		k := c.tree.Node(kid)
		if expectedRole != "" && k.Role != expectedRole {
			continue
		}
		if seen == index {
			c.cur = kid
			return nil
		}
		seen++
	}
	if expectedRole == "" {
		return fmt.Errorf("%w: %s has %d kids, wanted index %d", ErrNoSuchKid, c.Role(), seen, index)
	}
	return fmt.Errorf("%w: %s has %d %s kids, wanted index %d", ErrNoSuchKid, c.Role(), seen, expectedRole, index)
}

// MoveToParent moves to the parent node.
func (c *Cursor) MoveToParent() error {
	n := c.Node()
	if n.Parent == NoNode {
		return ErrAtRoot
	}
	c.cur = n.Parent
	return nil
}

// MoveToRoot moves back to the root.
func (c *Cursor) MoveToRoot() { c.cur = c.tree.Root }

// AddTag appends a kid with role to the current node and moves onto it.
func (c *Cursor) AddTag(role string) *Cursor {
	return c.AddTagNS(role, "")
}

// AddTagNS is AddTag with an explicit namespace.
func (c *Cursor) AddTagNS(role, ns string) *Cursor {
	n := c.tree.AddNode(c.cur, role, ns)
	c.cur = n.ID
	return c
}

// SetAlt sets the alternate description.
func (c *Cursor) SetAlt(alt string) *Cursor {
	c.Node().Alt = &alt
	return c
}

// SetActualText sets the replacement text.
func (c *Cursor) SetActualText(text string) *Cursor {
	c.Node().ActualText = &text
	return c
}

// SetLang sets the node's language.
func (c *Cursor) SetLang(lang string) *Cursor {
	c.Node().Lang = lang
	return c
}

// SetAttr sets an extension attribute.
func (c *Cursor) SetAttr(name, value string) *Cursor {
	n := c.Node()
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
	return c
}

// CreateReference captures the identity of the current node for use in
// another node's Refs.
func (c *Cursor) CreateReference() NodeID { return c.cur }

// AddRef adds a cross reference from the current node to ref.
func (c *Cursor) AddRef(ref NodeID) error {
	if c.tree.Node(ref) == nil {
		return fmt.Errorf("cursor: reference to missing node %d", ref)
	}
	n := c.Node()
	n.Refs = append(n.Refs, ref)
	return nil
}

// TagReference allocates a marked-content id in s and binds it to the
// current node.
func (c *Cursor) TagReference(s *ContentStream) TagReference {
	mcid := s.allocateMCID()
	c.tree.bindMarkedContent(c.cur, MCR{Stream: s.ID, MCID: mcid})
	n := c.Node()
	if n.Page == 0 {
		n.Page = s.Page
	}
	return TagReference{Stream: s.ID, Page: s.Page, MCID: mcid, Node: c.cur, Role: n.Role, Namespace: n.Namespace}
}
