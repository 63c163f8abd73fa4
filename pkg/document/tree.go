package document

import (
	"errors"
	"fmt"

	"github.com/adammathes/tagverify/pkg/roles"
)

// NodeID indexes the tree's node table. Cross references between nodes are
// NodeIDs, never pointers.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// ErrMalformedTree is returned when parent/kid links do not form a tree.
var ErrMalformedTree = errors.New("malformed structure tree")

// Node is a structure element.
type Node struct {
	ID         NodeID            `yaml:"id"`
	Role       string            `yaml:"role"`
	Namespace  string            `yaml:"ns,omitempty"`
	Parent     NodeID            `yaml:"parent"`
	Kids       []NodeID          `yaml:"kids,omitempty"`
	Page       int               `yaml:"page,omitempty"`
	Alt        *string           `yaml:"alt,omitempty"`
	ActualText *string           `yaml:"actualText,omitempty"`
	Lang       string            `yaml:"lang,omitempty"`
	Attrs      map[string]string `yaml:"attrs,omitempty"`
	Refs       []NodeID          `yaml:"refs,omitempty"`
	MCIDs      []MCR             `yaml:"mcids,omitempty"`
}

// MCR links a node to a marked-content sequence in a content stream.
type MCR struct {
	Stream int `yaml:"stream"`
	MCID   int `yaml:"mcid"`
}

// HasAlternative reports whether the node carries a usable replacement:
// a non-empty Alt, or any ActualText (empty included).
func (n *Node) HasAlternative() bool {
	return (n.Alt != nil && *n.Alt != "") || n.ActualText != nil
}

// Namespace holds a role map scoped to a namespace URI. While a checker is
// writing content, change RoleMap through Tree.MapRoleNS.
type Namespace struct {
	URI     string                  `yaml:"uri"`
	RoleMap map[string]roles.Target `yaml:"roleMap,omitempty"`
}

// Tree is the structure tree: a node table plus role maps.
type Tree struct {
	Root       NodeID            `yaml:"root"`
	RoleMap    map[string]string `yaml:"roleMap,omitempty"`
	Namespaces []*Namespace      `yaml:"namespaces,omitempty"`
	Nodes      []*Node           `yaml:"nodes"`

	parentIndex map[MCR]NodeID
	// mapGen counts role map changes made through the Tree.
	mapGen int
}

// NewTree creates a tree holding a single Document root.
func NewTree() *Tree {
	t := &Tree{Root: 0}
	t.Nodes = []*Node{{ID: 0, Role: "Document", Parent: NoNode}}
	return t
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return t.Nodes[id]
}

// AddNode appends a child of parent and returns it.
func (t *Tree) AddNode(parent NodeID, role, ns string) *Node {
	p := t.Node(parent)
	if p == nil {
		panic(fmt.Sprintf("document: AddNode with unknown parent %d", parent))
	}
	n := &Node{ID: NodeID(len(t.Nodes)), Role: role, Namespace: ns, Parent: parent, Page: p.Page}
	t.Nodes = append(t.Nodes, n)
	p.Kids = append(p.Kids, n.ID)
	return n
}

// MapRole adds a global (legacy) role mapping.
func (t *Tree) MapRole(custom, target string) {
	if t.RoleMap == nil {
		t.RoleMap = make(map[string]string)
	}
	t.RoleMap[custom] = target
	t.mapGen++
}

// MapRoleNS adds a mapping scoped to the namespace uri.
func (t *Tree) MapRoleNS(uri, custom string, target roles.Target) {
	t.AddNamespace(uri).RoleMap[custom] = target
	t.mapGen++
}

// RoleMapGeneration changes whenever a role map is changed through the
// Tree, so a cached resolver can tell it is stale.
func (t *Tree) RoleMapGeneration() int { return t.mapGen }

// AddNamespace returns the namespace for uri, creating it if needed.
func (t *Tree) AddNamespace(uri string) *Namespace {
	for _, ns := range t.Namespaces {
		if ns.URI == uri {
			return ns
		}
	}
	ns := &Namespace{URI: uri, RoleMap: make(map[string]roles.Target)}
	t.Namespaces = append(t.Namespaces, ns)
	t.mapGen++
	return ns
}

// NewResolver snapshots the tree's role maps into a resolver. Build a new
// one after changing the maps.
func (t *Tree) NewResolver() *roles.Resolver {
	scoped := make(map[string]map[string]roles.Target, len(t.Namespaces))
	for _, ns := range t.Namespaces {
		scoped[ns.URI] = ns.RoleMap
	}
	return roles.NewResolver(t.RoleMap, scoped)
}

// Walk visits every node reachable from the root through Kids, in
// pre-order. Refs are not followed. Returning an error from fn stops the
// walk; returning SkipChildren skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) error) error {
	return t.WalkFrom(t.Root, fn)
}

// SkipChildren can be returned by a walk function to prune a subtree.
var SkipChildren = errors.New("skip children")

// WalkFrom is Walk rooted at id.
func (t *Tree) WalkFrom(id NodeID, fn func(n *Node, depth int) error) error {
	type frame struct {
		id    NodeID
		depth int
	}
	seen := make(map[NodeID]bool)
	stack := []frame{{id, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.Node(f.id)
		if n == nil {
			return fmt.Errorf("%w: kid %d does not exist", ErrMalformedTree, f.id)
		}
		if seen[f.id] {
			return fmt.Errorf("%w: node %d is owned twice", ErrMalformedTree, f.id)
		}
		seen[f.id] = true

		err := fn(n, f.depth)
		if err == SkipChildren {
			continue
		}
		if err != nil {
			return err
		}
		for i := len(n.Kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Kids[i], f.depth + 1})
		}
	}
	return nil
}

// Check verifies that the root has no parent, parent and kid links agree,
// every non-root node has exactly one owner, and every Ref and MCR points
// somewhere.
func (t *Tree) Check() error {
	if t.Node(t.Root) == nil {
		return fmt.Errorf("%w: root %d does not exist", ErrMalformedTree, t.Root)
	}
	if p := t.Node(t.Root).Parent; p != NoNode {
		return fmt.Errorf("%w: root %d has parent %d", ErrMalformedTree, t.Root, p)
	}
	for i, n := range t.Nodes {
		if n == nil || n.ID != NodeID(i) {
			return fmt.Errorf("%w: node table entry %d has the wrong id", ErrMalformedTree, i)
		}
		for _, ref := range n.Refs {
			if t.Node(ref) == nil {
				return fmt.Errorf("%w: node %d refers to missing node %d", ErrMalformedTree, n.ID, ref)
			}
		}
	}
	owners := make(map[NodeID]NodeID)
	for _, n := range t.Nodes {
		for _, kid := range n.Kids {
			k := t.Node(kid)
			if k == nil {
				return fmt.Errorf("%w: node %d has missing kid %d", ErrMalformedTree, n.ID, kid)
			}
			if prev, dup := owners[kid]; dup {
				return fmt.Errorf("%w: node %d is a kid of both %d and %d", ErrMalformedTree, kid, prev, n.ID)
			}
			owners[kid] = n.ID
			if k.Parent != n.ID {
				return fmt.Errorf("%w: node %d lists kid %d whose parent is %d", ErrMalformedTree, n.ID, kid, k.Parent)
			}
		}
	}
	count := 0
	if err := t.Walk(func(*Node, int) error { count++; return nil }); err != nil {
		return err
	}
	if count != len(t.Nodes) {
		return fmt.Errorf("%w: %d of %d nodes are unreachable from the root", ErrMalformedTree, len(t.Nodes)-count, len(t.Nodes))
	}
	return nil
}

// SetRole reclassifies a node.
func (t *Tree) SetRole(id NodeID, role, ns string) {
	if n := t.Node(id); n != nil {
		n.Role = role
		n.Namespace = ns
	}
}

// MarkedContent resolves a marked-content id in a stream to its node.
func (t *Tree) MarkedContent(stream, mcid int) (NodeID, bool) {
	if t.parentIndex == nil {
		t.parentIndex = make(map[MCR]NodeID)
		for _, n := range t.Nodes {
			for _, m := range n.MCIDs {
				t.parentIndex[m] = n.ID
			}
		}
	}
	id, ok := t.parentIndex[MCR{Stream: stream, MCID: mcid}]
	return id, ok
}

func (t *Tree) bindMarkedContent(id NodeID, m MCR) {
	n := t.Node(id)
	n.MCIDs = append(n.MCIDs, m)
	if t.parentIndex != nil {
		t.parentIndex[m] = id
	}
}
