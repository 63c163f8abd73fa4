package validate

import (
	"log/slog"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/roles"
)

// Context is the read-only view a rule gets of the document being
// finalized. Canonical roles are resolved once and cached.
type Context struct {
	Doc      *document.Document
	Version  document.Version
	Resolver *roles.Resolver
	Log      *slog.Logger

	canonical map[document.NodeID]string
}

func newContext(doc *document.Document, log *slog.Logger) *Context {
	return &Context{
		Doc:       doc,
		Version:   doc.Version,
		Resolver:  doc.Tree.NewResolver(),
		Log:       log,
		canonical: make(map[document.NodeID]string),
	}
}

// Canonical returns the standard role n maps to, or "" for an unmapped
// custom role.
func (c *Context) Canonical(n *document.Node) (string, error) {
	if role, ok := c.canonical[n.ID]; ok {
		return role, nil
	}
	role, err := c.Resolver.Canonical(n.Role, n.Namespace)
	if err != nil {
		return "", err
	}
	c.canonical[n.ID] = role
	return role, nil
}

// forget drops a cached resolution after a node is reclassified.
func (c *Context) forget(id document.NodeID) {
	delete(c.canonical, id)
}

// NodeRule checks one structure element whose canonical role it was
// registered for.
type NodeRule func(c *Context, n *document.Node) []report.Message

// DocumentRule checks a document-level location (catalog, annotations,
// file specifications, encryption, forms).
type DocumentRule func(c *Context) []report.Message

// Registry dispatches node rules by canonical role and runs document
// rules once per pass.
type Registry struct {
	nodes     map[string][]NodeRule
	documents []DocumentRule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string][]NodeRule)}
}

// OnRole registers rules for a canonical role.
func (r *Registry) OnRole(role string, rules ...NodeRule) {
	r.nodes[role] = append(r.nodes[role], rules...)
}

// OnDocument registers document-level rules.
func (r *Registry) OnDocument(rules ...DocumentRule) {
	r.documents = append(r.documents, rules...)
}

// Rules returns the rules registered for a canonical role.
func (r *Registry) Rules(role string) []NodeRule {
	return r.nodes[role]
}

// DefaultRegistry holds every finalization rule of the checker.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.OnRole("Figure", checkAlt)
	r.OnRole("Formula", checkAlt)
	r.OnRole("TOCI", checkTOCIRef)
	r.OnDocument(
		checkLangPUA,
		checkAnnotationPUA,
		checkFileSpecs,
		checkPermissions,
		checkForms,
	)
	return r
}
