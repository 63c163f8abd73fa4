// Package roles resolves structure element roles to the standard structure
// types they stand for, following role-map chains across namespaces.
package roles

import (
	"errors"
	"fmt"
	"strings"
)

// Standard structure namespaces.
const (
	NamespacePDF17 = "http://iso.org/pdf/ssn"
	NamespacePDF20 = "http://iso.org/pdf2/ssn"
)

// ErrRoleMappingCycle is matched by every *CycleError.
var ErrRoleMappingCycle = errors.New("role mapping cycle")

// Target is the right-hand side of a namespace-scoped role mapping.
// An empty Namespace means the default (legacy) scope.
type Target struct {
	Role      string `yaml:"role" json:"role"`
	Namespace string `yaml:"ns,omitempty" json:"ns,omitempty"`
}

// Resolution is the outcome of following a role through its mappings.
// Canonical is false when the chain ends on a custom role with no further
// mapping; such roles carry no role-specific requirement.
type Resolution struct {
	Role      string
	Namespace string
	Canonical bool
	Hops      int
}

// CycleError reports a mapping chain that revisits a role.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("role mapping cycle: %s", strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrRoleMappingCycle }

var pdf17Roles = setOf(
	"Document", "Part", "Art", "Sect", "Div", "BlockQuote", "Caption",
	"TOC", "TOCI", "Index", "NonStruct", "Private",
	"P", "H", "H1", "H2", "H3", "H4", "H5", "H6",
	"L", "LI", "Lbl", "LBody",
	"Table", "TR", "TH", "TD", "THead", "TBody", "TFoot",
	"Span", "Quote", "Note", "Reference", "BibEntry", "Code", "Link", "Annot",
	"Ruby", "RB", "RT", "RP", "Warichu", "WT", "WP",
	"Figure", "Formula", "Form", "Artifact",
)

var pdf20Roles = setOf(
	"Document", "DocumentFragment", "Part", "Sect", "Div", "Aside", "NonStruct",
	"P", "H", "H1", "H2", "H3", "H4", "H5", "H6", "Title", "FENote", "Sub",
	"Lbl", "Span", "Em", "Strong", "Link", "Annot", "Form",
	"Ruby", "RB", "RT", "RP", "Warichu", "WT", "WP",
	"L", "LI", "LBody",
	"Table", "TR", "TH", "TD", "THead", "TBody", "TFoot", "Caption",
	"Figure", "Formula", "Artifact",
)

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// IsStandard reports whether role is a standard structure type in ns.
// The empty namespace is the PDF 1.7 set.
func IsStandard(role, ns string) bool {
	switch ns {
	case "", NamespacePDF17:
		return pdf17Roles[role]
	case NamespacePDF20:
		return pdf20Roles[role]
	}
	return false
}

// Resolver follows role maps. It is built once per document and memoizes
// resolutions per (namespace, role).
type Resolver struct {
	global map[string]string
	scoped map[string]map[string]Target
	cache  map[key]cached
}

type key struct {
	ns, role string
}

type cached struct {
	res Resolution
	err error
}

// NewResolver creates a resolver over the global role map and the
// namespace-scoped maps keyed by namespace URI. Either may be nil.
func NewResolver(global map[string]string, scoped map[string]map[string]Target) *Resolver {
	return &Resolver{
		global: global,
		scoped: scoped,
		cache:  make(map[key]cached),
	}
}

// Resolve maps role (scoped to namespace) to a standard structure type.
func (r *Resolver) Resolve(role, namespace string) (Resolution, error) {
	k := key{namespace, role}
	if c, ok := r.cache[k]; ok {
		return c.res, c.err
	}
	res, err := r.follow(role, namespace)
	r.cache[k] = cached{res, err}
	return res, err
}

// Canonical returns the resolved role name, or "" for unmapped custom roles.
func (r *Resolver) Canonical(role, namespace string) (string, error) {
	res, err := r.Resolve(role, namespace)
	if err != nil || !res.Canonical {
		return "", err
	}
	return res.Role, nil
}

func (r *Resolver) follow(role, ns string) (Resolution, error) {
	visited := make(map[key]bool)
	chain := []string{label(role, ns)}
	for hops := 0; ; hops++ {
		if IsStandard(role, ns) {
			return Resolution{Role: role, Namespace: ns, Canonical: true, Hops: hops}, nil
		}
		visited[key{ns, role}] = true

		next, ok := r.lookup(role, ns)
		if !ok {
			return Resolution{Role: role, Namespace: ns, Hops: hops}, nil
		}
		chain = append(chain, label(next.Role, next.Namespace))
		if visited[key{next.Namespace, next.Role}] {
			return Resolution{}, &CycleError{Chain: chain}
		}
		role, ns = next.Role, next.Namespace
	}
}

// lookup prefers the namespace-scoped table and falls back to the global
// one. Global targets stay in the default scope.
func (r *Resolver) lookup(role, ns string) (Target, bool) {
	if ns != "" {
		if table, ok := r.scoped[ns]; ok {
			if t, ok := table[role]; ok {
				return t, true
			}
		}
	}
	if to, ok := r.global[role]; ok {
		return Target{Role: to}, true
	}
	return Target{}, false
}

func label(role, ns string) string {
	if ns == "" {
		return role
	}
	return role + "@" + ns
}
