package audit

import (
	"errors"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/roles"
)

var errCycle = errors.New("cycle")

// resolve follows the role maps of t until a standard role or a dead end.
// It returns "" for a custom role with no mapping.
func resolve(t *document.Tree, role, ns string) (string, error) {
	type step struct{ ns, role string }
	seen := map[step]bool{}
	for {
		if roles.IsStandard(role, ns) {
			return role, nil
		}
		if seen[step{ns, role}] {
			return "", errCycle
		}
		seen[step{ns, role}] = true
		if next, ok := scopedTarget(t, role, ns); ok {
			role, ns = next.Role, next.Namespace
			continue
		}
		if next, ok := t.RoleMap[role]; ok {
			role, ns = next, ""
			continue
		}
		return "", nil
	}
}

func scopedTarget(t *document.Tree, role, ns string) (roles.Target, bool) {
	if ns == "" {
		return roles.Target{}, false
	}
	for _, s := range t.Namespaces {
		if s.URI == ns {
			target, ok := s.RoleMap[role]
			return target, ok
		}
	}
	return roles.Target{}, false
}

func (a *auditor) role(n *document.Node) (string, error) {
	if r, ok := a.roles[n.ID]; ok {
		return r, nil
	}
	r, err := resolve(a.doc.Tree, n.Role, n.Namespace)
	if err == nil {
		a.roles[n.ID] = r
	}
	return r, err
}

// nestingForbidden lists the roles that may never directly contain
// themselves.
var nestingForbidden = map[string]bool{
	"TOCI":  true,
	"LI":    true,
	"TR":    true,
	"Table": true,
	"Link":  true,
}

// checkTree visits the structure tree depth first. It reports true when a
// fatal structural problem ended the visit.
func (a *auditor) checkTree() bool {
	t := a.doc.Tree
	var visit func(id document.NodeID, parentRole string) bool
	visit = func(id document.NodeID, parentRole string) bool {
		n := t.Node(id)
		role, err := a.role(n)
		if err != nil {
			a.add(report.RoleMappingCycle, report.NodeLocation(int(n.ID), n.Role))
			return true
		}
		if role != "" && role == parentRole && nestingForbidden[role] {
			a.add(report.IllegalRelation, report.NodeLocation(int(n.ID), n.Role))
			return true
		}
		switch role {
		case "Figure", "Formula":
			if !a.hasAlt(n) {
				a.add(report.AltMissing, report.NodeLocation(int(n.ID), n.Role))
			}
		case "TOCI":
			if a.doc.Version == document.UA2 && !a.refersSomewhere(n.ID) {
				a.add(report.TOCIWithoutRef, report.NodeLocation(int(n.ID), n.Role))
			}
		}
		for _, kid := range n.Kids {
			if visit(kid, role) {
				return true
			}
		}
		return false
	}
	return visit(t.Root, "")
}

// hasAlt accepts ActualText, a non-empty Alt, and under UA-2 an empty Alt.
func (a *auditor) hasAlt(n *document.Node) bool {
	if n.ActualText != nil {
		return true
	}
	if n.Alt == nil {
		return false
	}
	return *n.Alt != "" || a.doc.Version == document.UA2
}

// refersSomewhere looks for a Ref in the subtree of id, outside artifacts.
func (a *auditor) refersSomewhere(id document.NodeID) bool {
	n := a.doc.Tree.Node(id)
	if r, _ := a.role(n); r == "Artifact" {
		return false
	}
	if len(n.Refs) > 0 {
		return true
	}
	for _, kid := range n.Kids {
		if a.refersSomewhere(kid) {
			return true
		}
	}
	return false
}
