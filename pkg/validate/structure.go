package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

var errStopWalk = errors.New("stop walk")

// checkStructure makes the single pre-order walk of finalization. Each node
// is resolved to its canonical role, checked against its parent, and then
// handed to the rules registered for that role.
func checkStructure(ctx *Context, r *report.Report, reg *Registry, opts Options) bool {
	tree := ctx.Doc.Tree
	err := tree.Walk(func(n *document.Node, _ int) error {
		role, err := ctx.Canonical(n)
		if err != nil {
			ctx.Log.Debug("role resolution failed", "node", n.ID, "error", err)
			r.Add(report.RoleMappingCycle, report.Finalization, report.NodeLocation(int(n.ID), n.Role))
			return errStopWalk
		}
		if p := tree.Node(n.Parent); p != nil {
			var ok bool
			if role, ok = checkRelation(ctx, r, p, n, role, opts.Strict); !ok {
				return errStopWalk
			}
		}
		for _, rule := range reg.Rules(role) {
			r.Append(rule(ctx, n)...)
		}
		return nil
	})
	return errors.Is(err, errStopWalk)
}

// forbiddenRelations maps a (parent, child) pair of canonical roles to the
// role the child is repaired to. An empty repair means the pair is fatal.
var forbiddenRelations = map[[2]string]string{
	{"H", "H"}:         "Span",
	{"P", "P"}:         "Span",
	{"TOCI", "TOCI"}:   "",
	{"LI", "LI"}:       "",
	{"TR", "TR"}:       "",
	{"Table", "Table"}: "",
	{"Link", "Link"}:   "",
}

// forbiddenRelation reports whether child may not appear directly under
// parent, and the repair role if one exists.
func forbiddenRelation(parent, child string) (repair string, forbidden bool) {
	if lvl := headingLevel(parent); lvl > 0 && lvl == headingLevel(child) {
		return "Span", true
	}
	repair, forbidden = forbiddenRelations[[2]string{parent, child}]
	return repair, forbidden
}

// headingLevel returns n for a numbered heading Hn and 0 otherwise.
func headingLevel(role string) int {
	if !strings.HasPrefix(role, "H") || len(role) < 2 {
		return 0
	}
	n, err := strconv.Atoi(role[1:])
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// checkRelation applies the relation table to n and returns n's canonical
// role after any repair. ok is false on a fatal violation.
func checkRelation(ctx *Context, r *report.Report, parent, n *document.Node, role string, strict bool) (string, bool) {
	parentRole, err := ctx.Canonical(parent)
	if err != nil || parentRole == "" || role == "" {
		return role, true
	}
	repair, forbidden := forbiddenRelation(parentRole, role)
	if !forbidden {
		return role, true
	}
	loc := report.NodeLocation(int(n.ID), n.Role)
	if repair == "" || strict {
		r.Add(report.IllegalRelation, report.Finalization, loc)
		return role, false
	}
	if _, still := forbiddenRelation(parentRole, repair); still {
		r.Add(report.IllegalRelation, report.Finalization, loc)
		return role, false
	}
	ctx.Doc.Tree.SetRole(n.ID, repair, "")
	ctx.forget(n.ID)
	r.AddFix(report.IllegalRelation, fmt.Sprintf("%s nested in %s retagged as %s", role, parentRole, repair), loc)
	ctx.Log.Debug("relation repaired", "node", n.ID, "from", role, "to", repair)
	role, err = ctx.Canonical(n)
	return role, err == nil
}
