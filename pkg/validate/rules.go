package validate

import (
	"errors"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

// requiresAlt lists the roles that must always carry a replacement text.
func requiresAlt(role string) bool {
	return role == "Figure" || role == "Formula"
}

// checkAlt flags a Figure or Formula without Alt or ActualText. An empty
// Alt is not a replacement text under either standard version.
func checkAlt(c *Context, n *document.Node) []report.Message {
	if n.HasAlternative() {
		return nil
	}
	m := report.New(report.AltMissing, report.Finalization, report.NodeLocation(int(n.ID), n.Role))
	if n.Alt != nil {
		m = m.Because(report.ReasonEmptyAlt)
	}
	return []report.Message{m}
}

var errRefFound = errors.New("ref found")

// checkTOCIRef requires a TOCI to point somewhere: itself or a descendant
// must carry a non-empty Ref. Refs inside artifacts do not count.
func checkTOCIRef(c *Context, n *document.Node) []report.Message {
	if c.Version != document.UA2 {
		return nil
	}
	err := c.Doc.Tree.WalkFrom(n.ID, func(d *document.Node, _ int) error {
		if role, _ := c.Canonical(d); role == "Artifact" {
			return document.SkipChildren
		}
		if len(d.Refs) > 0 {
			return errRefFound
		}
		return nil
	})
	if errors.Is(err, errRefFound) {
		return nil
	}
	return []report.Message{report.New(report.TOCIWithoutRef, report.Finalization, report.NodeLocation(int(n.ID), n.Role))}
}

func checkFileSpecs(c *Context) []report.Message {
	var out []report.Message
	for _, fs := range c.Doc.FileSpecs {
		loc := "file " + fs.Name
		if fs.EF == nil {
			out = append(out, report.New(report.FileSpecNoEF, report.Finalization, loc))
		}
		if fs.UF == nil {
			out = append(out, report.New(report.FileSpecNoUF, report.Finalization, loc))
		}
	}
	return out
}

func checkPermissions(c *Context) []report.Message {
	e := c.Doc.Encryption
	if e == nil || e.HasPermission(document.PermExtractForAccessibility) {
		return nil
	}
	return []report.Message{report.New(report.PermissionBitMissing, report.Finalization, "encryption")}
}

func checkForms(c *Context) []report.Message {
	if c.Doc.Form == nil || !c.Doc.Form.NeedsRendering {
		return nil
	}
	return []report.Message{report.New(report.DynamicForm, report.Finalization, "form")}
}
