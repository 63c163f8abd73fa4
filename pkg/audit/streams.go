package audit

import (
	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

type openTag struct {
	node       document.NodeID
	alt        *string
	actualText *string
}

func (t openTag) replaced(tree *document.Tree) bool {
	if t.node == document.NoNode {
		return (t.alt != nil && *t.alt != "") || t.actualText != nil
	}
	for n := tree.Node(t.node); n != nil; n = tree.Node(n.Parent) {
		if n.ActualText != nil || (n.Alt != nil && *n.Alt != "") {
			return true
		}
	}
	return false
}

// checkStreams counts marked content nesting in every stream and checks
// painted private use text. It reports true on a fatal nesting problem.
func (a *auditor) checkStreams() bool {
	tree := a.doc.Tree
	for _, n := range tree.Nodes {
		for _, m := range n.MCIDs {
			a.owners[m] = n.ID
		}
	}
	for _, s := range a.doc.Streams {
		var open []openTag
		fail := func(checkID string) bool {
			a.log.Debug("stream rejected", "stream", s.ID, "check", checkID)
			a.add(checkID, report.StreamLocation(s.ID, s.Page))
			return true
		}
		for i, op := range s.Ops {
			switch op.Op {
			case document.OpBeginTag:
				tag := openTag{node: document.NoNode, alt: op.Alt, actualText: op.ActualText}
				if op.MCID != nil {
					owner, ok := a.owners[document.MCR{Stream: s.ID, MCID: *op.MCID}]
					if !ok {
						return fail(report.UnresolvedMCID)
					}
					tag = openTag{node: owner}
				}
				open = append(open, tag)
			case document.OpEndTag:
				if len(open) == 0 {
					return fail(report.UnbalancedTags)
				}
				open = open[:len(open)-1]
			default:
				text, ok := shown(op)
				if !ok || !hasPrivateUse(text) {
					continue
				}
				if len(open) != 0 && open[len(open)-1].replaced(tree) {
					continue
				}
				loc := report.OpLocation(s.ID, s.Page, i)
				if op.Op == document.OpShowBytes {
					a.addBecause(report.PUAInContent, loc, report.ReasonByteArray)
				} else {
					a.add(report.PUAInContent, loc)
				}
			}
		}
		if len(open) != 0 {
			return fail(report.UnbalancedTags)
		}
	}
	return false
}
