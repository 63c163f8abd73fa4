package validate

import (
	"errors"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/tagging"
)

// checkMarkedContent replays every content stream against the structure
// tree. Unbalanced or unresolvable marked content is fatal; private use
// text is checked against its enclosing tag along the way.
func checkMarkedContent(ctx *Context, r *report.Report) bool {
	tree := ctx.Doc.Tree
	for _, s := range ctx.Doc.Streams {
		i := -1
		err := tagging.Replay(s, tree, func(op document.Operator, tr *tagging.Tracker) error {
			i++
			text, ok := op.ShownText()
			if !ok || !containsPUA(text) {
				return nil
			}
			if !covered(tree, tr) {
				r.Add(report.PUAInContent, report.Finalization, report.OpLocation(s.ID, s.Page, i))
			}
			return nil
		})
		if err == nil {
			continue
		}
		ctx.Log.Debug("content replay failed", "stream", s.ID, "error", err)
		loc := report.StreamLocation(s.ID, s.Page)
		checkID := report.UnbalancedTags
		if errors.Is(err, tagging.ErrUnresolvedMCID) {
			checkID = report.UnresolvedMCID
		}
		// Release already reported a stream it ended with open tags.
		if !r.HasAt(checkID, loc) {
			r.Add(checkID, report.Finalization, loc)
		}
		return true
	}
	return false
}

// covered reports whether the innermost open tag supplies a replacement
// text, either inline or through its structure element or one of that
// element's ancestors.
func covered(tree *document.Tree, tr *tagging.Tracker) bool {
	f, ok := tr.Top()
	if !ok {
		return false
	}
	if f.Inline() {
		return f.HasAlternative()
	}
	for n := tree.Node(f.Node); n != nil; n = tree.Node(n.Parent) {
		if n.HasAlternative() {
			return true
		}
	}
	return false
}
