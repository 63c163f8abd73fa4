package validate

import (
	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/tagging"
)

// openCheck is the immediate check run on every tag open. A Figure or
// Formula opened with inline properties can never gain an Alt from the
// structure tree, so a missing one is reported before the write.
func (c *Checker) openCheck(s *document.ContentStream, f tagging.Frame) (report.Message, bool) {
	if !f.Inline() || f.HasAlternative() {
		return report.Message{}, false
	}
	role, err := c.roleResolver().Canonical(f.Role, f.Namespace)
	if err != nil || !requiresAlt(role) {
		return report.Message{}, false
	}
	m := report.New(report.AltMissingOnCanvas, report.Immediate, report.OpLocation(s.ID, s.Page, len(s.Ops)))
	return m.Because(report.ReasonAbortedWrite), true
}
