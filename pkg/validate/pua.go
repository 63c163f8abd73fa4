package validate

import (
	"fmt"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

// isPUA reports whether r lies in one of the three Unicode private use
// areas.
func isPUA(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r >= 0xF0000 && r <= 0xFFFFD:
		return true
	case r >= 0x100000 && r <= 0x10FFFD:
		return true
	}
	return false
}

func containsPUA(s string) bool {
	for _, r := range s {
		if isPUA(r) {
			return true
		}
	}
	return false
}

// droppedPUA reports whether the private use text in ts is gone once the
// stored bytes are read back.
func droppedPUA(ts document.TextString) bool {
	return ts.Bytes != nil && !containsPUA(document.DecodeTextString(ts.Bytes).Value)
}

func puaMessage(checkID, location string, ts document.TextString) report.Message {
	m := report.New(checkID, report.Finalization, location)
	if droppedPUA(ts) {
		m = m.Because(report.ReasonLossyEncoding)
	}
	return m
}

// checkLangPUA scans the document language as the producer supplied it,
// before any encoding could drop characters.
func checkLangPUA(c *Context) []report.Message {
	if c.Doc.Lang == nil || !containsPUA(c.Doc.Lang.Value) {
		return nil
	}
	return []report.Message{puaMessage(report.PUAInLang, "catalog Lang", *c.Doc.Lang)}
}

func checkAnnotationPUA(c *Context) []report.Message {
	var out []report.Message
	for i, a := range c.Doc.Annotations {
		for _, f := range a.TextFields() {
			if containsPUA(f.Value.Value) {
				out = append(out, puaMessage(report.PUAInAnnotation,
					fmt.Sprintf("annotation %d %s", i, f.Name), *f.Value))
			}
		}
	}
	return out
}
