package audit

import (
	"unicode"
	"unicode/utf8"

	"github.com/adammathes/tagverify/pkg/document"
)

// stored returns the text an artifact string actually holds.
func stored(ts document.TextString) string {
	if ts.Bytes == nil {
		return ts.Value
	}
	return document.DecodeTextString(ts.Bytes).Value
}

func hasPrivateUse(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Co, r) {
			return true
		}
	}
	return false
}

// shown returns the text a show operator paints. Byte arrays are read as
// UTF-8 when they are valid UTF-8.
func shown(op document.Operator) (string, bool) {
	switch op.Op {
	case document.OpShowText:
		return op.Text, true
	case document.OpShowGlyphs:
		var s string
		for _, g := range op.Glyphs {
			s += g.Unicode
		}
		return s, true
	case document.OpShowBytes:
		if utf8.Valid(op.Bytes) {
			return string(op.Bytes), true
		}
	}
	return "", false
}
