package document

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"gopkg.in/yaml.v3"
)

// Encoding is the storage encoding of a text string.
type Encoding int

const (
	// SingleByte is the restricted single-byte encoding. Runes it cannot
	// represent are dropped.
	SingleByte Encoding = iota
	// UTF8 is UTF-8 marked with EF BB BF.
	UTF8
	// UTF16BE is big-endian UTF-16 marked with FE FF.
	UTF16BE
	// UTF16BEUnmarked is big-endian UTF-16 without a byte order mark.
	// Readers cannot tell it from single-byte text.
	UTF16BEUnmarked
)

func (e Encoding) String() string {
	switch e {
	case SingleByte:
		return "single-byte"
	case UTF8:
		return "utf-8"
	case UTF16BE:
		return "utf-16be"
	case UTF16BEUnmarked:
		return "utf-16be-unmarked"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

var (
	singleByte    = charmap.Windows1252
	utf8BOM       = unicode.UTF8BOM
	utf16Marked   = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	utf16Unmarked = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// TextString is a text-bearing value. Value is what the producer asked to
// store; Bytes is what actually ends up in the artifact. For a string read
// back from an artifact, Value is decoded from Bytes.
type TextString struct {
	Value    string
	Encoding Encoding
	Bytes    []byte
}

// NewTextString encodes value with enc.
func NewTextString(value string, enc Encoding) TextString {
	ts := TextString{Value: value, Encoding: enc}
	var err error
	switch enc {
	case SingleByte:
		ts.Bytes = encodeSingleByte(value)
	case UTF8:
		ts.Bytes, err = utf8BOM.NewEncoder().Bytes([]byte(value))
	case UTF16BE:
		ts.Bytes, err = utf16Marked.NewEncoder().Bytes([]byte(value))
	case UTF16BEUnmarked:
		ts.Bytes, err = utf16Unmarked.NewEncoder().Bytes([]byte(value))
	}
	if err != nil {
		ts.Bytes = append(append([]byte{}, bomUTF8...), value...)
		ts.Encoding = UTF8
	}
	return ts
}

// DecodeTextString interprets artifact bytes, choosing the encoding from
// the byte order mark. Unmarked data is read as single-byte text.
func DecodeTextString(b []byte) TextString {
	ts := TextString{Bytes: b}
	var (
		out []byte
		err error
	)
	switch {
	case bytes.HasPrefix(b, bomUTF16BE):
		ts.Encoding = UTF16BE
		out, err = utf16Marked.NewDecoder().Bytes(b)
	case bytes.HasPrefix(b, bomUTF8):
		ts.Encoding = UTF8
		out, err = utf8BOM.NewDecoder().Bytes(b)
	default:
		ts.Encoding = SingleByte
		out, err = singleByte.NewDecoder().Bytes(b)
	}
	if err != nil {
		out, _ = singleByte.NewDecoder().Bytes(b)
		ts.Encoding = SingleByte
	}
	ts.Value = string(out)
	return ts
}

func encodeSingleByte(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := singleByte.EncodeRune(r); ok {
			out = append(out, b)
		}
	}
	return out
}

// Lossy reports whether storing Value dropped characters.
func (t TextString) Lossy() bool {
	if t.Encoding != SingleByte {
		return false
	}
	return DecodeTextString(t.Bytes).Value != t.Value
}

func (t TextString) String() string { return t.Value }

func (t TextString) MarshalYAML() (interface{}, error) {
	return hex.EncodeToString(t.Bytes), nil
}

func (t *TextString) UnmarshalYAML(n *yaml.Node) error {
	b, err := hex.DecodeString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: text string is not hex: %w", n.Line, err)
	}
	*t = DecodeTextString(b)
	return nil
}

// HexBytes is a byte slice persisted as a hex string.
type HexBytes []byte

func (h HexBytes) MarshalYAML() (interface{}, error) {
	return hex.EncodeToString(h), nil
}

func (h *HexBytes) UnmarshalYAML(n *yaml.Node) error {
	b, err := hex.DecodeString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: byte string is not hex: %w", n.Line, err)
	}
	*h = b
	return nil
}
