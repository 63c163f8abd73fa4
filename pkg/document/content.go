package document

// OpKind is a content stream operator.
type OpKind string

const (
	OpBeginTag   OpKind = "BDC"
	OpEndTag     OpKind = "EMC"
	OpShowText   OpKind = "Tj"  // character codes with a known unicode mapping
	OpShowGlyphs OpKind = "TJ"  // explicit glyph ids
	OpShowBytes  OpKind = "Tj*" // already-encoded byte array
	OpDraw       OpKind = "Do"
)

// Glyph is a glyph id with the text its ToUnicode entry maps to.
type Glyph struct {
	ID      uint16 `yaml:"gid"`
	Unicode string `yaml:"unicode,omitempty"`
}

// Operator is one content stream operation. A BDC carries either an MCID
// bound to the structure tree or inline tag properties.
type Operator struct {
	Op         OpKind   `yaml:"op"`
	Tag        string   `yaml:"tag,omitempty"`
	MCID       *int     `yaml:"mcid,omitempty"`
	Alt        *string  `yaml:"alt,omitempty"`
	ActualText *string  `yaml:"actualText,omitempty"`
	Text       string   `yaml:"text,omitempty"`
	Glyphs     []Glyph  `yaml:"glyphs,omitempty"`
	Bytes      HexBytes `yaml:"bytes,omitempty"`
	Name       string   `yaml:"name,omitempty"`
}

// ShownText returns the unicode text a show operator paints. The byte-array
// form has no recoverable text and returns false.
func (op Operator) ShownText() (string, bool) {
	switch op.Op {
	case OpShowText:
		return op.Text, true
	case OpShowGlyphs:
		var s []rune
		for _, g := range op.Glyphs {
			s = append(s, []rune(g.Unicode)...)
		}
		return string(s), true
	}
	return "", false
}

// ContentStream is the ordered operator list of one page stream.
type ContentStream struct {
	ID   int        `yaml:"id"`
	Page int        `yaml:"page"`
	Ops  []Operator `yaml:"ops"`

	nextMCID int
}

func (s *ContentStream) allocateMCID() int {
	id := s.nextMCID
	s.nextMCID++
	return id
}

// Append adds an operator.
func (s *ContentStream) Append(op Operator) {
	s.Ops = append(s.Ops, op)
}

func (s *ContentStream) syncMCID() {
	for _, op := range s.Ops {
		if op.MCID != nil && *op.MCID >= s.nextMCID {
			s.nextMCID = *op.MCID + 1
		}
	}
}

// TagProperties are the attributes an open operator carries inline.
type TagProperties struct {
	Role       string
	Alt        *string
	ActualText *string
}

// TagReference ties a marked-content sequence to a structure node.
type TagReference struct {
	Stream    int
	Page      int
	MCID      int
	Node      NodeID
	Role      string
	Namespace string
}
