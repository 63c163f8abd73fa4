package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adammathes/tagverify/pkg/roles"
)

func TestCursorBuildsTree(t *testing.T) {
	tree := NewTree()
	c := tree.Cursor()
	c.AddTag("Sect").AddTag("P")
	require.NoError(t, c.MoveToParent())
	c.AddTag("P")
	require.NoError(t, c.MoveToParent())
	c.AddTag("Figure").SetAlt("chart")

	c.MoveToRoot()
	require.NoError(t, c.MoveToKid(0, "Sect"))
	require.NoError(t, c.MoveToKid(1, "P"))
	assert.Equal(t, "P", c.Role())
	require.NoError(t, c.MoveToParent())
	require.NoError(t, c.MoveToKid(0, "Figure"))
	require.NotNil(t, c.Node().Alt)
	assert.Equal(t, "chart", *c.Node().Alt)

	require.NoError(t, tree.Check())
}

func TestCursorMoveErrors(t *testing.T) {
	tree := NewTree()
	c := tree.Cursor()
	assert.ErrorIs(t, c.MoveToParent(), ErrAtRoot)
	c.AddTag("P")
	c.MoveToRoot()
	assert.ErrorIs(t, c.MoveToKid(0, "Figure"), ErrNoSuchKid)
	assert.ErrorIs(t, c.MoveToKid(1, ""), ErrNoSuchKid)
	assert.NoError(t, c.MoveToKid(0, ""))
}

func TestCursorReferences(t *testing.T) {
	tree := NewTree()
	c := tree.Cursor()
	c.AddTag("H1")
	target := c.CreateReference()
	c.MoveToRoot()
	c.AddTag("TOC").AddTag("TOCI")
	require.NoError(t, c.AddRef(target))
	assert.Equal(t, []NodeID{target}, c.Node().Refs)
	assert.Error(t, c.AddRef(99))
}

func TestWalkPreOrderIgnoresRefs(t *testing.T) {
	tree := NewTree()
	c := tree.Cursor()
	c.AddTag("A").AddTag("A1")
	back := tree.Root
	require.NoError(t, c.AddRef(back)) // a ref pointing up must not loop the walk
	c.MoveToRoot()
	c.AddTag("B")

	var order []string
	err := tree.Walk(func(n *Node, depth int) error {
		order = append(order, strings.Repeat(">", depth)+n.Role)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Document", ">A", ">>A1", ">B"}, order)
}

func TestWalkSkipChildren(t *testing.T) {
	tree := NewTree()
	c := tree.Cursor()
	c.AddTag("Artifact").AddTag("P")
	c.MoveToRoot()
	c.AddTag("P")

	var roles []string
	_ = tree.Walk(func(n *Node, _ int) error {
		roles = append(roles, n.Role)
		if n.Role == "Artifact" {
			return SkipChildren
		}
		return nil
	})
	assert.Equal(t, []string{"Document", "Artifact", "P"}, roles)
}

func TestCheckRejectsDoubleOwnership(t *testing.T) {
	tree := NewTree()
	a := tree.AddNode(tree.Root, "Sect", "")
	b := tree.AddNode(tree.Root, "Sect", "")
	p := tree.AddNode(a.ID, "P", "")
	b.Kids = append(b.Kids, p.ID)
	assert.ErrorIs(t, tree.Check(), ErrMalformedTree)
}

func TestCheckRejectsRootWithParent(t *testing.T) {
	tree := NewTree()
	sect := tree.AddNode(tree.Root, "Sect", "")
	tree.Node(tree.Root).Parent = sect.ID
	assert.ErrorIs(t, tree.Check(), ErrMalformedTree)
}

func TestCursorAtAndAttributes(t *testing.T) {
	tree := NewTree()
	c := tree.Cursor()
	c.AddTag("Table").AddTag("TR").AddTag("TH")
	th := c.CreateReference()

	at, err := tree.CursorAt(th)
	require.NoError(t, err)
	at.SetAttr("Scope", "Column").SetAttr("ColSpan", "2")
	assert.Equal(t, map[string]string{"Scope": "Column", "ColSpan": "2"}, tree.Node(th).Attrs)
	require.NoError(t, at.MoveToParent())
	assert.Equal(t, "TR", at.Role())

	_, err = tree.CursorAt(NodeID(42))
	assert.Error(t, err)
}

func TestRoleMapGeneration(t *testing.T) {
	tree := NewTree()
	g := tree.RoleMapGeneration()
	tree.MapRole("Chart", "Figure")
	assert.NotEqual(t, g, tree.RoleMapGeneration())

	g = tree.RoleMapGeneration()
	tree.MapRoleNS("urn:example:a", "Eq", roles.Target{Role: "Formula"})
	assert.NotEqual(t, g, tree.RoleMapGeneration())
	role, err := tree.NewResolver().Canonical("Eq", "urn:example:a")
	require.NoError(t, err)
	assert.Equal(t, "Formula", role)
}

func TestTextStringEncodings(t *testing.T) {
	const pua = "hello_\uE001"

	utf8 := NewTextString(pua, UTF8)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, utf8.Bytes[:3])
	assert.Equal(t, pua, DecodeTextString(utf8.Bytes).Value)

	utf16 := NewTextString(pua, UTF16BE)
	assert.Equal(t, []byte{0xFE, 0xFF}, utf16.Bytes[:2])
	assert.Equal(t, pua, DecodeTextString(utf16.Bytes).Value)

	single := NewTextString(pua, SingleByte)
	assert.Equal(t, []byte("hello_"), single.Bytes)
	assert.Equal(t, pua, single.Value, "pre-encoding value is kept")
	assert.True(t, single.Lossy())

	unmarked := NewTextString(pua, UTF16BEUnmarked)
	decoded := DecodeTextString(unmarked.Bytes)
	assert.Equal(t, SingleByte, decoded.Encoding)
	assert.NotContains(t, decoded.Value, "\uE001")
}

func TestPermissionBits(t *testing.T) {
	e := &Encryption{Permissions: -3904} // 0xFFFFF0C0, bit 10 clear
	assert.False(t, e.HasPermission(PermExtractForAccessibility))
	e.Permissions |= 1 << 9
	assert.True(t, e.HasPermission(PermExtractForAccessibility))
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := New(UA2)
	d.SetLang("en-US", UTF16BE)
	d.Info = map[string]TextString{"Title": NewTextString("Report", SingleByte)}
	s := d.AddStream(1)

	c := d.Tree.Cursor()
	c.AddTag("Figure").SetActualText("")
	ref := c.TagReference(s)
	mcid := ref.MCID
	s.Append(Operator{Op: OpBeginTag, Tag: "Figure", MCID: &mcid})
	s.Append(Operator{Op: OpShowBytes, Bytes: HexBytes{0x01, 0x02}})
	s.Append(Operator{Op: OpEndTag})

	d.FileSpecs = []FileSpec{{Name: "data.csv", EF: &EmbeddedFile{Data: HexBytes("a,b")}}}
	d.Encryption = &Encryption{Filter: "Standard", Permissions: -4}

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, UA2, got.Version)
	assert.Equal(t, "en-US", got.Lang.Value)
	assert.Equal(t, UTF16BE, got.Lang.Encoding)
	assert.Equal(t, "Report", got.Info["Title"].Value)

	fig := got.Tree.Node(1)
	require.NotNil(t, fig.ActualText)
	assert.Equal(t, "", *fig.ActualText)
	assert.Nil(t, fig.Alt)

	id, ok := got.Tree.MarkedContent(0, mcid)
	require.True(t, ok)
	assert.Equal(t, fig.ID, id)
	assert.Equal(t, HexBytes{0x01, 0x02}, got.Streams[0].Ops[1].Bytes)
	assert.Nil(t, got.FileSpecs[0].UF)
	assert.Equal(t, int32(-4), got.Encryption.Permissions)

	// A new tag on the reloaded stream must not reuse an MCID.
	c2 := got.Tree.Cursor()
	c2.AddTag("P")
	assert.Equal(t, mcid+1, c2.TagReference(got.Streams[0]).MCID)
}

func TestDecodeJSON(t *testing.T) {
	src := `{
  "standard": "UA-1",
  "structTree": {
    "root": 0,
    "roleMap": {"Chart": "Figure"},
    "nodes": [
      {"id": 0, "role": "Document", "parent": -1, "kids": [1]},
      {"id": 1, "role": "Chart", "parent": 0, "alt": ""}
    ]
  }
}`
	d, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, UA1, d.Version)
	role, err := d.Tree.NewResolver().Canonical("Chart", "")
	require.NoError(t, err)
	assert.Equal(t, "Figure", role)
	require.NotNil(t, d.Tree.Node(1).Alt)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no version", "structTree: {root: 0, nodes: [{id: 0, role: Document, parent: -1}]}"},
		{"bad version", "standard: UA-9"},
		{"unknown field", "standard: UA-1\nbogus: 1"},
		{"orphan", "standard: UA-1\nstructTree: {root: 0, nodes: [{id: 0, role: Document, parent: -1}, {id: 1, role: P, parent: 0}]}"},
		{"bad hex", "standard: UA-1\nlang: zz"},
		{"root with parent", "standard: UA-1\nstructTree: {root: 0, nodes: [{id: 0, role: Document, parent: 1, kids: [1]}, {id: 1, role: Sect, parent: 0}]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}
