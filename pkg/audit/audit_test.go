package audit

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/validate"
)

// compare runs the embedded checker and the audit over the same document.
func compare(t *testing.T, d *document.Document) (report.Agreement, *report.Report, *report.Report) {
	t.Helper()
	internal := validate.Validate(d, validate.Options{})
	external, err := Document(d, Options{})
	require.NoError(t, err)
	return report.Compare(internal, external, d.Version.String(), report.KnownDivergences), internal, external
}

func ids(r *report.Report) []string {
	var out []string
	for _, m := range r.Messages {
		out = append(out, m.CheckID)
	}
	return out
}

func knownOnly(t *testing.T, a report.Agreement, side report.Side, checkID string) {
	t.Helper()
	require.Len(t, a.Differences, 1, "%+v", a.Differences)
	d := a.Differences[0]
	assert.Equal(t, side, d.Side)
	assert.Equal(t, checkID, d.Message.CheckID)
	require.NotNil(t, d.Known)
	assert.Equal(t, d.Known.Reason, d.Message.Reason)
	assert.True(t, a.Agrees())
}

func TestCleanDocumentAgrees(t *testing.T) {
	d := document.New(document.UA2)
	d.SetLang("de", document.UTF16BE)
	cur := d.Tree.Cursor()
	cur.AddTag("H1")
	target := cur.CreateReference()
	cur.MoveToRoot()
	cur.AddTag("TOC").AddTag("TOCI").AddTag("Reference")
	require.NoError(t, cur.AddRef(target))

	a, internal, external := compare(t, d)
	assert.Empty(t, a.Differences)
	assert.True(t, internal.IsValid())
	assert.True(t, external.IsValid())
}

func TestEmptyAltToleratedUnderUA2Only(t *testing.T) {
	build := func(v document.Version) *document.Document {
		d := document.New(v)
		d.Tree.Cursor().AddTag("Figure").SetAlt("")
		return d
	}

	a, _, external := compare(t, build(document.UA2))
	assert.True(t, external.IsValid())
	knownOnly(t, a, report.InternalOnly, report.AltMissing)

	a, _, external = compare(t, build(document.UA1))
	assert.True(t, external.Has(report.AltMissing))
	assert.Empty(t, a.Differences)
}

func TestLongRoleChainAgrees(t *testing.T) {
	d := document.New(document.UA1)
	for i := 0; i < 70; i++ {
		d.Tree.MapRole(fmt.Sprintf("R%d", i), fmt.Sprintf("R%d", i+1))
	}
	d.Tree.MapRole("R70", "Figure")
	d.Tree.Cursor().AddTag("R0")

	a, internal, external := compare(t, d)
	assert.Empty(t, a.Differences)
	assert.False(t, internal.Has(report.RoleMappingCycle))
	assert.Equal(t, []string{report.AltMissing}, ids(external))
	assert.Equal(t, "node 1 (R0)", external.Messages[0].Location)
}

func TestLossyLanguageIsInternalOnly(t *testing.T) {
	d := document.New(document.UA1)
	d.SetLang("en\uE000", document.SingleByte)
	a, _, _ := compare(t, d)
	knownOnly(t, a, report.InternalOnly, report.PUAInLang)

	d.SetLang("en\uE000", document.UTF16BE)
	a, internal, external := compare(t, d)
	assert.Empty(t, a.Differences)
	assert.True(t, internal.Has(report.PUAInLang))
	assert.True(t, external.Has(report.PUAInLang))
}

func TestLossyAnnotationIsInternalOnly(t *testing.T) {
	d := document.New(document.UA1)
	tu := document.NewTextString("button \uF000", document.SingleByte)
	d.Annotations = []document.Annotation{{Subtype: "Widget", Page: 1, AltName: &tu}}
	a, _, _ := compare(t, d)
	knownOnly(t, a, report.InternalOnly, report.PUAInAnnotation)
	assert.Equal(t, "annotation 0 TU", a.Differences[0].Message.Location)
}

func TestInfoDictionaryIsExternalOnly(t *testing.T) {
	d := document.New(document.UA2)
	d.Info = map[string]document.TextString{
		"Title":  document.NewTextString("Quarterly \uE010", document.UTF16BE),
		"Author": document.NewTextString("plain", document.UTF16BE),
	}
	a, _, external := compare(t, d)
	knownOnly(t, a, report.ExternalOnly, report.PUAInInfo)
	assert.Equal(t, "info Title", external.Messages[0].Location)
}

func TestByteArrayTextIsExemptInternally(t *testing.T) {
	d := document.New(document.UA1)
	c := validate.NewChecker(d, validate.Options{})
	canvas := c.NewPage(1)
	p := d.Tree.Cursor().AddTag("P")
	require.NoError(t, canvas.OpenTag(p.TagReference(canvas.Stream())))
	canvas.ShowBytes([]byte("\uE001"))
	require.NoError(t, canvas.CloseTag())
	internal, err := c.Close()
	require.NoError(t, err)
	assert.True(t, internal.IsValid())

	external, err := Document(d, Options{})
	require.NoError(t, err)
	a := report.Compare(internal, external, "UA-1", report.KnownDivergences)
	knownOnly(t, a, report.ExternalOnly, report.PUAInContent)
}

func TestTaggedPrivateUseAgrees(t *testing.T) {
	d := document.New(document.UA2)
	c := validate.NewChecker(d, validate.Options{})
	canvas := c.NewPage(3)
	cur := d.Tree.Cursor()
	p := cur.AddTag("P")
	require.NoError(t, canvas.OpenTag(p.TagReference(canvas.Stream())))
	canvas.ShowGlyphs([]document.Glyph{{ID: 3, Unicode: "\uE0A0"}})
	require.NoError(t, canvas.CloseTag())
	cur.MoveToRoot()
	span := cur.AddTag("Span").SetActualText("arrow")
	require.NoError(t, canvas.OpenTag(span.TagReference(canvas.Stream())))
	canvas.ShowText("\uE0A1")
	require.NoError(t, canvas.CloseTag())

	internal, err := c.Close()
	require.NoError(t, err)
	external, err := Document(d, Options{})
	require.NoError(t, err)

	a := report.Compare(internal, external, "UA-2", report.KnownDivergences)
	assert.Empty(t, a.Differences)
	require.Len(t, external.Messages, 1)
	assert.Equal(t, "stream 0 page 3 op 1", external.Messages[0].Location)
}

func TestStructuralFailuresAgree(t *testing.T) {
	cycle := document.New(document.UA1)
	cycle.Tree.MapRole("Loop", "Back")
	cycle.Tree.MapRole("Back", "Loop")
	cycle.Tree.Cursor().AddTag("Loop")

	lists := document.New(document.UA1)
	lists.Tree.Cursor().AddTag("L").AddTag("LI").AddTag("LI")

	open := document.New(document.UA1)
	open.AddStream(1).Append(document.Operator{Op: document.OpBeginTag, Tag: "Span"})

	for name, tc := range map[string]struct {
		doc   *document.Document
		check string
	}{
		"cycle":      {cycle, report.RoleMappingCycle},
		"relation":   {lists, report.IllegalRelation},
		"unbalanced": {open, report.UnbalancedTags},
	} {
		t.Run(name, func(t *testing.T) {
			a, internal, external := compare(t, tc.doc)
			assert.Empty(t, a.Differences)
			assert.True(t, external.Has(tc.check))
			assert.Equal(t, 1, internal.FatalCount())
		})
	}
}

func TestRepairedHeadingsAgree(t *testing.T) {
	d := document.New(document.UA1)
	d.Tree.Cursor().AddTag("H3").AddTag("H3")
	a, internal, _ := compare(t, d)
	assert.Len(t, internal.Fixes, 1)
	assert.Empty(t, a.Differences)
}

func TestDocumentLevelChecksAgree(t *testing.T) {
	d := document.New(document.UA2)
	d.Tree.Cursor().AddTag("TOC").AddTag("TOCI")
	d.FileSpecs = []document.FileSpec{{Name: "a.bin"}}
	d.Encryption = &document.Encryption{Filter: "Standard", Permissions: -3904}
	d.Form = &document.Form{XFA: true, NeedsRendering: true}

	a, internal, external := compare(t, d)
	assert.Empty(t, a.Differences)
	assert.Equal(t, 5, internal.ErrorCount())
	assert.Equal(t, 5, external.ErrorCount())
}

func TestFileAndReader(t *testing.T) {
	d := document.New(document.UA1)
	d.Tree.Cursor().AddTag("Figure")
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, d.Save(path))

	r, err := File(path, Options{})
	require.NoError(t, err)
	assert.True(t, r.Has(report.AltMissing))

	_, err = Reader(strings.NewReader("standard: [not, a, version]"), Options{})
	assert.Error(t, err)

	_, err = File(filepath.Join(t.TempDir(), "nope.yaml"), Options{})
	assert.Error(t, err)
}
