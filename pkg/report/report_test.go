package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogTextsArePinned(t *testing.T) {
	// Consumers match on these strings.
	assert.Equal(t,
		"Figure and Formula tags shall include an alternative representation or replacement text that represents the contents marked with the tag",
		Catalog[AltMissing].Text)
	assert.Equal(t,
		"TOCI element shall contain, directly or in its descendants, a structure element with a non-empty Ref entry",
		Catalog[TOCIWithoutRef].Text)
	assert.Equal(t,
		"The file specification dictionary for an embedded file shall contain the F and UF keys",
		Catalog[FileSpecNoUF].Text)

	for id, e := range Catalog {
		assert.NotEmpty(t, e.Text, id)
		assert.Contains(t, kindErrors, e.Kind, id)
		if strings.HasPrefix(id, "STR-") {
			assert.Equal(t, Fatal, e.Severity, id)
		}
	}
}

func TestNewPanicsOnUnknownCheck(t *testing.T) {
	assert.Panics(t, func() { New("NOPE-001", Finalization, "") })
}

func TestReportCounts(t *testing.T) {
	r := NewReport()
	assert.True(t, r.IsValid())
	assert.NoError(t, r.AssertValid())

	r.Append(Message{Severity: Warning, CheckID: "W", Phase: Finalization})
	r.Add(TOCIWithoutRef, Finalization, "node 3")
	r.Add(UnbalancedTags, Immediate, "stream 0 page 1")

	assert.False(t, r.IsValid())
	assert.Equal(t, 1, r.FatalCount())
	assert.Equal(t, 1, r.ErrorCount())
	assert.Equal(t, 1, r.WarningCount())
	assert.True(t, r.Has(TOCIWithoutRef))
	assert.False(t, r.Has(AltMissing))
	assert.Len(t, r.ByPhase(Immediate), 1)

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, TOCIWithoutRef, first.CheckID)
}

func TestAssertValidIsTyped(t *testing.T) {
	r := NewReport()
	r.Add(PermissionBitMissing, Finalization, "encryption")

	err := r.AssertValid()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermission)
	assert.False(t, errors.Is(err, ErrStructural))

	var ce *ConformanceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, PermissionBitMissing, ce.CheckID())
	assert.Contains(t, err.Error(), "bit 10")
}

func TestWriteText(t *testing.T) {
	r := NewReport()
	r.AddFix(IllegalRelation, "H1 nested in H1 retagged as Span", "node 4")
	var buf bytes.Buffer
	r.WriteText(&buf)
	assert.Contains(t, buf.String(), "FIXED(STR-004)")
	assert.Contains(t, buf.String(), "No conformance errors detected.")

	r.Add(FileSpecNoEF, Finalization, "file data.csv")
	buf.Reset()
	r.WriteText(&buf)
	assert.Contains(t, buf.String(), "ERROR(FIL-001)")
	assert.Contains(t, buf.String(), "Errors: 1, Warnings: 0, Fatal: 0")
}

func TestJSONRoundTrip(t *testing.T) {
	r := NewReport()
	r.Add(DynamicForm, Finalization, "form")
	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf, "UA-1"))
	assert.Contains(t, buf.String(), `"standard": "UA-1"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, r.Messages, back.Messages)
}

func TestCompareAgreement(t *testing.T) {
	internal := NewReport()
	external := NewReport()
	internal.Add(TOCIWithoutRef, Finalization, "node 2")
	external.Add(TOCIWithoutRef, Finalization, "node 2")

	a := Compare(internal, external, "UA-2", KnownDivergences)
	assert.Empty(t, a.Differences)
	assert.True(t, a.Agrees())
	assert.False(t, a.InternalValid)
	assert.False(t, a.ExternalValid)
}

func TestCompareClassifiesDivergences(t *testing.T) {
	internal := NewReport()
	external := NewReport()
	internal.Append(
		New(AltMissing, Finalization, "node 1").Because(ReasonEmptyAlt),
		New(PUAInLang, Finalization, "catalog").Because(ReasonLossyEncoding),
	)
	external.Append(New(PUAInInfo, Finalization, "info Title").Because(ReasonInfoString))
	external.Add(FileSpecNoUF, Finalization, "file a.txt")

	a := Compare(internal, external, "UA-2", KnownDivergences)
	require.Len(t, a.Differences, 4)
	assert.Equal(t, []string{AltMissing, PUAInLang}, a.OnlyOn(InternalOnly))
	assert.Equal(t, []string{FileSpecNoUF, PUAInInfo}, a.OnlyOn(ExternalOnly))

	unexplained := a.Unexplained()
	require.Len(t, unexplained, 1)
	assert.Equal(t, FileSpecNoUF, unexplained[0].Message.CheckID)
	assert.False(t, a.Agrees())

	// The empty-Alt tolerance only exists under UA-2.
	a = Compare(internal, NewReport(), "UA-1", KnownDivergences)
	for _, d := range a.Differences {
		if d.Message.CheckID == AltMissing {
			assert.Nil(t, d.Known)
		}
	}
}

func TestCompareRequiresMatchingReason(t *testing.T) {
	// A Figure with no Alt at all is not the empty-Alt tolerance.
	internal := NewReport()
	internal.Add(AltMissing, Finalization, "node 1 (Figure)")
	a := Compare(internal, NewReport(), "UA-2", KnownDivergences)
	require.Len(t, a.Unexplained(), 1)
	assert.False(t, a.Agrees())

	// PUA text that survived encoding was missed by the other side.
	internal = NewReport()
	internal.Add(PUAInLang, Finalization, "catalog Lang")
	assert.False(t, Compare(internal, NewReport(), "UA-1", KnownDivergences).Agrees())

	external := NewReport()
	external.Add(PUAInContent, Finalization, "stream 0 page 1 op 1")
	assert.False(t, Compare(NewReport(), external, "UA-1", KnownDivergences).Agrees())

	external = NewReport()
	external.Append(New(PUAInContent, Finalization, "stream 0 page 1 op 1").Because(ReasonEmptyAlt))
	assert.False(t, Compare(NewReport(), external, "UA-1", KnownDivergences).Agrees())

	external = NewReport()
	external.Append(New(PUAInContent, Finalization, "stream 0 page 1 op 1").Because(ReasonByteArray))
	assert.True(t, Compare(NewReport(), external, "UA-1", KnownDivergences).Agrees())
}

func TestBuiltInDivergencesCarryReasons(t *testing.T) {
	for _, k := range KnownDivergences {
		assert.NotEmpty(t, k.Reason, k.CheckID)
	}
}

func TestCompareUntaggedEntryAcceptsAnyReason(t *testing.T) {
	internal := NewReport()
	internal.Add(TOCIWithoutRef, Finalization, "node 3 (TOCI)")
	known := []KnownDivergence{{CheckID: TOCIWithoutRef, Side: InternalOnly}}
	assert.True(t, Compare(internal, NewReport(), "UA-2", known).Agrees())
}

func TestCompareIgnoresWarnings(t *testing.T) {
	internal := NewReport()
	internal.Append(Message{Severity: Warning, CheckID: "W-1"})
	a := Compare(internal, NewReport(), "UA-1", nil)
	assert.Empty(t, a.Differences)
	assert.True(t, a.InternalValid)
}
