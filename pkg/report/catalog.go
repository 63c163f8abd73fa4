package report

import (
	"errors"
	"fmt"
)

// Kind classifies a violation.
type Kind string

const (
	KindStructural Kind = "structural"
	KindAttribute  Kind = "attribute"
	KindReference  Kind = "reference"
	KindFileSpec   Kind = "filespec"
	KindEncoding   Kind = "encoding"
	KindPermission Kind = "permission"
	KindForm       Kind = "form"
)

// Sentinels matched by errors.Is against a *ConformanceError of that kind.
var (
	ErrStructural = errors.New("structural error")
	ErrAttribute  = errors.New("attribute error")
	ErrReference  = errors.New("reference error")
	ErrFileSpec   = errors.New("file specification error")
	ErrEncoding   = errors.New("encoding error")
	ErrPermission = errors.New("permission error")
	ErrForm       = errors.New("form error")
)

var kindErrors = map[Kind]error{
	KindStructural: ErrStructural,
	KindAttribute:  ErrAttribute,
	KindReference:  ErrReference,
	KindFileSpec:   ErrFileSpec,
	KindEncoding:   ErrEncoding,
	KindPermission: ErrPermission,
	KindForm:       ErrForm,
}

// Check IDs.
const (
	AltMissing           = "ALT-001"
	AltMissingOnCanvas   = "ALT-002"
	TOCIWithoutRef       = "TOC-001"
	FileSpecNoEF         = "FIL-001"
	FileSpecNoUF         = "FIL-002"
	PUAInLang            = "PUA-001"
	PUAInAnnotation      = "PUA-002"
	PUAInContent         = "PUA-003"
	PUAInInfo            = "PUA-004"
	RoleMappingCycle     = "STR-001"
	UnbalancedTags       = "STR-002"
	UnresolvedMCID       = "STR-003"
	IllegalRelation      = "STR-004"
	PermissionBitMissing = "PRM-001"
	DynamicForm          = "FRM-001"
)

// Entry is a catalog row. Text is part of the compatibility surface:
// consumers match on it, so it must not change.
type Entry struct {
	Severity Severity
	Kind     Kind
	Text     string
}

// Catalog maps every check ID to its fixed message.
var Catalog = map[string]Entry{
	AltMissing: {Error, KindAttribute,
		"Figure and Formula tags shall include an alternative representation or replacement text that represents the contents marked with the tag"},
	AltMissingOnCanvas: {Error, KindAttribute,
		"Tag with unconditional alternative text requirement is opened on the canvas without Alt or ActualText and no structure element can supply one"},
	TOCIWithoutRef: {Error, KindReference,
		"TOCI element shall contain, directly or in its descendants, a structure element with a non-empty Ref entry"},
	FileSpecNoEF: {Error, KindFileSpec,
		"The file specification dictionary for an embedded file shall contain the EF key"},
	FileSpecNoUF: {Error, KindFileSpec,
		"The file specification dictionary for an embedded file shall contain the F and UF keys"},
	PUAInLang: {Error, KindEncoding,
		"The document language shall not contain Unicode Private Use Area code points"},
	PUAInAnnotation: {Error, KindEncoding,
		"Annotation text shall not contain Unicode Private Use Area code points"},
	PUAInContent: {Error, KindEncoding,
		"Text containing Unicode Private Use Area code points shall be tagged with an ActualText or Alt entry"},
	PUAInInfo: {Error, KindEncoding,
		"Document information entries shall not contain Unicode Private Use Area code points"},
	RoleMappingCycle: {Fatal, KindStructural,
		"Role mapping of a structure element type contains a cycle"},
	UnbalancedTags: {Fatal, KindStructural,
		"Marked content sequences shall be properly nested within a content stream"},
	UnresolvedMCID: {Fatal, KindStructural,
		"Marked content identifier does not resolve to a structure element"},
	IllegalRelation: {Fatal, KindStructural,
		"Structure element is not permitted as a child of its parent and cannot be repaired"},
	PermissionBitMissing: {Error, KindPermission,
		"The permission to extract content for accessibility (bit 10 of the P entry) shall be set in encrypted documents"},
	DynamicForm: {Error, KindForm,
		"The document shall not contain a dynamic XFA form (NeedsRendering is true)"},
}

// ConformanceError is the typed failure returned by AssertValid and by
// aborted immediate-phase writes.
type ConformanceError struct {
	Violation Message
}

func (e *ConformanceError) Error() string {
	return fmt.Sprintf("conformance: %s", e.Violation)
}

// Is matches the kind sentinel for the violation.
func (e *ConformanceError) Is(target error) bool {
	return kindErrors[e.Violation.Kind] == target
}

// CheckID returns the violated check.
func (e *ConformanceError) CheckID() string { return e.Violation.CheckID }
