package report

import "sort"

// Side names the validator that reported a message the other did not.
type Side string

const (
	InternalOnly Side = "internal-only"
	ExternalOnly Side = "external-only"
)

// Reasons tag the messages whose condition the two validators judge
// differently.
const (
	ReasonAbortedWrite  = "aborted-write"
	ReasonEmptyAlt      = "empty-alt"
	ReasonLossyEncoding = "lossy-encoding"
	ReasonByteArray     = "byte-array"
	ReasonInfoString    = "info-string"
)

// KnownDivergence is a documented disagreement between the embedded
// checker and the external reference validator. An entry with a Reason
// only explains messages tagged with that reason; an empty Reason accepts
// every message of the check. Standard restricts the entry to one standard
// version ("" matches any).
type KnownDivergence struct {
	CheckID  string `json:"check_id" yaml:"check_id"`
	Side     Side   `json:"side" yaml:"side"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Standard string `json:"standard,omitempty" yaml:"standard,omitempty"`
	Note     string `json:"note" yaml:"note"`
}

// KnownDivergences enumerates the disagreements that are expected rather
// than bugs.
var KnownDivergences = []KnownDivergence{
	{
		CheckID: AltMissingOnCanvas,
		Side:    InternalOnly,
		Reason:  ReasonAbortedWrite,
		Note:    "the aborted write never reaches the artifact",
	},
	{
		CheckID:  AltMissing,
		Side:     InternalOnly,
		Reason:   ReasonEmptyAlt,
		Standard: "UA-2",
		Note:     "empty Alt is tolerated by the reference validator under UA-2 but still flagged internally",
	},
	{
		CheckID: PUAInLang,
		Side:    InternalOnly,
		Reason:  ReasonLossyEncoding,
		Note:    "the single-byte encoding dropped the code point; the internal check scans the pre-encoding value",
	},
	{
		CheckID: PUAInAnnotation,
		Side:    InternalOnly,
		Reason:  ReasonLossyEncoding,
		Note:    "the single-byte encoding dropped the code point; the internal check scans the pre-encoding value",
	},
	{
		CheckID: PUAInContent,
		Side:    ExternalOnly,
		Reason:  ReasonByteArray,
		Note:    "text shown as an already-encoded byte array is not scanned internally",
	},
	{
		CheckID: PUAInInfo,
		Side:    ExternalOnly,
		Reason:  ReasonInfoString,
		Note:    "the internal checker does not scan document information strings",
	},
}

// Difference is a message reported by one side only.
type Difference struct {
	Side    Side             `json:"side"`
	Message Message          `json:"message"`
	Known   *KnownDivergence `json:"known,omitempty"`
}

// Agreement is the outcome of comparing two reports for the same artifact.
type Agreement struct {
	InternalValid bool         `json:"internal_valid"`
	ExternalValid bool         `json:"external_valid"`
	Differences   []Difference `json:"differences,omitempty"`
}

// Unexplained returns the differences no known divergence accounts for.
func (a Agreement) Unexplained() []Difference {
	var out []Difference
	for _, d := range a.Differences {
		if d.Known == nil {
			out = append(out, d)
		}
	}
	return out
}

// Agrees reports whether every difference is a known divergence.
func (a Agreement) Agrees() bool {
	return len(a.Unexplained()) == 0
}

// OnlyOn returns the check IDs reported only by side, sorted and
// de-duplicated.
func (a Agreement) OnlyOn(side Side) []string {
	seen := map[string]bool{}
	var ids []string
	for _, d := range a.Differences {
		if d.Side == side && !seen[d.Message.CheckID] {
			seen[d.Message.CheckID] = true
			ids = append(ids, d.Message.CheckID)
		}
	}
	sort.Strings(ids)
	return ids
}

type messageKey struct {
	checkID, location string
}

// Compare matches FATAL and ERROR messages of the two reports by check ID
// and location and classifies the leftovers against known.
func Compare(internal, external *Report, standard string, known []KnownDivergence) Agreement {
	a := Agreement{
		InternalValid: internal.IsValid(),
		ExternalValid: external.IsValid(),
	}
	ext := countFailures(external)
	for _, m := range failures(internal) {
		k := messageKey{m.CheckID, m.Location}
		if ext[k] > 0 {
			ext[k]--
			continue
		}
		a.Differences = append(a.Differences, classify(InternalOnly, m, standard, known))
	}
	in := countFailures(internal)
	for _, m := range failures(external) {
		k := messageKey{m.CheckID, m.Location}
		if in[k] > 0 {
			in[k]--
			continue
		}
		a.Differences = append(a.Differences, classify(ExternalOnly, m, standard, known))
	}
	return a
}

func failures(r *Report) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.Severity == Fatal || m.Severity == Error {
			out = append(out, m)
		}
	}
	return out
}

func countFailures(r *Report) map[messageKey]int {
	counts := make(map[messageKey]int)
	for _, m := range failures(r) {
		counts[messageKey{m.CheckID, m.Location}]++
	}
	return counts
}

func classify(side Side, m Message, standard string, known []KnownDivergence) Difference {
	d := Difference{Side: side, Message: m}
	for i := range known {
		k := &known[i]
		if k.CheckID == m.CheckID && k.Side == side && (k.Reason == "" || k.Reason == m.Reason) &&
			(k.Standard == "" || k.Standard == standard) {
			d.Known = k
			break
		}
	}
	return d
}
