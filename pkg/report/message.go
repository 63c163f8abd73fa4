package report

import "fmt"

// Severity levels for validation messages.
type Severity string

const (
	Fatal   Severity = "FATAL"
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
	Info    Severity = "INFO"
)

// Phase records when a check fired.
type Phase string

const (
	// Immediate checks run inline on a content write and abort it.
	Immediate Phase = "immediate"
	// Finalization checks run once, when the document is closed.
	Finalization Phase = "finalization"
)

// Message represents a single validation finding.
type Message struct {
	Severity Severity `json:"severity"`
	CheckID  string   `json:"check_id"`
	Kind     Kind     `json:"kind"`
	Phase    Phase    `json:"phase"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
	// Reason names the condition behind a message when that condition is
	// one the other validator is known to judge differently.
	Reason string `json:"reason,omitempty"`
}

// Because returns m tagged with reason.
func (m Message) Because(reason string) Message {
	m.Reason = reason
	return m
}

func (m Message) String() string {
	if m.Location != "" {
		return fmt.Sprintf("%s(%s): %s [%s]", m.Severity, m.CheckID, m.Message, m.Location)
	}
	return fmt.Sprintf("%s(%s): %s", m.Severity, m.CheckID, m.Message)
}

// Fix records a structural repair applied during validation.
type Fix struct {
	CheckID     string `json:"check_id"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// Report collects all messages from a validation run.
type Report struct {
	Messages []Message `json:"messages"`
	Fixes    []Fix     `json:"fixes,omitempty"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// New builds the catalog message for checkID. Unknown IDs panic: every
// check must be registered in the catalog.
func New(checkID string, phase Phase, location string) Message {
	e, ok := Catalog[checkID]
	if !ok {
		panic(fmt.Sprintf("report: check %s is not in the message catalog", checkID))
	}
	return Message{
		Severity: e.Severity,
		CheckID:  checkID,
		Kind:     e.Kind,
		Phase:    phase,
		Message:  e.Text,
		Location: location,
	}
}

// Add appends a catalog message to the report and returns it.
func (r *Report) Add(checkID string, phase Phase, location string) Message {
	m := New(checkID, phase, location)
	r.Messages = append(r.Messages, m)
	return m
}

// Append appends already-built messages.
func (r *Report) Append(msgs ...Message) {
	r.Messages = append(r.Messages, msgs...)
}

// AddFix records a repair.
func (r *Report) AddFix(checkID, description, location string) {
	r.Fixes = append(r.Fixes, Fix{CheckID: checkID, Description: description, Location: location})
}

// FatalCount returns the number of FATAL messages.
func (r *Report) FatalCount() int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == Fatal {
			n++
		}
	}
	return n
}

// ErrorCount returns the number of ERROR messages.
func (r *Report) ErrorCount() int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == Error {
			n++
		}
	}
	return n
}

// WarningCount returns the number of WARNING messages.
func (r *Report) WarningCount() int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == Warning {
			n++
		}
	}
	return n
}

// IsValid returns true if there are no FATAL or ERROR messages.
func (r *Report) IsValid() bool {
	return r.FatalCount() == 0 && r.ErrorCount() == 0
}

// First returns the first FATAL or ERROR message in recording order.
func (r *Report) First() (Message, bool) {
	for _, m := range r.Messages {
		if m.Severity == Fatal || m.Severity == Error {
			return m, true
		}
	}
	return Message{}, false
}

// ByPhase returns the messages recorded in phase.
func (r *Report) ByPhase(p Phase) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.Phase == p {
			out = append(out, m)
		}
	}
	return out
}

// Has reports whether a message with checkID was recorded.
func (r *Report) Has(checkID string) bool {
	for _, m := range r.Messages {
		if m.CheckID == checkID {
			return true
		}
	}
	return false
}

// HasAt reports whether a message with checkID was recorded at location.
func (r *Report) HasAt(checkID, location string) bool {
	for _, m := range r.Messages {
		if m.CheckID == checkID && m.Location == location {
			return true
		}
	}
	return false
}

// AssertValid returns nil for a passing report and otherwise a
// *ConformanceError carrying the first recorded violation.
func (r *Report) AssertValid() error {
	m, ok := r.First()
	if !ok {
		return nil
	}
	return &ConformanceError{Violation: m}
}

// Location formats shared by every validator, so reports from independent
// passes can be matched message by message.

// NodeLocation locates a structure element.
func NodeLocation(id int, role string) string {
	return fmt.Sprintf("node %d (%s)", id, role)
}

// StreamLocation locates a content stream.
func StreamLocation(stream, page int) string {
	return fmt.Sprintf("stream %d page %d", stream, page)
}

// OpLocation locates one operator of a content stream.
func OpLocation(stream, page, op int) string {
	return fmt.Sprintf("stream %d page %d op %d", stream, page, op)
}
