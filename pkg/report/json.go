package report

import (
	"encoding/json"
	"io"
)

// JSONOutput is the JSON structure written to output files.
type JSONOutput struct {
	Valid        bool      `json:"valid"`
	Standard     string    `json:"standard,omitempty"`
	Messages     []Message `json:"messages"`
	Fixes        []Fix     `json:"fixes,omitempty"`
	FatalCount   int       `json:"fatal_count"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
}

// WriteJSON writes the report in JSON format to w.
func (r *Report) WriteJSON(w io.Writer, standard string) error {
	out := JSONOutput{
		Valid:        r.IsValid(),
		Standard:     standard,
		Messages:     r.Messages,
		Fixes:        r.Fixes,
		FatalCount:   r.FatalCount(),
		ErrorCount:   r.ErrorCount(),
		WarningCount: r.WarningCount(),
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ReadJSON parses output written by WriteJSON back into a report.
func ReadJSON(r io.Reader) (*Report, error) {
	var out JSONOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return &Report{Messages: out.Messages, Fixes: out.Fixes}, nil
}
