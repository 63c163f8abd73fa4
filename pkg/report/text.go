package report

import (
	"fmt"
	"io"
)

// WriteText writes human-readable validation output to w.
func (r *Report) WriteText(w io.Writer) {
	for _, m := range r.Messages {
		fmt.Fprintln(w, m.String())
	}
	for _, f := range r.Fixes {
		fmt.Fprintf(w, "FIXED(%s): %s [%s]\n", f.CheckID, f.Description, f.Location)
	}
	if r.IsValid() {
		fmt.Fprintln(w, "No conformance errors detected.")
	} else {
		fmt.Fprintf(w, "Check finished. Errors: %d, Warnings: %d, Fatal: %d\n",
			r.ErrorCount(), r.WarningCount(), r.FatalCount())
	}
}
