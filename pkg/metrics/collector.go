// Package metrics counts validation outcomes in a private Prometheus
// registry that the CLI dumps in text exposition format.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

// Collector owns the registry and the counters.
type Collector struct {
	reg        *prometheus.Registry
	violations *prometheus.CounterVec
	verdicts   *prometheus.CounterVec
	fixes      *prometheus.CounterVec
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tagverify",
				Name:      "violations_total",
				Help:      "Conformance violations by validator, check and phase.",
			},
			[]string{"validator", "check_id", "phase"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tagverify",
				Name:      "documents_total",
				Help:      "Validated documents by validator, standard and verdict.",
			},
			[]string{"validator", "standard", "verdict"},
		),
		fixes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tagverify",
				Name:      "repairs_total",
				Help:      "Relation repairs applied during validation.",
			},
			[]string{"validator"},
		),
	}
	c.reg.MustRegister(c.violations, c.verdicts, c.fixes)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Recorder observes reports on behalf of one validator.
type Recorder struct {
	c         *Collector
	validator string
}

// Validator returns a recorder labelled with name ("internal", "external").
func (c *Collector) Validator(name string) Recorder {
	return Recorder{c: c, validator: name}
}

// Observe counts a finished report.
func (r Recorder) Observe(v document.Version, rep *report.Report) {
	for _, m := range rep.Messages {
		r.c.violations.WithLabelValues(r.validator, m.CheckID, string(m.Phase)).Inc()
	}
	verdict := "pass"
	if !rep.IsValid() {
		verdict = "fail"
	}
	r.c.verdicts.WithLabelValues(r.validator, v.String(), verdict).Inc()
	if len(rep.Fixes) > 0 {
		r.c.fixes.WithLabelValues(r.validator).Add(float64(len(rep.Fixes)))
	}
}

// Write dumps every metric family in the text exposition format.
func (c *Collector) Write(w io.Writer) error {
	families, err := c.reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
