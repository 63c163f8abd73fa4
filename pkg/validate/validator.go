// Package validate is the embedded conformance checker: immediate checks on
// content writes, pre-finalization hooks, and a single finalization pass
// over the structure tree and document-level locations.
package validate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/adammathes/tagverify/internal/logging"
	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/roles"
	"github.com/adammathes/tagverify/pkg/tagging"
)

// Observer receives every finished report.
type Observer interface {
	Observe(version document.Version, r *report.Report)
}

// Options configures validation behavior.
type Options struct {
	// Strict turns repairable parent/child relations into fatal errors
	// instead of retagging the child.
	Strict bool

	// Logger receives debug output for each phase. Nil discards it.
	Logger *slog.Logger

	// Observer, if set, is called with the final report.
	Observer Observer

	// Registry overrides the default rule set.
	Registry *Registry
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.NewNop()
	}
	return o.Logger
}

func (o Options) registry() *Registry {
	if o.Registry == nil {
		return DefaultRegistry()
	}
	return o.Registry
}

// Validate runs the finalization pass over a finished document.
func Validate(doc *document.Document, opts Options) *report.Report {
	r := report.NewReport()
	finalize(doc, r, opts)
	if opts.Observer != nil {
		opts.Observer.Observe(doc.Version, r)
	}
	return r
}

// ValidateFile reads an artifact snapshot and validates it.
func ValidateFile(path string, opts Options) (*report.Report, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	return Validate(doc, opts), nil
}

// ErrClosed is returned when a checker is used after Close.
var ErrClosed = errors.New("checker already closed")

// Hook runs after all content is written and before finalization. Hooks
// may still modify the document.
type Hook func(doc *document.Document) error

// Checker follows one document through production. Content written through
// its canvases is checked as it is written; Close runs the hooks and then
// the finalization pass.
type Checker struct {
	doc    *document.Document
	opts   Options
	rep    *report.Report
	hooks  []Hook
	closed bool

	resolver *roles.Resolver
	mapGen   int
}

// NewChecker creates a checker for doc.
func NewChecker(doc *document.Document, opts Options) *Checker {
	return &Checker{doc: doc, opts: opts, rep: report.NewReport()}
}

// Document returns the document under production.
func (c *Checker) Document() *document.Document { return c.doc }

// Canvas returns a canvas writing to s with the immediate checks
// installed. Violations it reports are kept for the final report.
func (c *Checker) Canvas(s *document.ContentStream) *tagging.Canvas {
	return tagging.NewCanvas(s, c.doc.Tree, c.openCheck, func(m report.Message) {
		c.opts.logger().Debug("immediate violation", "check", m.CheckID, "location", m.Location)
		c.rep.Append(m)
	})
}

// NewPage adds a content stream for page and returns a canvas on it.
func (c *Checker) NewPage(page int) *tagging.Canvas {
	return c.Canvas(c.doc.AddStream(page))
}

// roleResolver returns the cached resolver for the immediate checks,
// rebuilt after the tree's role maps changed.
func (c *Checker) roleResolver() *roles.Resolver {
	if gen := c.doc.Tree.RoleMapGeneration(); c.resolver == nil || gen != c.mapGen {
		c.resolver = c.doc.Tree.NewResolver()
		c.mapGen = gen
	}
	return c.resolver
}

// BeforeFinalization registers a hook.
func (c *Checker) BeforeFinalization(h Hook) {
	c.hooks = append(c.hooks, h)
}

// Close runs the hooks in registration order, then finalization. A hook
// error aborts Close; the report holds whatever was recorded until then.
func (c *Checker) Close() (*report.Report, error) {
	if c.closed {
		return c.rep, ErrClosed
	}
	c.closed = true
	for i, h := range c.hooks {
		if err := h(c.doc); err != nil {
			return c.rep, fmt.Errorf("before-finalization hook %d: %w", i, err)
		}
	}
	c.resolver = nil
	finalize(c.doc, c.rep, c.opts)
	if c.opts.Observer != nil {
		c.opts.Observer.Observe(c.doc.Version, c.rep)
	}
	return c.rep, nil
}

// finalize runs the phases in order. A phase returning true hit a fatal
// structural violation and ends the pass.
func finalize(doc *document.Document, r *report.Report, opts Options) {
	log := opts.logger()
	ctx := newContext(doc, log)
	reg := opts.registry()

	// Phase 1: structure walk (role resolution, relations, node rules)
	if fatal := checkStructure(ctx, r, reg, opts); fatal {
		log.Debug("finalization stopped", "phase", "structure")
		return
	}

	// Phase 2: marked content replay
	if fatal := checkMarkedContent(ctx, r); fatal {
		log.Debug("finalization stopped", "phase", "content")
		return
	}

	// Phase 3: document-level locations
	for _, rule := range reg.documents {
		r.Append(rule(ctx)...)
	}
	log.Debug("finalization done", "standard", doc.Version.String(),
		"errors", r.ErrorCount(), "fixes", len(r.Fixes))
}
