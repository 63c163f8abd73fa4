package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adammathes/tagverify/internal/logging"
	"github.com/adammathes/tagverify/pkg/config"
	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/metrics"
	"github.com/adammathes/tagverify/pkg/report"
)

const version = "0.1.0"

// exitStatus is set by the command that ran: 0=valid, 1=errors, 2=fatal.
var exitStatus int

var rootCmd = &cobra.Command{
	Use:   "tagverify",
	Short: "Accessibility conformance checker for tagged documents",
	Long: `tagverify checks a tagged document artifact against PDF/UA-1 or PDF/UA-2,
audits it with an independent reference validator, and compares the two verdicts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(2)
	}
	os.Exit(exitStatus)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML profile to load")
	pf.String("standard", "", "force the standard version (UA-1, UA-2)")
	pf.Bool("strict", false, "refuse relation repairs")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.Bool("metrics", false, "dump Prometheus counters to stderr after the run")
	pf.String("json", "", "also write the JSON report to this file (- for stdout only)")
}

// settings is the resolved configuration of one command run.
type settings struct {
	cfg       *config.Config
	log       *slog.Logger
	collector *metrics.Collector
	jsonPath  string
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Flags()
	cfg := config.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.Changed("standard") {
		cfg.Standard, _ = flags.GetString("standard")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("metrics") {
		cfg.Metrics, _ = flags.GetBool("metrics")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	s := &settings{cfg: cfg, log: logging.New(level)}
	s.jsonPath, _ = flags.GetString("json")
	if cfg.Metrics {
		s.collector = metrics.New()
	}
	return s, nil
}

// open reads an artifact and applies a forced standard version.
func (s *settings) open(path string) (*document.Document, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	if v, forced := s.cfg.Version(); forced {
		doc.Version = v
	}
	s.log.Debug("artifact opened", "path", path, "standard", doc.Version.String(), "nodes", len(doc.Tree.Nodes))
	return doc, nil
}

// observer is satisfied by both validators' Observer interfaces.
type reportObserver interface {
	Observe(v document.Version, r *report.Report)
}

// observer returns the metrics recorder for a validator, or nil.
func (s *settings) observer(validator string) reportObserver {
	if s.collector == nil {
		return nil
	}
	return s.collector.Validator(validator)
}

// finish writes the text report to stderr and the JSON report to stdout
// (and to --json when it names a file), then dumps metrics.
func (s *settings) finish(r *report.Report, standard string) error {
	r.WriteText(os.Stderr)
	if err := r.WriteJSON(os.Stdout, standard); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	if s.jsonPath != "" && s.jsonPath != "-" {
		if err := writeJSON(r, s.jsonPath, standard); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
	}
	exitStatus = statusFor(r)
	return s.dumpMetrics()
}

func (s *settings) dumpMetrics() error {
	if s.collector == nil {
		return nil
	}
	return s.collector.Write(os.Stderr)
}

func statusFor(r *report.Report) int {
	if r.FatalCount() > 0 {
		return 2
	}
	if r.ErrorCount() > 0 {
		return 1
	}
	return 0
}

func writeJSON(r *report.Report, path, standard string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.WriteJSON(f, standard)
}
