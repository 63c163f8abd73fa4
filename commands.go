package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adammathes/tagverify/pkg/audit"
	"github.com/adammathes/tagverify/pkg/doctor"
	"github.com/adammathes/tagverify/pkg/report"
	"github.com/adammathes/tagverify/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <artifact>",
	Short: "Run the embedded checker's finalization pass over an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		doc, err := s.open(args[0])
		if err != nil {
			return err
		}
		r := validate.Validate(doc, validate.Options{
			Strict:   s.cfg.Strict,
			Logger:   s.log,
			Observer: s.observer("internal"),
		})
		return s.finish(r, doc.Version.String())
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <artifact>",
	Short: "Re-validate a written artifact with the reference validator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		doc, err := s.open(args[0])
		if err != nil {
			return err
		}
		r, err := audit.Document(doc, audit.Options{Logger: s.log, Observer: s.observer("external")})
		if err != nil {
			return err
		}
		return s.finish(r, doc.Version.String())
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <artifact>",
	Short: "Run both validators and classify where they disagree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		// Each validator gets its own copy; the checker may repair in memory.
		internalDoc, err := s.open(args[0])
		if err != nil {
			return err
		}
		externalDoc, err := s.open(args[0])
		if err != nil {
			return err
		}
		internal := validate.Validate(internalDoc, validate.Options{
			Strict:   s.cfg.Strict,
			Logger:   s.log,
			Observer: s.observer("internal"),
		})
		external, err := audit.Document(externalDoc, audit.Options{Logger: s.log, Observer: s.observer("external")})
		if err != nil {
			return err
		}
		standard := internalDoc.Version.String()
		a := report.Compare(internal, external, standard, s.cfg.KnownDivergences())
		writeAgreement(a)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
		if !a.Agrees() {
			exitStatus = 1
		}
		return s.dumpMetrics()
	},
}

func writeAgreement(a report.Agreement) {
	fmt.Fprintf(os.Stderr, "internal valid: %v, external valid: %v\n", a.InternalValid, a.ExternalValid)
	for _, d := range a.Differences {
		if d.Known != nil {
			fmt.Fprintf(os.Stderr, "  %s %s [known: %s]\n", d.Side, d.Message, d.Known.Note)
		} else {
			fmt.Fprintf(os.Stderr, "  %s %s [UNEXPLAINED]\n", d.Side, d.Message)
		}
	}
	if a.Agrees() {
		fmt.Fprintln(os.Stderr, "Validators agree.")
	} else {
		fmt.Fprintf(os.Stderr, "Validators disagree: %d unexplained differences\n", len(a.Unexplained()))
	}
}

var doctorCmd = &cobra.Command{
	Use:   "doctor <artifact>",
	Short: "Apply mechanical fixes and write a repaired artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		res, err := doctor.Repair(args[0], out, validate.Options{Logger: s.log, Observer: s.observer("internal")})
		if err != nil {
			return err
		}
		for _, f := range res.Fixes {
			fmt.Fprintf(os.Stderr, "FIXED(%s): %s [%s]\n", f.CheckID, f.Description, f.Location)
		}
		if res.OutputPath != "" {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", res.OutputPath)
		}
		return s.finish(res.AfterReport, "")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tagverify",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tagverify %s\n", version)
	},
}

func init() {
	doctorCmd.Flags().StringP("output", "o", "", "path of the repaired artifact")
	rootCmd.AddCommand(validateCmd, auditCmd, compareCmd, doctorCmd, versionCmd)
}
