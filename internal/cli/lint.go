package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/style"
)

// lintCmd represents the lint command
var lintCmd = &cobra.Command{
	Use:   "lint [contract files...]",
	Short: "Check contract documents for structural errors",
	Long: `Check payload contract documents against the contract meta-schema.

Lint reports every structural problem with its location in the document, for example a
"properties" value that is not a mapping, a "required" list holding non-strings or a
duplicated key.

Examples:
  laqc lint contract.json                # Lint one contract
  laqc lint contracts/*.yaml             # Lint many contracts
  laqc lint --output json contract.json  # JSON report for CI/CD`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return lintDocuments(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

// LintReport holds the issues found in one contract document
type LintReport struct {
	File   string         `json:"file" yaml:"file"`
	Valid  bool           `json:"valid" yaml:"valid"`
	Issues []schema.Issue `json:"issues" yaml:"issues"`
}

// LintSummary represents the summary of all lint results
type LintSummary struct {
	Total   int          `json:"total" yaml:"total"`
	Valid   int          `json:"valid" yaml:"valid"`
	Invalid int          `json:"invalid" yaml:"invalid"`
	Results []LintReport `json:"results" yaml:"results"`
}

func lintDocuments(cmd *cobra.Command, args []string) error {
	if err := checkStdinUse(args); err != nil {
		return err
	}

	summary := LintSummary{Total: len(args), Results: make([]LintReport, 0, len(args))}

	for _, file := range args {
		report := LintReport{File: file, Issues: []schema.Issue{}}

		data, err := readFile(file, cmd.InOrStdin())
		if err != nil {
			report.Issues = append(report.Issues, schema.Issue{Path: "/", Message: err.Error()})
		} else {
			issues, err := schema.Lint(data)
			if err != nil {
				return fmt.Errorf("linting %s: %w", file, err)
			}
			report.Issues = append(report.Issues, issues...)
		}

		report.Valid = len(report.Issues) == 0
		if report.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		summary.Results = append(summary.Results, report)
	}

	out := cmd.OutOrStdout()
	switch outputMode() {
	case "json":
		style.PrintJSON(out, summary)
	case "yaml":
		style.PrintYAML(out, summary)
	default:
		printLintSummary(out, summary)
	}

	if summary.Invalid > 0 {
		return fmt.Errorf("%d of %d contracts have issues", summary.Invalid, summary.Total)
	}
	return nil
}

func printLintSummary(w io.Writer, summary LintSummary) {
	for _, report := range summary.Results {
		if report.Valid {
			if viper.GetBool("verbose") {
				style.Success(w, report.File)
			}
			continue
		}
		printLintIssues(w, report.File, report.Issues)
	}

	if viper.GetBool("quiet") {
		return
	}

	fmt.Fprintln(w)
	if summary.Invalid == 0 {
		style.Success(w, fmt.Sprintf("All %s passed lint", style.Plural(summary.Total, "contract")))
	} else {
		style.Error(w, fmt.Sprintf("%d of %s have issues", summary.Invalid, style.Plural(summary.Total, "contract")))
	}
}
