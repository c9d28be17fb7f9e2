package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/contracts/internal/contract"
	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/store"
	"github.com/lacquerai/contracts/internal/style"
	"github.com/lacquerai/contracts/internal/validation"
)

// localAgent keys the contract loaded from the command line.
const localAgent = "local"

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate --schema <contract> [data files...]",
	Short: "Validate payload files against a contract",
	Long: `Validate JSON or YAML payload files against a payload contract document.

Every violation is reported with its field path:
- Missing required top-level fields
- Type mismatches (string, number, boolean, array, object)
- Values outside a declared enum
- Violations inside nested objects and array elements

Examples:
  laqc validate --schema contract.json payload.json        # Validate a single payload
  laqc validate --schema contract.yaml data/*.json          # Validate many payloads
  cat payload.json | laqc validate --schema contract.json -  # Read the payload from stdin
  laqc validate --output json --schema contract.json p.json # JSON report for CI/CD`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validatePayloads(cmd, args)
	},
}

var (
	validateSchemaFile  string
	validateMaxDepth    int
	validateConcurrency int
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateSchemaFile, "schema", "s", "", "contract document (JSON or YAML)")
	validateCmd.Flags().IntVar(&validateMaxDepth, "max-depth", validation.DefaultMaxDepth, "maximum nesting depth to validate")
	validateCmd.Flags().IntVar(&validateConcurrency, "concurrency", contract.DefaultBatchConcurrency, "payloads validated concurrently")
	_ = validateCmd.MarkFlagRequired("schema")
}

// PayloadReport is the validation outcome for one payload file
type PayloadReport struct {
	File   string   `json:"file" yaml:"file"`
	Valid  bool     `json:"valid" yaml:"valid"`
	Errors []string `json:"errors" yaml:"errors"`
}

// ValidationSummary represents the summary of all validation results
type ValidationSummary struct {
	Schema   string          `json:"schema" yaml:"schema"`
	Total    int             `json:"total" yaml:"total"`
	Valid    int             `json:"valid" yaml:"valid"`
	Invalid  int             `json:"invalid" yaml:"invalid"`
	Duration time.Duration   `json:"duration" yaml:"duration"`
	Results  []PayloadReport `json:"results" yaml:"results"`
}

func validatePayloads(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := checkStdinUse(append([]string{validateSchemaFile}, args...)); err != nil {
		return err
	}

	raw, err := readFile(validateSchemaFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	svc := contract.NewService(store.NewMemoryStore(),
		contract.WithValidationOptions(validation.Options{MaxDepth: validateMaxDepth}),
		contract.WithBatchConcurrency(validateConcurrency),
	)

	if _, err := svc.SetSchema(ctx, localAgent, store.Input, raw); err != nil {
		var lintErr *contract.LintError
		if errors.As(err, &lintErr) {
			printLintIssues(out, validateSchemaFile, lintErr.Issues)
		}
		return fmt.Errorf("%s is not a valid contract: %w", validateSchemaFile, err)
	}

	results := make([]PayloadReport, len(args))
	payloads := make([]any, 0, len(args))
	indexes := make([]int, 0, len(args))

	for i, file := range args {
		results[i] = PayloadReport{File: file, Errors: []string{}}

		data, err := readFile(file, cmd.InOrStdin())
		if err == nil {
			var payload any
			payload, err = decodePayloadFile(file, data)
			if err == nil {
				payloads = append(payloads, payload)
				indexes = append(indexes, i)
				continue
			}
		}
		results[i].Errors = []string{err.Error()}
	}

	verdicts, err := svc.ValidateBatch(ctx, localAgent, store.Input, payloads)
	if err != nil {
		return err
	}
	for j, verdict := range verdicts {
		i := indexes[j]
		results[i].Valid = verdict.Valid
		results[i].Errors = verdict.Errors
	}

	summary := ValidationSummary{
		Schema:   validateSchemaFile,
		Total:    len(results),
		Duration: time.Since(start),
		Results:  results,
	}
	for _, result := range results {
		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}

		log.Debug().
			Str("file", result.File).
			Bool("valid", result.Valid).
			Int("errors", len(result.Errors)).
			Msg("Validated payload file")
	}

	switch outputMode() {
	case "json":
		style.PrintJSON(out, summary)
	case "yaml":
		style.PrintYAML(out, summary)
	default:
		printValidationSummary(out, summary)
	}

	if summary.Invalid > 0 {
		return fmt.Errorf("%d of %d payloads failed validation", summary.Invalid, summary.Total)
	}
	return nil
}

func printValidationSummary(w io.Writer, summary ValidationSummary) {
	for _, result := range summary.Results {
		if result.Valid {
			if viper.GetBool("verbose") {
				style.Success(w, result.File)
			}
			continue
		}

		style.Error(w, style.FormatFilePath(result.File))
		for _, msg := range result.Errors {
			fmt.Fprintln(w, style.Violation(msg))
		}
	}

	if viper.GetBool("quiet") {
		return
	}

	fmt.Fprintln(w)
	if summary.Invalid == 0 {
		style.Success(w, fmt.Sprintf("All %s valid (%v)", style.Plural(summary.Total, "payload"), summary.Duration.Round(time.Microsecond)))
	} else {
		style.Error(w, fmt.Sprintf("%d of %s failed validation (%v)", summary.Invalid, style.Plural(summary.Total, "payload"), summary.Duration.Round(time.Microsecond)))
	}
}

func printLintIssues(w io.Writer, file string, issues []schema.Issue) {
	style.Error(w, style.FormatFilePath(file))
	for _, issue := range issues {
		fmt.Fprintln(w, style.Issue(issue.Path, issue.Message))
	}
}
