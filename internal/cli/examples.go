package cli

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/style"
	"github.com/lacquerai/contracts/internal/validation"
)

// examplesCmd represents the examples command
var examplesCmd = &cobra.Command{
	Use:   "examples --schema <contract>",
	Short: "Print the examples attached to a contract",
	Long: `Print the example payloads attached to a contract document, verbatim.

With --check every example is also validated against the contract it belongs to.

Examples:
  laqc examples --schema contract.json                # Print examples
  laqc examples --schema contract.yaml --output yaml  # Print examples as YAML
  laqc examples --schema contract.json --check        # Fail when an example breaks the contract`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showExamples(cmd)
	},
}

var (
	examplesSchemaFile string
	examplesCheck      bool
)

func init() {
	rootCmd.AddCommand(examplesCmd)

	examplesCmd.Flags().StringVarP(&examplesSchemaFile, "schema", "s", "", "contract document (JSON or YAML)")
	examplesCmd.Flags().BoolVar(&examplesCheck, "check", false, "validate each example against the contract")
	_ = examplesCmd.MarkFlagRequired("schema")
}

// ExamplesOutput lists a contract's examples
type ExamplesOutput struct {
	Examples []schema.Example     `json:"examples" yaml:"examples"`
	Checks   []*validation.Result `json:"checks,omitempty" yaml:"checks,omitempty"`
}

func showExamples(cmd *cobra.Command) error {
	raw, err := readFile(examplesSchemaFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	doc, err := schema.ParseDocument(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid contract: %w", examplesSchemaFile, err)
	}

	output := ExamplesOutput{Examples: doc.Examples}
	if output.Examples == nil {
		output.Examples = []schema.Example{}
	}

	failed := 0
	if examplesCheck {
		output.Checks = make([]*validation.Result, len(output.Examples))
		for i, example := range output.Examples {
			output.Checks[i] = validation.Validate(example.Value, doc)
			if !output.Checks[i].Valid {
				failed++
			}
		}
	}

	out := cmd.OutOrStdout()
	switch outputMode() {
	case "json":
		style.PrintJSON(out, output)
	case "yaml":
		style.PrintYAML(out, output)
	default:
		if err := printExamples(out, output); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d examples break the contract", failed, len(output.Examples))
	}
	return nil
}

func printExamples(w io.Writer, output ExamplesOutput) error {
	if len(output.Examples) == 0 {
		style.Info(w, "No examples attached to this contract")
		return nil
	}

	for i, example := range output.Examples {
		data, err := json.MarshalIndent(example, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding example %d: %w", i+1, err)
		}

		header := style.AccentStyle.Render(fmt.Sprintf("Example %d", i+1))
		if output.Checks != nil {
			if output.Checks[i].Valid {
				header += " " + style.SuccessIcon()
			} else {
				header += " " + style.ErrorIcon()
			}
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, string(data))

		if output.Checks != nil {
			for _, msg := range output.Checks[i].Errors {
				fmt.Fprintln(w, style.Violation(msg))
			}
		}
		if i < len(output.Examples)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}
