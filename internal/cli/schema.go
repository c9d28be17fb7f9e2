package cli

import (
	"reflect"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/stoewer/go-strcase"

	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/server"
	"github.com/lacquerai/contracts/internal/style"
	"github.com/lacquerai/contracts/internal/validation"
)

// SchemaOutput bundles the JSON Schemas of everything laqc reads or writes
type SchemaOutput struct {
	Contract          json.RawMessage    `json:"contract"`
	ValidationResult  *jsonschema.Schema `json:"validation_result"`
	ValidationSummary *jsonschema.Schema `json:"validation_summary"`
	LintSummary       *jsonschema.Schema `json:"lint_summary"`
	BatchRequest      *jsonschema.Schema `json:"batch_request"`
	BatchResponse     *jsonschema.Schema `json:"batch_response"`
	ErrorResponse     *jsonschema.Schema `json:"error_response"`
}

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Output JSON schemas for contracts and reports",
	Long:   `Output the contract meta-schema and the JSON schemas of the validation reports and HTTP envelopes.`,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		style.PrintJSON(cmd.OutOrStdout(), buildSchemaOutput())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

// newReflector names definitions and keys in snake_case
func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}
}

func buildSchemaOutput() SchemaOutput {
	r := newReflector()
	return SchemaOutput{
		Contract:          json.RawMessage(schema.MetaSchema()),
		ValidationResult:  r.Reflect(&validation.Result{}),
		ValidationSummary: r.Reflect(&ValidationSummary{}),
		LintSummary:       r.Reflect(&LintSummary{}),
		BatchRequest:      r.Reflect(&server.BatchRequest{}),
		BatchResponse:     r.Reflect(&server.BatchResponse{}),
		ErrorResponse:     r.Reflect(&server.ErrorResponse{}),
	}
}
