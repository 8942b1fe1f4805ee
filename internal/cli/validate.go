package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/catsite/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Tables   int      `json:"tables"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the table schema map of a site",
		Long: `Load a site configuration and check its table schema map.

Reports references to undeclared tables, duplicate table names, tables
without fields and tables lacking the primary key. A site with problems
still renders; the affected fields read as empty.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "site.cue", "site configuration (.cue file or directory)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	site, err := LoadSite(opts.Config, nil)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Loaded %d table(s) from %s", len(site.Tables), opts.Config)

	res := queryir.Validate(site.Schema(), site.PrimaryKey)
	if !res.Valid {
		return outputValidationProblems(formatter, len(site.Tables), res.Problems)
	}
	return outputValidateSuccess(formatter, len(site.Tables))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, tables int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: tables})
	}

	fmt.Fprintf(formatter.Writer, "✓ Site valid (%d tables)\n", tables)
	return nil
}

// outputValidationProblems outputs the schema problems. Problems are a
// validation failure (exit code 1).
func outputValidationProblems(formatter *OutputFormatter, tables int, problems []string) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(problems)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Tables: tables, Problems: problems},
			Error: &CLIError{
				Code:    ErrCodeSchemaProblem,
				Message: problems[0],
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeSchemaProblem, p)
	}
	return exitErr
}
