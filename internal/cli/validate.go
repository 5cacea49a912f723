package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/graph"
	"github.com/roach88/tickerflow/internal/planner"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ConfigPath string
	RubricPath string
}

// ValidationIssue is one problem found in a configuration file.
type ValidationIssue struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Tasks    int               `json:"tasks"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config and rubric without running",
		Long: `Validate config.yml and rubric.yml against the embedded schema, then
build the task graph to catch duplicate tickers and unknown steps.

A missing rubric is not an error: the default rubric applies.

Exit codes:
  0 - Valid
  1 - Validation failed
  2 - Command error (config file not found, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", config.DefaultConfigPath, "path to config.yml")
	cmd.Flags().StringVar(&opts.RubricPath, "rubric", config.DefaultRubricPath, "path to rubric.yml")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(opts.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("config file not found: %s", opts.ConfigPath), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to read config", err)
	}
	formatter.VerboseLog("Validating %s", opts.ConfigPath)

	result := ValidationResult{Valid: true}

	cfg, err := config.Parse(opts.ConfigPath, data)
	if err != nil {
		result.addError(opts.ConfigPath, ErrCodeConfig, err)
	} else {
		_, ignored := cfg.RoutingTable()
		for _, name := range ignored {
			result.Warnings = append(result.Warnings, fmt.Sprintf("routing key %q is not a task kind and is ignored", name))
		}
		if len(cfg.Universe.Tickers) == 0 {
			result.Warnings = append(result.Warnings, "universe.tickers is empty; a run will produce no results")
		}

		steps, _ := cfg.Steps()
		g, err := planner.Build(cfg.Universe.Tickers, planner.TemplateFor(steps))
		if err != nil {
			result.addError(opts.ConfigPath, ErrCodePlan, err)
		} else {
			result.Tasks = g.Len()
		}
	}

	rubricData, err := os.ReadFile(opts.RubricPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Warnings = append(result.Warnings, fmt.Sprintf("rubric file %s not found; the default rubric applies", opts.RubricPath))
	case err != nil:
		result.addError(opts.RubricPath, ErrCodeRubric, err)
	default:
		formatter.VerboseLog("Validating %s", opts.RubricPath)
		if _, err := config.ParseRubric(opts.RubricPath, rubricData); err != nil {
			result.addError(opts.RubricPath, ErrCodeRubric, err)
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// addError records err, keeping the position of schema violations.
func (r *ValidationResult) addError(file, code string, err error) {
	issue := ValidationIssue{File: file, Code: code, Message: err.Error()}

	var ve *config.ValidationError
	var ce *graph.ConstructionError
	switch {
	case errors.As(err, &ve):
		issue.Line, issue.Column, issue.Message = ve.Line, ve.Column, ve.Message
	case errors.As(err, &ce):
		issue.Code = string(ce.Code)
	}

	r.Valid = false
	r.Errors = append(r.Errors, issue)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "! %s\n", w)
	}
	fmt.Fprintf(formatter.Writer, "✓ Configuration valid (%d tasks)\n", result.Tasks)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", issue.File, issue.Line, issue.Column)
		} else {
			fmt.Fprintf(formatter.Writer, "%s\n", issue.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
