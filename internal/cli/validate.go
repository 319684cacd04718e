package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// FileValidation is the validation outcome of one pipeline file.
type FileValidation struct {
	Path   string       `json:"path"`
	Name   string       `json:"name,omitempty"`
	Valid  bool         `json:"valid"`
	Errors []*LoadError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// String renders the text report.
func (r ValidationResult) String() string {
	var b strings.Builder
	invalid := 0
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(&b, "✓ %s (%s)\n", f.Path, f.Name)
			continue
		}
		invalid++
		fmt.Fprintf(&b, "✗ %s\n", f.Path)
		for _, e := range f.Errors {
			if e.Line > 0 {
				fmt.Fprintf(&b, "  line %d: [%s] %s\n", e.Line, e.Code, e.Message)
			} else {
				fmt.Fprintf(&b, "  [%s] %s\n", e.Code, e.Message)
			}
		}
	}
	if invalid == 0 {
		fmt.Fprintf(&b, "✓ %d pipeline(s) valid", len(r.Files))
	} else {
		fmt.Fprintf(&b, "✗ %d of %d pipeline(s) invalid", invalid, len(r.Files))
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pipeline.cue|dir>",
		Short: "Validate pipelines without running them",
		Long: `Validate CUE pipelines without running them.

Checks syntax, the pipeline schema, and cross-field rules: unique names,
known inputs and outputs, operator arguments and the absence of cycles.
A directory is searched recursively for .cue files; every problem in every
file is reported.

Exit codes:
  0 - All pipelines are valid
  1 - One or more pipelines are invalid
  2 - Command error (path not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, loadErr := FindPipelineFiles(path)
	if loadErr != nil {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, "validation failed", loadErr)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), path)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		def, errs := LoadPipeline(file)
		fv := FileValidation{Path: file, Valid: len(errs) == 0, Errors: errs}
		if def != nil {
			fv.Name = def.Name
		}
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if result.Valid {
		return formatter.Success(result)
	}

	if formatter.JSON() {
		_ = formatter.Failure("E_INVALID", "one or more pipelines are invalid", result)
	} else {
		fmt.Fprintln(formatter.Writer, result)
	}
	return NewExitError(ExitFailure, "validation failed")
}
