package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tau/internal/pipeline"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledPipeline is a pipeline with its window resolved to epoch millis
// and its nodes in evaluation order.
type CompiledPipeline struct {
	Name     string                     `json:"name"`
	Location string                     `json:"location"`
	Start    int64                      `json:"start"`
	End      int64                      `json:"end"`
	Sources  map[string]pipeline.Source `json:"sources"`
	Nodes    []pipeline.Node            `json:"nodes"`
	Outputs  []string                   `json:"outputs"`
}

// String renders the text summary.
func (c CompiledPipeline) String() string {
	names := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		names[i] = n.Name
	}
	order := strings.Join(names, " -> ")
	if order == "" {
		order = "(no nodes)"
	}
	return fmt.Sprintf("Compiled %s: %d source(s), %d node(s), %d output(s)\nWindow: [%d, %d] %s\nOrder: %s",
		c.Name, len(c.Sources), len(c.Nodes), len(c.Outputs), c.Start, c.End, c.Location, order)
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <pipeline.cue>",
		Short: "Compile a pipeline to its resolved JSON form",
		Long: `Compile a CUE pipeline, validate it, and print the resolved form:
window bounds in epoch milliseconds and nodes in evaluation order.

With --output the JSON is written to a file instead of stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	def, errs := LoadPipeline(path)
	if len(errs) > 0 {
		for _, e := range errs[1:] {
			formatter.VerboseLog("%v", e)
		}
		_ = formatter.Error(errs[0].Code, errs[0].Error(), errs)
		code := ExitFailure
		if errs[0].Code == ErrCodeNotFound {
			code = ExitCommandError
		}
		return NewExitError(code, fmt.Sprintf("%d error(s) in %s", len(errs), path))
	}

	compiled, err := resolve(def)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to resolve pipeline", err)
	}

	if opts.Output != "" {
		data, err := json.MarshalIndent(compiled, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("wrote %s", opts.Output)
	}

	switch {
	case formatter.JSON():
		return formatter.Success(compiled)
	case opts.Output != "":
		return formatter.Success(compiled.String())
	default:
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(compiled)
	}
}

// resolve computes the window bounds and evaluation order of def.
func resolve(def *pipeline.Definition) (CompiledPipeline, error) {
	start, end, err := def.Bounds()
	if err != nil {
		return CompiledPipeline{}, err
	}
	order, err := pipeline.Order(def)
	if err != nil {
		return CompiledPipeline{}, err
	}
	loc, err := def.TimeLocation()
	if err != nil {
		return CompiledPipeline{}, err
	}
	return CompiledPipeline{
		Name:     def.Name,
		Location: loc.String(),
		Start:    start,
		End:      end,
		Sources:  def.Sources,
		Nodes:    order,
		Outputs:  def.Outputs,
	}, nil
}
