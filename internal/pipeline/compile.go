package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// CompileError is a CUE syntax, schema or decoding error with its position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and compiles the pipeline at path.
func Load(path string) (*Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	return Compile(src, path)
}

// Compile parses src as CUE, unifies it with the pipeline schema, decodes
// it and validates the result. filename is used in error positions.
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func Compile(src []byte, filename string) (*Definition, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing here is a build defect.
		panic(fmt.Sprintf("pipeline: invalid embedded schema: %v", err))
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Pipeline")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var def Definition
	if err := unified.Decode(&def); err != nil {
		return nil, formatCUEError(err)
	}
	def.Text = string(src)

	if errs := Validate(&def); len(errs) > 0 {
		return nil, errs
	}
	return &def, nil
}

// formatCUEError reports the conflict with the deepest path. Disjunction
// summaries ("N errors in empty disjunction") never name the offending
// value, so they are only used when nothing more specific exists.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	var best errors.Error
	for _, e := range errs {
		if strings.Contains(e.Error(), "empty disjunction") {
			continue
		}
		if best == nil || len(e.Path()) > len(best.Path()) {
			best = e
		}
	}

	ce := &CompileError{Field: "cue"}
	if best == nil {
		best = errs[0]
		ce.Message = strings.TrimSpace(errors.Details(err, nil))
	} else {
		ce.Message = best.Error()
	}
	if positions := errors.Positions(best); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
