package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tau/internal/pipeline"
)

// Error code constants - unified across all CLI commands. Pipeline
// validation codes (E2xx) come from package pipeline.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE parse or schema error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // Database error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeRunFailed   = "E008" // Pipeline run failed
)

// LoadError is one problem found while loading a pipeline file.
type LoadError struct {
	Path    string    `json:"path,omitempty"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`
	Pos     token.Pos `json:"-"`
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FindCUEFiles walks the directory and returns all .cue file paths in
// lexical order.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// FindPipelineFiles expands path to pipeline files: a file is returned as
// is, a directory is searched recursively for .cue files.
func FindPipelineFiles(path string) ([]string, *LoadError) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}
	return files, nil
}

// LoadPipeline compiles the pipeline at path. On failure every problem is
// returned, each with the most specific code available.
func LoadPipeline(path string) (*pipeline.Definition, []*LoadError) {
	def, err := pipeline.Load(path)
	if err != nil {
		return nil, convertPipelineError(path, err)
	}
	return def, nil
}

// loadPipelineOrExit is LoadPipeline for commands that only need the first
// problem as an exit error.
func loadPipelineOrExit(path string) (*pipeline.Definition, error) {
	def, errs := LoadPipeline(path)
	if len(errs) > 0 {
		code := ExitFailure
		if errs[0].Code == ErrCodeNotFound {
			code = ExitCommandError
		}
		return nil, WrapExitError(code, "failed to load pipeline", errs[0])
	}
	return def, nil
}

func convertPipelineError(path string, err error) []*LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return []*LoadError{{Path: path, Code: ErrCodeNotFound, Message: fmt.Sprintf("pipeline not found: %s", path)}}
	}

	var compileErr *pipeline.CompileError
	if errors.As(err, &compileErr) {
		le := &LoadError{
			Path:    path,
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
		if compileErr.Pos.IsValid() {
			le.Line = compileErr.Pos.Line()
		}
		return []*LoadError{le}
	}

	var verrs pipeline.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]*LoadError, len(verrs))
		for i, v := range verrs {
			out[i] = &LoadError{
				Path:    path,
				Code:    v.Code,
				Message: fmt.Sprintf("%s: %s", v.Field, v.Message),
			}
		}
		return out
	}

	return []*LoadError{{Path: path, Code: ErrCodeGeneric, Message: err.Error()}}
}
