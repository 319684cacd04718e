package pipeline

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrEmptyName       = "E201" // pipeline name is required
	ErrInvalidWindow   = "E202" // window bounds missing, mixed or reversed
	ErrInvalidLocation = "E203" // unknown time zone
	ErrInvalidSource   = "E204" // source must set exactly one kind
	ErrDuplicateName   = "E205" // duplicate source/node name
	ErrUnknownInput    = "E206" // node input names nothing
	ErrUnknownOutput   = "E207" // output names nothing
	ErrUnknownFunction = "E208" // fn not valid for the op
	ErrMissingArgument = "E209" // op argument (arg, count, millis) missing
	ErrCycle           = "E210" // nodes depend on each other
	ErrNoOutputs       = "E211" // at least one output is required
)

// ValidationError represents a pipeline validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one definition.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether errs contains an error with code.
func (errs ValidationErrors) Has(code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Validate checks the cross-field rules the schema cannot express.
// Returns all errors found (does not fail-fast).
func Validate(def *Definition) ValidationErrors {
	var errs ValidationErrors
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	if strings.TrimSpace(def.Name) == "" {
		add("name", ErrEmptyName, "name is required and must be non-empty")
	}

	if _, err := def.TimeLocation(); err != nil {
		add("location", ErrInvalidLocation, "%v", err)
	} else if start, end, err := def.Bounds(); err != nil {
		add("window", ErrInvalidWindow, "%v", err)
	} else if end < start {
		add("window", ErrInvalidWindow, "end %d precedes start %d", end, start)
	}

	names := make(map[string]bool)
	for _, name := range def.SourceNames() {
		src := def.Sources[name]
		field := "sources." + name
		if src.Kind() == SourceInvalid {
			add(field, ErrInvalidSource, "exactly one of values, series or interval is required")
		}
		if src.Period != 0 && src.Values == nil {
			add(field, ErrInvalidSource, "period only applies to values")
		}
		names[name] = true
	}

	for i, node := range def.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if names[node.Name] {
			add(field, ErrDuplicateName, "name %q is already defined", node.Name)
		}
		names[node.Name] = true
		errs = append(errs, validateNode(field, node)...)
	}

	for i, node := range def.Nodes {
		if !names[node.Input] {
			add(fmt.Sprintf("nodes[%d].input", i), ErrUnknownInput, "%q is not a source or node", node.Input)
		}
	}

	if len(def.Outputs) == 0 {
		add("outputs", ErrNoOutputs, "at least one output is required")
	}
	for i, out := range def.Outputs {
		if !names[out] {
			add(fmt.Sprintf("outputs[%d]", i), ErrUnknownOutput, "%q is not a source or node", out)
		}
	}

	if len(errs) == 0 {
		if _, err := Order(def); err != nil {
			add("nodes", ErrCycle, "%v", err)
		}
	}

	return errs
}

// validateNode checks the op-specific arguments of one node.
func validateNode(field string, node Node) ValidationErrors {
	var errs ValidationErrors
	add := func(sub, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field + sub,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	switch node.Op {
	case OpMap:
		if _, ok := mapFuncs[node.Fn]; !ok {
			add(".fn", ErrUnknownFunction, "map fn %q must be one of %s", node.Fn, funcNames(mapFuncs))
		} else if mapNeedsArg[node.Fn] && node.Arg == nil {
			add(".arg", ErrMissingArgument, "map fn %q requires arg", node.Fn)
		}
	case OpFilter:
		if _, ok := filterFuncs[node.Fn]; !ok {
			add(".fn", ErrUnknownFunction, "filter fn %q must be one of %s", node.Fn, funcNames(filterFuncs))
		}
	case OpScan:
		if _, ok := scanFuncs[scanFn(node)]; !ok {
			add(".fn", ErrUnknownFunction, "scan fn %q must be one of %s", node.Fn, funcNames(scanFuncs))
		}
	case OpBufferCount, OpWindowCount:
		if node.Count < 1 {
			add(".count", ErrMissingArgument, "%s requires count >= 1", node.Op)
		}
	case OpBufferTime:
		if node.Millis < 1 {
			add(".millis", ErrMissingArgument, "buffer_time requires millis >= 1")
		}
	}
	return errs
}
