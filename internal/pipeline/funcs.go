package pipeline

import (
	"math"
	"slices"
	"strings"
)

// mapFuncs builds the unary function of a map node from its arg.
// round is round-half-to-even.
var mapFuncs = map[string]func(arg float64) func(float64) float64{
	"round": func(float64) func(float64) float64 { return math.RoundToEven },
	"floor": func(float64) func(float64) float64 { return math.Floor },
	"ceil":  func(float64) func(float64) float64 { return math.Ceil },
	"abs":   func(float64) func(float64) float64 { return math.Abs },
	"neg": func(float64) func(float64) float64 {
		return func(v float64) float64 { return -v }
	},
	"scale": func(arg float64) func(float64) float64 {
		return func(v float64) float64 { return v * arg }
	},
	"add": func(arg float64) func(float64) float64 {
		return func(v float64) float64 { return v + arg }
	},
}

var mapNeedsArg = map[string]bool{"scale": true, "add": true}

// filterFuncs compare the input against arg, which defaults to 0.
var filterFuncs = map[string]func(arg float64) func(float64) bool{
	"gte": func(arg float64) func(float64) bool { return func(v float64) bool { return v >= arg } },
	"gt":  func(arg float64) func(float64) bool { return func(v float64) bool { return v > arg } },
	"lte": func(arg float64) func(float64) bool { return func(v float64) bool { return v <= arg } },
	"lt":  func(arg float64) func(float64) bool { return func(v float64) bool { return v < arg } },
	"eq":  func(arg float64) func(float64) bool { return func(v float64) bool { return v == arg } },
	"ne":  func(arg float64) func(float64) bool { return func(v float64) bool { return v != arg } },
}

type scanFunc struct {
	seed float64
	fold func(acc, v float64) float64
}

var scanFuncs = map[string]scanFunc{
	"sum":   {seed: 0, fold: func(acc, v float64) float64 { return acc + v }},
	"count": {seed: 0, fold: func(acc, _ float64) float64 { return acc + 1 }},
	"min":   {seed: math.Inf(1), fold: math.Min},
	"max":   {seed: math.Inf(-1), fold: math.Max},
}

// scanFn returns the scan function name, sum when unset.
func scanFn(n Node) string {
	if n.Fn == "" {
		return "sum"
	}
	return n.Fn
}

// reducers turn a non-empty batch into one value.
var reducers = map[string]func([]float64) float64{
	"mean":  func(b []float64) float64 { return sum(b) / float64(len(b)) },
	"sum":   sum,
	"min":   func(b []float64) float64 { return slices.Min(b) },
	"max":   func(b []float64) float64 { return slices.Max(b) },
	"first": func(b []float64) float64 { return b[0] },
	"last":  func(b []float64) float64 { return b[len(b)-1] },
	"count": func(b []float64) float64 { return float64(len(b)) },
}

// reducer returns the reduce function of a batch node, mean when unset.
func reducer(n Node) func([]float64) float64 {
	if n.Reduce == "" {
		return reducers["mean"]
	}
	return reducers[n.Reduce]
}

func sum(b []float64) float64 {
	var total float64
	for _, v := range b {
		total += v
	}
	return total
}

func argOrZero(n Node) float64 {
	if n.Arg == nil {
		return 0
	}
	return *n.Arg
}

func funcNames[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
