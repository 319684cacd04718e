// Package pipeline compiles CUE pipeline definitions into live signal graphs.
//
// A definition names its input sources, a list of operator nodes and the
// nodes whose emissions are recorded:
//
//	name: "running-sum"
//	window: {start: 0, end: 30000}
//	sources: prices: {values: [0.0, 3.2, 2.1, 2.9, 8.3, 5.7]}
//	nodes: [
//		{name: "rounded", op: "map", input: "prices", fn: "round"},
//		{name: "sum", op: "scan", input: "rounded"},
//	]
//	outputs: ["sum"]
//
// Compile unifies the source with the embedded schema, decodes it and runs
// Validate. Build then connects the operators on a scheduler's network in
// dependency order, so nodes may reference names declared after them as
// long as the graph has no cycle.
//
// All values are float64. Batch operators (buffer_count, window_count,
// buffer_time) reduce each batch to a single value with their reduce
// function, mean by default.
package pipeline
