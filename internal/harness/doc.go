// Package harness runs YAML conformance scenarios against pipelines.
//
// A scenario names a pipeline file, optionally seeds tick series into a
// fresh in-memory store, runs the pipeline over its window on the
// historical scheduler and evaluates assertions on the recorded trace:
//
//	name: running-sum
//	description: rounded prices accumulate to 22
//	pipeline: ../pipelines/running_sum.cue
//	assertions:
//	  - type: final_value
//	    node: sum
//	    value: 22
//	  - type: trace_count
//	    node: sum
//	    count: 6
//
// Every run is deterministic: the same scenario always records the same
// trace, so traces can be compared against golden files with RunWithGolden
// in tests, or CheckGolden from the command line.
package harness
