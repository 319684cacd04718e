// Package feed moves external observations into a running pipeline.
//
// A Client dials a WebSocket endpoint that pushes JSON messages of the form
//
//	{"series": "prices", "value": 101.5}
//
// and hands each one to a Sink, normally a *pipeline.Graph built on a
// real-time scheduler. Malformed messages and unknown series are logged and
// skipped; the connection stays open.
//
// ReadCSV parses stored history for import into the tick store.
package feed
