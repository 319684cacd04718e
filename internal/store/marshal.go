package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalOutputs converts the output node names of a run to JSON TEXT.
// Order is preserved: it is the order the pipeline declared its outputs in.
func marshalOutputs(outputs []string) (string, error) {
	if outputs == nil {
		outputs = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(outputs); err != nil {
		return "", fmt.Errorf("marshal outputs: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalOutputs parses JSON TEXT written by marshalOutputs.
func unmarshalOutputs(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var outputs []string
	if err := json.Unmarshal([]byte(data), &outputs); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}
	return outputs, nil
}
