package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalRecord produces the canonical JSON for one record, without a
// trailing newline.
func MarshalRecord(rec Record) ([]byte, error) {
	node, err := marshalCanonicalString(rec.Node)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", rec.Node, err)
	}
	value, err := marshalCanonicalString(FormatValue(rec.Value))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	// Keys in sorted order: node, seq, time, value.
	buf.WriteString(`{"node":`)
	buf.Write(node)
	buf.WriteString(`,"seq":`)
	buf.WriteString(strconv.FormatInt(rec.Seq, 10))
	buf.WriteString(`,"time":`)
	buf.WriteString(strconv.FormatInt(rec.Time, 10))
	buf.WriteString(`,"value":`)
	buf.Write(value)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalCanonical encodes records as canonical JSON lines.
func MarshalCanonical(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes records to w as canonical JSON lines.
func Encode(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for i, rec := range records {
		line, err := MarshalRecord(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// wireRecord is the decoded shape of a canonical line.
type wireRecord struct {
	Seq   int64  `json:"seq"`
	Time  int64  `json:"time"`
	Node  string `json:"node"`
	Value string `json:"value"`
}

// Decode reads canonical JSON lines back into records. Blank lines are
// skipped.
func Decode(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var w wireRecord
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(w.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", line, err)
		}
		out = append(out, Record{Seq: w.Seq, Time: w.Time, Node: w.Node, Value: v})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// marshalCanonicalString produces a canonical JSON string: NFC normalized,
// no HTML escaping, U+2028 and U+2029 left literal.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape preceded by an odd
// run of backslashes is literal text and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\\' && backslashes%2 == 0 && i+5 < len(data) &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}

		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, c)
	}
	return out
}
