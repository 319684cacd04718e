package trace

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRecord_Format(t *testing.T) {
	line, err := MarshalRecord(Record{Seq: 3, Time: 1500, Node: "sum", Value: 22})
	require.NoError(t, err)

	assert.Equal(t, `{"node":"sum","seq":3,"time":1500,"value":"22"}`, string(line))
}

func TestMarshalRecord_FloatsAreShortestStrings(t *testing.T) {
	cases := map[float64]string{
		8.3:                  `"8.3"`,
		-0.5:                 `"-0.5"`,
		1e21:                 `"1e+21"`,
		math.Inf(1):          `"+Inf"`,
		1.0 / 3.0:            `"0.3333333333333333"`,
		math.Copysign(0, -1): `"-0"`,
	}
	for v, want := range cases {
		line, err := MarshalRecord(Record{Node: "n", Value: v})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(string(line), `"value":`+want+`}`), "value %v encoded as %s", v, line)
	}
}

func TestMarshalRecord_Strings(t *testing.T) {
	// Decomposed e + combining acute normalizes to the precomposed code point.
	line, err := MarshalRecord(Record{Node: "cafe\u0301 <a&b>"})
	require.NoError(t, err)
	assert.Contains(t, string(line), "\"node\":\"caf\u00e9 <a&b>\"")

	line, err = MarshalRecord(Record{Node: "a\u2028b"})
	require.NoError(t, err)
	assert.Contains(t, string(line), "a\u2028b", "line separator stays literal")

	line, err = MarshalRecord(Record{Node: `lit\u2028`})
	require.NoError(t, err)
	assert.Contains(t, string(line), `lit\\u2028`, "escaped backslash text stays escaped")
}

func TestEncodeDecode(t *testing.T) {
	records := []Record{
		{Seq: 1, Time: 0, Node: "prices", Value: 3.2},
		{Seq: 2, Time: 1000, Node: "sum", Value: -1e-9},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"node":"a","seq":1,"time":0,"value":"abc"}`))
	assert.ErrorContains(t, err, "line 1")

	_, err = Decode(strings.NewReader("\n" + `{"node":"a","extra":1}`))
	assert.ErrorContains(t, err, "line 2")
}

func TestDigest(t *testing.T) {
	a := []Record{{Seq: 1, Time: 0, Node: "x", Value: 1}}
	b := []Record{{Seq: 1, Time: 0, Node: "x", Value: 1.0000001}}

	assert.Equal(t, MustDigest(a), MustDigest(a))
	assert.NotEqual(t, MustDigest(a), MustDigest(b))
	assert.Len(t, MustDigest(nil), 64)

	canonical, err := MarshalCanonical(a)
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain("other/v1", canonical), MustDigest(a), "domain separates digests")
}
