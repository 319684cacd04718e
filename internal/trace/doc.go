// Package trace records the values emitted by a run and encodes them in a
// canonical form, so that two runs can be compared byte for byte.
//
// Canonical encoding is one JSON object per line with keys in sorted order,
// no HTML escaping, NFC-normalized strings, and floats written as decimal
// strings (strconv 'g', shortest representation). Floats are strings because
// JSON number formatting differs between encoders; the string form is exact
// and round-trips through strconv.ParseFloat.
//
// Digest is SHA-256 over the canonical bytes with a versioned domain prefix.
package trace
