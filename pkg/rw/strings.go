package rw

// ReadString decodes a string chunk body. The body carries no explicit
// length: decoding stops at the first byte outside printable ASCII, which
// also covers the null padding written by EncodeString.
func ReadString(body []byte) string {
	for i, b := range body {
		if b < 0x20 || b > 0x7E {
			return string(body[:i])
		}
	}
	return string(body)
}

// EncodeString returns s null terminated and padded to a multiple of four.
func EncodeString(s string) []byte {
	n := (len(s) + 4) &^ 3
	out := make([]byte, n)
	copy(out, s)
	return out
}
