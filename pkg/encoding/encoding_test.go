package encoding

import (
	"io"
	"strings"
	"testing"
)

func TestFixedString(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"padded", []byte("player.dff\x00\x00\x00\x00"), "player.dff"},
		{"garbage after null", []byte("abc\x00xyz"), "abc"},
		{"full width", []byte("abcdef"), "abcdef"},
		{"empty", []byte{0, 0, 0}, ""},
		{"windows-1252", []byte{'c', 'a', 'f', 0xE9, 0}, "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixedString(tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPutFixedString(t *testing.T) {
	b := PutFixedString("vehicle.txd", 24)
	if len(b) != 24 {
		t.Fatalf("len = %d, want 24", len(b))
	}
	if got := FixedString(b); got != "vehicle.txd" {
		t.Errorf("got %q", got)
	}

	if b := PutFixedString("café", 8); b[3] != 0xE9 || b[4] != 0 {
		t.Errorf("accented name encoded as %v", b)
	}

	long := PutFixedString(strings.Repeat("x", 30), 24)
	if long[23] != 0 {
		t.Error("expected the last byte to stay null")
	}
	if got := FixedString(long); len(got) != 23 {
		t.Errorf("truncated length = %d, want 23", len(got))
	}
}

func TestWindows1252RoundTrip(t *testing.T) {
	in := []byte{'c', 'a', 'f', 0xE9}
	s := Windows1252ToUTF8(in)
	if s != "café" {
		t.Errorf("decoded %q", s)
	}
	if got := UTF8ToWindows1252(s); string(got) != string(in) {
		t.Errorf("encoded %v, want %v", got, in)
	}
}

func TestNewTextReader(t *testing.T) {
	r := NewTextReader(strings.NewReader("inst\n\xA9 end\n"))
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "inst\n© end\n" {
		t.Errorf("got %q", data)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath(`DATA\Maps\LA\LAn.IDE`); got != "data/maps/la/lan.ide" {
		t.Errorf("got %q", got)
	}
}
