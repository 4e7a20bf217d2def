package rw

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RGBA is an 8-bit per channel colour.
type RGBA struct {
	R, G, B, A uint8
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// Reader is a little-endian cursor over an in-memory buffer.
//
// Reads are sticky: the first short read records ErrTruncatedInput, every
// later read returns a zero value, and Err reports the failure. Callers read a
// whole record and check Err once.
type Reader struct {
	data []byte
	pos  int
	base int
	err  error
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered by the reader.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the current offset relative to the start of the reader.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Data returns the whole underlying buffer.
func (r *Reader) Data() []byte {
	return r.data
}

// Seek moves the cursor to an absolute offset within the reader.
func (r *Reader) Seek(pos int) {
	if r.err != nil {
		return
	}
	if pos < 0 || pos > len(r.data) {
		r.fail(pos - r.pos)
		return
	}
	r.pos = pos
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) {
	r.next(n)
}

func (r *Reader) fail(n int) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedInput, n, r.base+r.pos, len(r.data)-r.pos)
	}
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.fail(n)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	b := r.next(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// U8 reads an unsigned byte.
func (r *Reader) U8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// I16 reads a little-endian int16.
func (r *Reader) I16() int16 {
	return int16(r.U16())
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32 reads a little-endian int32.
func (r *Reader) I32() int32 {
	return int32(r.U32())
}

// F32 reads a little-endian float32.
func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// Vec3 reads three float32 values.
func (r *Reader) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{r.F32(), r.F32(), r.F32()}
}

// Mat3 reads nine float32 values in row order: right, up, at.
// The rows become the columns of the returned matrix.
func (r *Reader) Mat3() mgl32.Mat3 {
	var m mgl32.Mat3
	for i := range m {
		m[i] = r.F32()
	}
	return m
}

// Mat4 reads sixteen float32 values.
func (r *Reader) Mat4() mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range m {
		m[i] = r.F32()
	}
	return m
}

// RGBA reads four colour bytes.
func (r *Reader) RGBA() RGBA {
	b := r.next(4)
	if b == nil {
		return RGBA{}
	}
	return RGBA{b[0], b[1], b[2], b[3]}
}

// Sphere reads a centre followed by a radius.
func (r *Reader) Sphere() Sphere {
	return Sphere{Center: r.Vec3(), Radius: r.F32()}
}

// Fixed decodes the next binary.Size(v) bytes into v.
func (r *Reader) Fixed(v any) {
	n := binary.Size(v)
	b := r.next(n)
	if b == nil {
		return
	}
	if _, err := binary.Decode(b, binary.LittleEndian, v); err != nil && r.err == nil {
		r.err = err
	}
}

// ChunkHeader reads a chunk envelope.
func (r *Reader) ChunkHeader() Chunk {
	b := r.next(ChunkHeaderSize)
	if b == nil {
		return Chunk{}
	}
	c, _, _ := ReadChunkHeader(b, 0)
	return c
}

// Chunk reads a chunk envelope and returns a reader bounded to its body.
// The parent cursor moves past the body.
func (r *Reader) Chunk() (Chunk, *Reader) {
	c := r.ChunkHeader()
	start := r.pos
	if r.next(int(c.Size)) == nil {
		return c, &Reader{err: r.err}
	}
	return c, &Reader{data: r.data[start : start+int(c.Size)], base: r.base + start}
}

// ExpectChunk reads a chunk and fails with ErrUnexpectedChunkType when its
// type is not typ.
func (r *Reader) ExpectChunk(typ uint32) (Chunk, *Reader, error) {
	c, body := r.Chunk()
	if r.err != nil {
		return c, body, r.err
	}
	if c.Type != typ {
		return c, body, fmt.Errorf("%w: got %s at offset %d, want %s",
			ErrUnexpectedChunkType, ChunkName(c.Type), r.base+r.pos-int(c.Size)-ChunkHeaderSize, ChunkName(typ))
	}
	return c, body, nil
}

// ReadFixedRecord decodes a fixed-width little-endian record at offset.
func ReadFixedRecord(data []byte, offset int, v any) error {
	r := NewReader(data)
	r.Seek(offset)
	r.Fixed(v)
	return r.Err()
}
