package rw

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Writer accumulates little-endian records. It mirrors Reader field by field.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Raw appends b unchanged.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Zero appends n zero bytes.
func (w *Writer) Zero(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// U8 appends a byte.
func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

// U16 appends a little-endian uint16.
func (w *Writer) U16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// I16 appends a little-endian int16.
func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// I32 appends a little-endian int32.
func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

// F32 appends a little-endian float32.
func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// Vec3 appends three float32 values.
func (w *Writer) Vec3(v mgl32.Vec3) {
	w.F32(v[0])
	w.F32(v[1])
	w.F32(v[2])
}

// Mat3 appends nine float32 values.
func (w *Writer) Mat3(m mgl32.Mat3) {
	for _, f := range m {
		w.F32(f)
	}
}

// Mat4 appends sixteen float32 values.
func (w *Writer) Mat4(m mgl32.Mat4) {
	for _, f := range m {
		w.F32(f)
	}
}

// RGBA appends four colour bytes.
func (w *Writer) RGBA(c RGBA) {
	w.buf = append(w.buf, c.R, c.G, c.B, c.A)
}

// Sphere appends a centre followed by a radius.
func (w *Writer) Sphere(s Sphere) {
	w.Vec3(s.Center)
	w.F32(s.Radius)
}

// Fixed appends the little-endian encoding of a fixed-size value.
func (w *Writer) Fixed(v any) {
	out, err := binary.Append(w.buf, binary.LittleEndian, v)
	if err != nil {
		panic("rw: value is not fixed-size: " + err.Error())
	}
	w.buf = out
}

// Chunk appends a chunk with the given body.
func (w *Writer) Chunk(typ, libraryID uint32, body []byte) {
	w.buf = AppendChunkHeader(w.buf, Chunk{Type: typ, Size: uint32(len(body)), LibraryID: libraryID})
	w.buf = append(w.buf, body...)
}

// WriteFixedRecord encodes a fixed-size value into a new buffer.
func WriteFixedRecord(v any) []byte {
	w := NewWriter()
	w.Fixed(v)
	return w.Bytes()
}
