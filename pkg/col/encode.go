package col

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// ErrIndexOutOfRange is returned when a face references a missing vertex or
// an index that does not fit the target version.
var ErrIndexOutOfRange = errors.New("face index out of range")

// EncodeFile encodes models back to back in the given version.
func EncodeFile(models []*Model, v Version) ([]byte, error) {
	var out []byte
	for i, m := range models {
		b, err := EncodeModel(m, v)
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// EncodeModel encodes m in version v. COL4 is read-only. COL2 and later
// quantise mesh vertices to 1/128 and keep only material and light of each
// face surface.
func EncodeModel(m *Model, v Version) ([]byte, error) {
	var body []byte
	var err error
	switch v {
	case V1:
		body, err = encodeV1(m)
	case V2, V3:
		body, err = encodeV2(m, v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s %q: %w", v, m.Name, err)
	}

	w := rw.NewWriter()
	w.Raw([]byte(v.FourCC()))
	w.U32(uint32(headerSize - 8 + len(body)))
	w.Raw(encoding.PutFixedString(m.Name, nameSize))
	w.U16(m.ModelID)
	w.Raw(body)
	return w.Bytes(), nil
}

func writeSurface(w *rw.Writer, s Surface) {
	w.U8(s.Material)
	w.U8(s.Flag)
	w.U8(s.Brightness)
	w.U8(s.Light)
}

func checkFaces(faces []Face, numVerts int, limit uint32) error {
	for i, f := range faces {
		for _, idx := range [3]uint32{f.A, f.B, f.C} {
			if int64(idx) >= int64(numVerts) || idx > limit {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrIndexOutOfRange, i, idx, numVerts)
			}
		}
	}
	return nil
}

func encodeV1(m *Model) ([]byte, error) {
	if err := checkFaces(m.MeshFaces, len(m.MeshVerts), math.MaxUint32); err != nil {
		return nil, err
	}

	w := rw.NewWriter()
	w.F32(m.Bounds.Radius)
	w.Vec3(m.Bounds.Center)
	w.Vec3(m.Bounds.Min)
	w.Vec3(m.Bounds.Max)

	w.U32(uint32(len(m.Spheres)))
	for _, s := range m.Spheres {
		w.F32(s.Radius)
		w.Vec3(s.Center)
		writeSurface(w, s.Surface)
	}

	w.U32(0) // lines

	w.U32(uint32(len(m.Boxes)))
	for _, b := range m.Boxes {
		w.Vec3(b.Min)
		w.Vec3(b.Max)
		writeSurface(w, b.Surface)
	}

	w.U32(uint32(len(m.MeshVerts)))
	for _, v := range m.MeshVerts {
		w.Vec3(v)
	}

	w.U32(uint32(len(m.MeshFaces)))
	for _, f := range m.MeshFaces {
		w.U32(f.A)
		w.U32(f.B)
		w.U32(f.C)
		writeSurface(w, f.Surface)
	}
	return w.Bytes(), nil
}

// v2HeaderSize is the size of everything before the first section, counted
// from the fourcc.
func v2HeaderSize(v Version) int {
	n := headerSize + 40 + 8 + 4 + 24
	if v >= V3 {
		n += 12
	}
	return n
}

func encodeV2(m *Model, v Version) ([]byte, error) {
	if len(m.Spheres) > math.MaxUint16 || len(m.Boxes) > math.MaxUint16 || len(m.MeshFaces) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: too many primitives for %s", ErrIndexOutOfRange, v)
	}
	if err := checkFaces(m.MeshFaces, len(m.MeshVerts), math.MaxUint16); err != nil {
		return nil, err
	}
	shadow := v >= V3 && len(m.ShadowFaces) > 0
	if shadow {
		if err := checkFaces(m.ShadowFaces, len(m.ShadowVerts), math.MaxUint16); err != nil {
			return nil, fmt.Errorf("shadow mesh: %w", err)
		}
	}

	// Sections are laid out after the header; offsets are taken from the
	// section writer and stored relative to the end of the fourcc.
	base := v2HeaderSize(v)
	s := rw.NewWriter()
	offset := func() uint32 { return uint32(base + s.Len() - 4) }

	offSpheres := offset()
	for _, sp := range m.Spheres {
		s.Vec3(sp.Center)
		s.F32(sp.Radius)
		writeSurface(s, sp.Surface)
	}

	offBoxes := offset()
	for _, b := range m.Boxes {
		s.Vec3(b.Min)
		s.Vec3(b.Max)
		writeSurface(s, b.Surface)
	}

	offVerts := offset()
	writeCompressedVerts(s, m.MeshVerts)

	if len(m.FaceGroups) > 0 {
		for _, g := range m.FaceGroups {
			s.Vec3(g.Min)
			s.Vec3(g.Max)
			s.U16(g.Start)
			s.U16(g.End)
		}
		s.U32(uint32(len(m.FaceGroups)))
	}

	offFaces := offset()
	writeCompressedFaces(s, m.MeshFaces)

	var offShadowVerts, offShadowFaces uint32
	if shadow {
		offShadowVerts = offset()
		writeCompressedVerts(s, m.ShadowVerts)
		offShadowFaces = offset()
		writeCompressedFaces(s, m.ShadowFaces)
	}

	w := rw.NewWriter()
	w.Vec3(m.Bounds.Min)
	w.Vec3(m.Bounds.Max)
	w.Vec3(m.Bounds.Center)
	w.F32(m.Bounds.Radius)
	w.U16(uint16(len(m.Spheres)))
	w.U16(uint16(len(m.Boxes)))
	w.U16(uint16(len(m.MeshFaces)))
	w.U8(0) // lines
	w.U8(0)

	flags := m.Flags() &^ FlagHasShadowMesh
	if shadow {
		flags |= FlagHasShadowMesh
	}
	w.U32(flags)
	w.U32(offSpheres)
	w.U32(offBoxes)
	w.U32(0) // lines
	w.U32(offVerts)
	w.U32(offFaces)
	w.U32(0) // planes
	if v >= V3 {
		if shadow {
			w.U32(uint32(len(m.ShadowFaces)))
		} else {
			w.U32(0)
		}
		w.U32(offShadowVerts)
		w.U32(offShadowFaces)
	}
	w.Raw(s.Bytes())
	return w.Bytes(), nil
}

// writeCompressedVerts writes vertices as 1/128 fixed point and pads the
// section to four bytes.
func writeCompressedVerts(w *rw.Writer, verts []mgl32.Vec3) {
	for _, v := range verts {
		w.I16(quantize(v[0]))
		w.I16(quantize(v[1]))
		w.I16(quantize(v[2]))
	}
	if pad := (len(verts) * v2VertexSize) % 4; pad != 0 {
		w.Zero(4 - pad)
	}
}

func writeCompressedFaces(w *rw.Writer, faces []Face) {
	for _, f := range faces {
		w.U16(uint16(f.A))
		w.U16(uint16(f.B))
		w.U16(uint16(f.C))
		w.U8(f.Surface.Material)
		w.U8(f.Surface.Light)
	}
}
