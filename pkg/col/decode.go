package col

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

const (
	headerSize   = 32 // fourcc, size, name, model id
	nameSize     = 22
	sphereSize   = 20
	boxSize      = 28
	groupSize    = 28
	v1FaceSize   = 16
	v2FaceSize   = 8
	v2VertexSize = 6
	lineSize     = 24
)

// DecodeFile decodes every model of a collision file. Decoding stops at the
// first block that does not start with a known fourcc once at least one model
// has been read, which tolerates the zero padding some archives carry.
func DecodeFile(data []byte) ([]*Model, error) {
	var models []*Model
	pos := 0
	for len(data)-pos >= 8 {
		if _, ok := fourCCs[string(data[pos:pos+4])]; !ok {
			if len(models) == 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidFourCC, data[pos:pos+4])
			}
			break
		}

		size := int(binary.LittleEndian.Uint32(data[pos+4:])) + 8
		if size > len(data)-pos {
			return nil, fmt.Errorf("%w: model at offset %d needs %d bytes, have %d",
				rw.ErrTruncatedInput, pos, size, len(data)-pos)
		}

		m, err := DecodeModel(data[pos : pos+size])
		if err != nil {
			return nil, fmt.Errorf("model %d at offset %d: %w", len(models), pos, err)
		}
		models = append(models, m)
		pos += size
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalidFourCC)
	}
	return models, nil
}

// DecodeFileFromPath reads and decodes a collision file from disk.
func DecodeFileFromPath(path string) ([]*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading COL file: %w", err)
	}
	return DecodeFile(data)
}

// DecodeModel decodes a single model. data must start at the fourcc.
func DecodeModel(data []byte) (*Model, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: need 4 bytes for fourcc, have %d", rw.ErrTruncatedInput, len(data))
	}
	version, ok := fourCCs[string(data[:4])]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFourCC, data[:4])
	}

	r := rw.NewReader(data)
	r.Skip(4)
	r.U32()
	m := &Model{
		Version: version,
		Name:    encoding.FixedString(r.Bytes(nameSize)),
		ModelID: r.U16(),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var err error
	if version == V1 {
		err = decodeV1(r, m)
	} else {
		err = decodeV2(r, m)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s %q: %w", version, m.Name, err)
	}
	return m, nil
}

func readSurface(r *rw.Reader) Surface {
	return Surface{Material: r.U8(), Flag: r.U8(), Brightness: r.U8(), Light: r.U8()}
}

// readCount reads a u32 element count and rejects counts the remaining
// input cannot hold.
func readCount(r *rw.Reader, elemSize int, what string) (int, error) {
	n := r.U32()
	if err := r.Err(); err != nil {
		return 0, err
	}
	if int64(n)*int64(elemSize) > int64(r.Len()) {
		return 0, fmt.Errorf("%w: %d %s need %d bytes, have %d",
			rw.ErrTruncatedInput, n, what, int64(n)*int64(elemSize), r.Len())
	}
	return int(n), nil
}

func decodeV1(r *rw.Reader, m *Model) error {
	m.Bounds.Radius = r.F32()
	m.Bounds.Center = r.Vec3()
	m.Bounds.Min = r.Vec3()
	m.Bounds.Max = r.Vec3()

	n, err := readCount(r, sphereSize, "spheres")
	if err != nil {
		return err
	}
	if n > 0 {
		m.Spheres = make([]Sphere, n)
	}
	for i := range m.Spheres {
		s := &m.Spheres[i]
		s.Radius = r.F32()
		s.Center = r.Vec3()
		s.Surface = readSurface(r)
	}

	// Lines were never used by the games.
	n, err = readCount(r, lineSize, "lines")
	if err != nil {
		return err
	}
	r.Skip(n * lineSize)

	n, err = readCount(r, boxSize, "boxes")
	if err != nil {
		return err
	}
	if n > 0 {
		m.Boxes = make([]Box, n)
	}
	for i := range m.Boxes {
		m.Boxes[i] = Box{Min: r.Vec3(), Max: r.Vec3(), Surface: readSurface(r)}
	}

	n, err = readCount(r, 12, "vertices")
	if err != nil {
		return err
	}
	if n > 0 {
		m.MeshVerts = make([]mgl32.Vec3, n)
	}
	for i := range m.MeshVerts {
		m.MeshVerts[i] = r.Vec3()
	}

	n, err = readCount(r, v1FaceSize, "faces")
	if err != nil {
		return err
	}
	if n > 0 {
		m.MeshFaces = make([]Face, n)
	}
	for i := range m.MeshFaces {
		m.MeshFaces[i] = Face{A: r.U32(), B: r.U32(), C: r.U32(), Surface: readSurface(r)}
	}

	return r.Err()
}

// v2Header is the fixed part of a COL2+ model that follows the name.
type v2Header struct {
	numSpheres, numBoxes, numFaces uint16
	numLines                       uint8
	flags                          uint32

	offSpheres, offBoxes, offLines, offVerts, offFaces, offPlanes uint32

	numShadowFaces, offShadowVerts, offShadowFaces uint32
}

func decodeV2(r *rw.Reader, m *Model) error {
	m.Bounds.Min = r.Vec3()
	m.Bounds.Max = r.Vec3()
	m.Bounds.Center = r.Vec3()
	m.Bounds.Radius = r.F32()

	var h v2Header
	h.numSpheres = r.U16()
	h.numBoxes = r.U16()
	h.numFaces = r.U16()
	h.numLines = r.U8()
	r.Skip(1)
	h.flags = r.U32()
	h.offSpheres = r.U32()
	h.offBoxes = r.U32()
	h.offLines = r.U32()
	h.offVerts = r.U32()
	h.offFaces = r.U32()
	h.offPlanes = r.U32()
	if m.Version >= V3 {
		h.numShadowFaces = r.U32()
		h.offShadowVerts = r.U32()
		h.offShadowFaces = r.U32()
	}
	if m.Version == V4 {
		r.U32()
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	// Section offsets are relative to the end of the fourcc.
	at := func(off uint32) *rw.Reader {
		s := rw.NewReader(r.Data())
		s.Seek(int(off) + 4)
		return s
	}

	if h.numSpheres > 0 {
		s := at(h.offSpheres)
		m.Spheres = make([]Sphere, h.numSpheres)
		for i := range m.Spheres {
			m.Spheres[i] = Sphere{Center: s.Vec3(), Radius: s.F32(), Surface: readSurface(s)}
		}
		if err := s.Err(); err != nil {
			return fmt.Errorf("reading spheres: %w", err)
		}
	}

	if h.numBoxes > 0 {
		s := at(h.offBoxes)
		m.Boxes = make([]Box, h.numBoxes)
		for i := range m.Boxes {
			m.Boxes[i] = Box{Min: s.Vec3(), Max: s.Vec3(), Surface: readSurface(s)}
		}
		if err := s.Err(); err != nil {
			return fmt.Errorf("reading boxes: %w", err)
		}
	}

	if h.numFaces > 0 {
		faces, verts, err := readMesh(at(h.offFaces), at(h.offVerts), int(h.numFaces))
		if err != nil {
			return fmt.Errorf("reading mesh: %w", err)
		}
		m.MeshFaces, m.MeshVerts = faces, verts

		if h.flags&FlagHasFaceGroups != 0 {
			groups, err := readFaceGroups(r.Data(), int(h.offFaces)+4)
			if err != nil {
				return fmt.Errorf("reading face groups: %w", err)
			}
			m.FaceGroups = groups
		}
	}

	if h.numShadowFaces > 0 {
		if int64(h.numShadowFaces)*v2FaceSize > int64(len(r.Data())) {
			return fmt.Errorf("%w: %d shadow faces", rw.ErrTruncatedInput, h.numShadowFaces)
		}
		faces, verts, err := readMesh(at(h.offShadowFaces), at(h.offShadowVerts), int(h.numShadowFaces))
		if err != nil {
			return fmt.Errorf("reading shadow mesh: %w", err)
		}
		m.ShadowFaces, m.ShadowVerts = faces, verts
	}

	return nil
}

// readMesh reads n compressed faces and the vertices they reference. The
// vertex count is not stored: it is one past the highest face index.
func readMesh(fr, vr *rw.Reader, n int) ([]Face, []mgl32.Vec3, error) {
	faces := make([]Face, n)
	maxIndex := -1
	for i := range faces {
		a, b, c := fr.U16(), fr.U16(), fr.U16()
		material, light := fr.U8(), fr.U8()
		faces[i] = Face{A: uint32(a), B: uint32(b), C: uint32(c), Surface: faceSurface(material, light)}
		maxIndex = max(maxIndex, int(a), int(b), int(c))
	}
	if err := fr.Err(); err != nil {
		return nil, nil, err
	}

	verts := make([]mgl32.Vec3, maxIndex+1)
	for i := range verts {
		verts[i] = mgl32.Vec3{
			float32(vr.I16()) / 128,
			float32(vr.I16()) / 128,
			float32(vr.I16()) / 128,
		}
	}
	if err := vr.Err(); err != nil {
		return nil, nil, err
	}
	return faces, verts, nil
}

// readFaceGroups reads the group table stored immediately before the faces:
// the groups, then a u32 count ending at facesPos.
func readFaceGroups(data []byte, facesPos int) ([]FaceGroup, error) {
	if facesPos < 4 || facesPos > len(data) {
		return nil, fmt.Errorf("%w: face offset %d outside model", rw.ErrTruncatedInput, facesPos)
	}
	n := int(binary.LittleEndian.Uint32(data[facesPos-4:]))
	if n == 0 {
		return nil, nil
	}
	start := facesPos - 4 - n*groupSize
	if n < 0 || start < 0 {
		return nil, fmt.Errorf("%w: %d face groups before offset %d", rw.ErrTruncatedInput, n, facesPos)
	}

	r := rw.NewReader(data)
	r.Seek(start)
	groups := make([]FaceGroup, n)
	for i := range groups {
		groups[i] = FaceGroup{Min: r.Vec3(), Max: r.Vec3(), Start: r.U16(), End: r.U16()}
	}
	return groups, r.Err()
}
