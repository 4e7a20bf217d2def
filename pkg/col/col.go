// Package col reads and writes GTA collision files. Unlike DFF the format is
// flat: a file is a sequence of models, each a fixed header followed by
// fixed-size records.
package col

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// COL format errors.
var (
	ErrInvalidFourCC      = errors.New("invalid COL fourcc")
	ErrUnsupportedVersion = errors.New("unsupported COL version")
)

// Version is the collision format revision.
type Version uint8

// Supported versions.
const (
	V1 Version = 1 // GTA III, VC
	V2 Version = 2 // SA PS2
	V3 Version = 3 // SA PC, adds the shadow mesh
	V4 Version = 4 // SA unused
)

var fourCCs = map[string]Version{"COLL": V1, "COL2": V2, "COL3": V3, "COL4": V4}

// FourCC returns the magic that starts a model of this version.
func (v Version) FourCC() string {
	switch v {
	case V1:
		return "COLL"
	case V2, V3, V4:
		return fmt.Sprintf("COL%d", v)
	default:
		return ""
	}
}

// String returns the fourcc or a placeholder for unknown versions.
func (v Version) String() string {
	if s := v.FourCC(); s != "" {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", uint8(v))
}

// Model flag bits (COL2 and later).
const (
	FlagNotEmpty      uint32 = 0x02
	FlagHasFaceGroups uint32 = 0x08
	FlagHasShadowMesh uint32 = 0x10
)

// Surface describes the material of a collision primitive.
type Surface struct {
	Material   uint8
	Flag       uint8
	Brightness uint8
	Light      uint8
}

// faceSurface is the surface of a face stored without one: only material
// and light survive in COL2 and later.
func faceSurface(material, light uint8) Surface {
	return Surface{Material: material, Flag: 0, Brightness: 1, Light: light}
}

// Bounds is the bounding volume of a model.
type Bounds struct {
	Min    mgl32.Vec3
	Max    mgl32.Vec3
	Center mgl32.Vec3
	Radius float32
}

// Sphere is a collision sphere.
type Sphere struct {
	Center  mgl32.Vec3
	Radius  float32
	Surface Surface
}

// Box is an axis-aligned collision box.
type Box struct {
	Min     mgl32.Vec3
	Max     mgl32.Vec3
	Surface Surface
}

// Face is a triangle of a collision or shadow mesh.
type Face struct {
	A, B, C uint32
	Surface Surface
}

// FaceGroup bounds a run of faces to speed up queries.
type FaceGroup struct {
	Min   mgl32.Vec3
	Max   mgl32.Vec3
	Start uint16
	End   uint16
}

// Model is one collision model.
type Model struct {
	Version Version
	Name    string
	ModelID uint16
	Bounds  Bounds

	Spheres    []Sphere
	Boxes      []Box
	MeshVerts  []mgl32.Vec3
	MeshFaces  []Face
	FaceGroups []FaceGroup

	ShadowVerts []mgl32.Vec3
	ShadowFaces []Face
}

// IsEmpty reports whether the model has no primitives at all.
func (m *Model) IsEmpty() bool {
	return len(m.Spheres) == 0 && len(m.Boxes) == 0 && len(m.MeshFaces) == 0
}

// Flags computes the COL2+ flag bits for the model.
func (m *Model) Flags() uint32 {
	var f uint32
	if !m.IsEmpty() {
		f |= FlagNotEmpty
	}
	if len(m.FaceGroups) > 0 {
		f |= FlagHasFaceGroups
	}
	if m.Version >= V3 && len(m.ShadowFaces) > 0 {
		f |= FlagHasShadowMesh
	}
	return f
}

// ComputeBounds recalculates Bounds from the spheres, boxes and mesh.
func (m *Model) ComputeBounds() {
	lo := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	grow := func(p mgl32.Vec3) {
		for i := range 3 {
			lo[i] = math32.Min(lo[i], p[i])
			hi[i] = math32.Max(hi[i], p[i])
		}
	}
	for _, s := range m.Spheres {
		r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
		grow(s.Center.Sub(r))
		grow(s.Center.Add(r))
	}
	for _, b := range m.Boxes {
		grow(b.Min)
		grow(b.Max)
	}
	for _, v := range m.MeshVerts {
		grow(v)
	}
	if lo[0] > hi[0] {
		m.Bounds = Bounds{}
		return
	}

	center := lo.Add(hi).Mul(0.5)
	m.Bounds = Bounds{
		Min:    lo,
		Max:    hi,
		Center: center,
		Radius: hi.Sub(center).Len(),
	}
}

// quantize converts a coordinate to the 1/128 fixed-point form of COL2+.
func quantize(f float32) int16 {
	v := math32.Round(f * 128)
	return int16(math32.Max(math32.Min(v, math.MaxInt16), math.MinInt16))
}
