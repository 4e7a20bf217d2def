package dff

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// Geometry flag bits.
const (
	GeometryTriStrip              uint32 = 0x00000001
	GeometryPositions             uint32 = 0x00000002
	GeometryTextured              uint32 = 0x00000004
	GeometryPrelit                uint32 = 0x00000008
	GeometryNormals               uint32 = 0x00000010
	GeometryLight                 uint32 = 0x00000020
	GeometryModulateMaterialColor uint32 = 0x00000040
	GeometryTextured2             uint32 = 0x00000080
	GeometryNative                uint32 = 0x01000000
)

// nativeFlagMask covers the bits describing native platform data, which
// cannot be derived from the decoded fields.
const nativeFlagMask = GeometryPositions | GeometryTextured | GeometryTextured2 |
	GeometryPrelit | GeometryNormals | 0x00FF0000

// surfacePropertiesLimit is the first version without surface properties in
// the geometry struct.
const surfacePropertiesLimit = 0x34000

// Triangle holds three vertex indices and an index into Geometry.Materials.
type Triangle struct {
	A, B, C  uint16
	Material uint16
}

// Geometry is a mesh. Its flag bits are not stored: Flags derives them from
// the populated fields. Non-native geometry is written with a triangle list
// bin mesh, so TriStrip is cleared on encode.
type Geometry struct {
	TriStrip              bool
	Lit                   bool
	ModulateMaterialColor bool
	Native                bool

	Triangles         []Triangle
	Vertices          []mgl32.Vec3
	Normals           []mgl32.Vec3
	UVLayers          [][]mgl32.Vec2
	PrelitColors      []rw.RGBA
	BoundingSphere    rw.Sphere
	SurfaceProperties *SurfaceProperties

	// NativeData is the platform-specific part of a native geometry struct.
	// The header counts and layout flags it describes are kept alongside.
	NativeData      []byte
	NativeTriangles uint32
	NativeVertices  uint32
	NativeFlags     uint32

	Materials  []Material
	Extensions map[string]Extension
}

// Flags computes the geometry flag bits from the populated fields.
func (g *Geometry) Flags() uint32 {
	var f uint32
	if g.TriStrip {
		f |= GeometryTriStrip
	}
	if len(g.Vertices) > 0 {
		f |= GeometryPositions
	}
	switch {
	case len(g.UVLayers) > 1:
		f |= GeometryTextured2
	case len(g.UVLayers) == 1:
		f |= GeometryTextured
	}
	if len(g.PrelitColors) > 0 {
		f |= GeometryPrelit
	}
	if len(g.Normals) > 0 {
		f |= GeometryNormals
	}
	if g.Lit {
		f |= GeometryLight
	}
	if g.ModulateMaterialColor {
		f |= GeometryModulateMaterialColor
	}
	if g.Native {
		return f | GeometryNative | g.NativeFlags&nativeFlagMask
	}
	return f | uint32(len(g.UVLayers)&0xFF)<<16
}

// Skin returns the skin plugin, or nil.
func (g *Geometry) Skin() *SkinPLG {
	s, _ := g.Extensions[KeySkin].(*SkinPLG)
	return s
}

// uvLayerCount reads the texture coordinate set count from the flags. Older
// files leave the count byte empty and only set the textured bits.
func uvLayerCount(flags uint32) int {
	if n := int(flags >> 16 & 0xFF); n > 0 {
		return n
	}
	switch {
	case flags&GeometryTextured2 != 0:
		return 2
	case flags&GeometryTextured != 0:
		return 1
	}
	return 0
}

func decodeGeometryList(r *rw.Reader, version uint32) ([]Geometry, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, fmt.Errorf("geometry list: %w", err)
	}
	count := st.U32()
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("geometry list: %w", err)
	}

	var geometries []Geometry
	for i := uint32(0); i < count; i++ {
		_, body, err := r.ExpectChunk(rw.ChunkGeometry)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		g, err := decodeGeometry(body, version)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		geometries = append(geometries, *g)
	}
	return geometries, nil
}

func decodeGeometry(r *rw.Reader, version uint32) (*Geometry, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, err
	}

	flags := st.U32()
	numTriangles := int(st.U32())
	numVertices := int(st.U32())
	numMorphTargets := st.U32()
	if err := st.Err(); err != nil {
		return nil, err
	}

	g := &Geometry{
		TriStrip:              flags&GeometryTriStrip != 0,
		Lit:                   flags&GeometryLight != 0,
		ModulateMaterialColor: flags&GeometryModulateMaterialColor != 0,
		Native:                flags&GeometryNative != 0,
		Extensions:            make(map[string]Extension),
	}
	if version < surfacePropertiesLimit {
		g.SurfaceProperties = &SurfaceProperties{Ambient: st.F32(), Specular: st.F32(), Diffuse: st.F32()}
	}

	if g.Native {
		g.NativeData = st.Bytes(st.Len())
		g.NativeTriangles = uint32(numTriangles)
		g.NativeVertices = uint32(numVertices)
		g.NativeFlags = flags & nativeFlagMask
	} else {
		if err := decodeGeometryData(st, g, flags, numTriangles, numVertices, numMorphTargets); err != nil {
			return nil, err
		}
	}
	if err := st.Err(); err != nil {
		return nil, err
	}

	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return nil, err
		}
		switch c.Type {
		case rw.ChunkMaterialList:
			if g.Materials, err = decodeMaterialList(body, version); err != nil {
				return nil, fmt.Errorf("material list: %w", err)
			}
		case rw.ChunkExtension:
			if err := decodeGeometryExtensions(body, g, numVertices); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// checkCount fails when n records of size bytes cannot fit in the reader.
func checkCount(r *rw.Reader, n, size int, what string) error {
	if n < 0 || n > r.Len()/size {
		return fmt.Errorf("%w: %d %s in %d bytes", rw.ErrTruncatedInput, n, what, r.Len())
	}
	return nil
}

func decodeGeometryData(st *rw.Reader, g *Geometry, flags uint32, numTriangles, numVertices int, numMorphTargets uint32) error {
	if flags&GeometryPrelit != 0 && numVertices > 0 {
		if err := checkCount(st, numVertices, 4, "prelit colours"); err != nil {
			return err
		}
		g.PrelitColors = make([]rw.RGBA, numVertices)
		for i := range g.PrelitColors {
			g.PrelitColors[i] = st.RGBA()
		}
	}

	for range uvLayerCount(flags) {
		if err := checkCount(st, numVertices, 8, "texture coordinates"); err != nil {
			return err
		}
		layer := make([]mgl32.Vec2, numVertices)
		for i := range layer {
			layer[i] = mgl32.Vec2{st.F32(), st.F32()}
		}
		g.UVLayers = append(g.UVLayers, layer)
	}

	if err := checkCount(st, numTriangles, 8, "triangles"); err != nil {
		return err
	}
	g.Triangles = make([]Triangle, numTriangles)
	for i := range g.Triangles {
		t := &g.Triangles[i]
		t.B = st.U16()
		t.A = st.U16()
		t.Material = st.U16()
		t.C = st.U16()
	}

	// Only the first morph target is kept.
	for m := uint32(0); m < numMorphTargets; m++ {
		sphere := st.Sphere()
		hasVertices := st.U32() != 0
		hasNormals := st.U32() != 0
		if err := st.Err(); err != nil {
			return err
		}
		var verts, normals []mgl32.Vec3
		if hasVertices && numVertices > 0 {
			if err := checkCount(st, numVertices, 12, "vertices"); err != nil {
				return err
			}
			verts = readVec3s(st, numVertices)
		}
		if hasNormals && numVertices > 0 {
			if err := checkCount(st, numVertices, 12, "normals"); err != nil {
				return err
			}
			normals = readVec3s(st, numVertices)
		}
		if m == 0 {
			g.BoundingSphere = sphere
			g.Vertices = verts
			g.Normals = normals
		}
	}
	return st.Err()
}

func readVec3s(r *rw.Reader, n int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = r.Vec3()
	}
	return out
}

func decodeGeometryExtensions(r *rw.Reader, g *Geometry, numVertices int) error {
	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return err
		}
		switch c.Type {
		case rw.ChunkSkinPLG:
			if g.Native {
				storeRaw(g.Extensions, c.Type, body)
				continue
			}
			skin, err := decodeSkin(body, numVertices)
			if err != nil {
				return fmt.Errorf("skin: %w", err)
			}
			g.Extensions[KeySkin] = skin
		case rw.ChunkExtraVertColor:
			nc, err := decodeNightColors(body, numVertices)
			if err != nil {
				return fmt.Errorf("extra vert colour: %w", err)
			}
			g.Extensions[KeyNightColors] = nc
		case rw.ChunkBinMeshPLG:
			// Rebuilt from the triangles on encode. Native meshes keep theirs.
			if g.Native {
				g.Extensions[KeyBinMesh] = &RawExtension{Type: c.Type, Data: body.Bytes(body.Len())}
			}
		default:
			storeRaw(g.Extensions, c.Type, body)
		}
	}
	return nil
}

// NightColors is the extra vertex colour plugin used for night-time prelighting.
type NightColors struct {
	Colors []rw.RGBA
}

// ChunkType implements Extension.
func (*NightColors) ChunkType() uint32 { return rw.ChunkExtraVertColor }

func decodeNightColors(r *rw.Reader, numVertices int) (*NightColors, error) {
	nc := &NightColors{}
	if r.U32() != 0 {
		if err := checkCount(r, numVertices, 4, "colours"); err != nil {
			return nil, err
		}
		nc.Colors = make([]rw.RGBA, numVertices)
		for i := range nc.Colors {
			nc.Colors[i] = r.RGBA()
		}
	}
	return nc, r.Err()
}

func (ctx *encodeContext) encodeGeometryList(geometries []Geometry) ([]byte, error) {
	st := rw.NewWriter()
	st.U32(uint32(len(geometries)))

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	for i := range geometries {
		body, err := ctx.encodeGeometry(&geometries[i])
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		ctx.chunk(w, rw.ChunkGeometry, body)
	}
	return w.Bytes(), nil
}

func (ctx *encodeContext) encodeGeometry(g *Geometry) ([]byte, error) {
	numTriangles, numVertices := uint32(len(g.Triangles)), uint32(len(g.Vertices))
	if g.Native {
		if g.NativeData == nil {
			return nil, ErrNativeGeometry
		}
		numTriangles, numVertices = g.NativeTriangles, g.NativeVertices
	} else if err := g.checkParallel(); err != nil {
		return nil, err
	}

	flags := g.Flags()
	if !g.Native {
		// The regenerated bin mesh is always a triangle list.
		flags &^= GeometryTriStrip
	}

	st := rw.NewWriter()
	st.U32(flags)
	st.U32(numTriangles)
	st.U32(numVertices)
	st.U32(1)
	if ctx.version < surfacePropertiesLimit {
		sp := defaultSurfaceProperties
		if g.SurfaceProperties != nil {
			sp = *g.SurfaceProperties
		}
		st.F32(sp.Ambient)
		st.F32(sp.Specular)
		st.F32(sp.Diffuse)
	}

	if g.Native {
		st.Raw(g.NativeData)
	} else {
		for _, c := range g.PrelitColors {
			st.RGBA(c)
		}
		for _, layer := range g.UVLayers {
			for _, uv := range layer {
				st.F32(uv[0])
				st.F32(uv[1])
			}
		}
		for _, t := range g.Triangles {
			st.U16(t.B)
			st.U16(t.A)
			st.U16(t.Material)
			st.U16(t.C)
		}
		st.Sphere(g.BoundingSphere)
		st.U32(boolU32(len(g.Vertices) > 0))
		st.U32(boolU32(len(g.Normals) > 0))
		for _, v := range g.Vertices {
			st.Vec3(v)
		}
		for _, n := range g.Normals {
			st.Vec3(n)
		}
	}

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	ctx.chunk(w, rw.ChunkMaterialList, ctx.encodeMaterialList(g.Materials))
	ctx.chunk(w, rw.ChunkExtension, ctx.encodeGeometryExtensions(g))
	return w.Bytes(), nil
}

// checkParallel verifies that every per-vertex array matches the vertex count.
func (g *Geometry) checkParallel() error {
	n := len(g.Vertices)
	if g.Native {
		return nil
	}
	if len(g.Normals) > 0 && len(g.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidReference, len(g.Normals), n)
	}
	if len(g.PrelitColors) > 0 && len(g.PrelitColors) != n {
		return fmt.Errorf("%w: %d prelit colours for %d vertices", ErrInvalidReference, len(g.PrelitColors), n)
	}
	for i, layer := range g.UVLayers {
		if len(layer) != n {
			return fmt.Errorf("%w: uv layer %d has %d entries for %d vertices", ErrInvalidReference, i, len(layer), n)
		}
	}
	for i, t := range g.Triangles {
		if int(t.A) >= n || int(t.B) >= n || int(t.C) >= n {
			return fmt.Errorf("%w: triangle %d indexes past %d vertices", ErrInvalidReference, i, n)
		}
		if len(g.Materials) > 0 && int(t.Material) >= len(g.Materials) {
			return fmt.Errorf("%w: triangle %d uses material %d of %d", ErrInvalidReference, i, t.Material, len(g.Materials))
		}
	}
	if skin := g.Skin(); skin != nil {
		if len(skin.VertexBoneIndices) != n || len(skin.VertexBoneWeights) != n {
			return fmt.Errorf("%w: skin has %d/%d vertex weights for %d vertices",
				ErrInvalidReference, len(skin.VertexBoneIndices), len(skin.VertexBoneWeights), n)
		}
	}
	return nil
}

func (ctx *encodeContext) encodeGeometryExtensions(g *Geometry) []byte {
	w := rw.NewWriter()
	if raw, ok := g.Extensions[KeyBinMesh].(*RawExtension); ok && g.Native {
		ctx.writeRaw(w, raw)
	} else if !g.Native {
		ctx.chunk(w, rw.ChunkBinMeshPLG, encodeBinMesh(g))
	}
	for _, k := range extensionOrder(g.Extensions, KeySkin, KeyNightColors) {
		switch e := g.Extensions[k].(type) {
		case *SkinPLG:
			ctx.chunk(w, rw.ChunkSkinPLG, encodeSkin(e))
		case *NightColors:
			b := rw.NewWriter()
			b.U32(boolU32(len(e.Colors) > 0))
			for _, c := range e.Colors {
				b.RGBA(c)
			}
			ctx.chunk(w, rw.ChunkExtraVertColor, b.Bytes())
		case *RawExtension:
			if k != KeyBinMesh {
				ctx.writeRaw(w, e)
			}
		}
	}
	return w.Bytes()
}

// encodeBinMesh splits the triangles into one triangle list per material.
func encodeBinMesh(g *Geometry) []byte {
	split := make(map[uint16][]uint32)
	var order []uint16
	for _, t := range g.Triangles {
		if _, ok := split[t.Material]; !ok {
			order = append(order, t.Material)
		}
		split[t.Material] = append(split[t.Material], uint32(t.A), uint32(t.B), uint32(t.C))
	}
	slices.Sort(order)

	w := rw.NewWriter()
	w.U32(0)
	w.U32(uint32(len(order)))
	w.U32(uint32(len(g.Triangles) * 3))
	for _, mat := range order {
		indices := split[mat]
		w.U32(uint32(len(indices)))
		w.U32(uint32(mat))
		for _, idx := range indices {
			w.U32(idx)
		}
	}
	return w.Bytes()
}
