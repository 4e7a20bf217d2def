package dff

import (
	"fmt"
	"math/bits"
	"slices"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// SurfaceProperties is the legacy lighting coefficient triple.
type SurfaceProperties struct {
	Ambient  float32
	Specular float32
	Diffuse  float32
}

var defaultSurfaceProperties = SurfaceProperties{Ambient: 1, Specular: 1, Diffuse: 1}

// Texture references a raster by name.
type Texture struct {
	Filters    uint16 // Filter mode in the low byte, U/V addressing nibbles above it
	Flags      uint16 // Bit 0 requests mipmaps
	Name       string
	Mask       string
	Extensions map[string]Extension
}

// FilterMode returns the texture filtering mode.
func (t *Texture) FilterMode() uint8 { return uint8(t.Filters) }

// AddressU returns the U addressing mode.
func (t *Texture) AddressU() uint8 { return uint8(t.Filters>>8) & 0xF }

// AddressV returns the V addressing mode.
func (t *Texture) AddressV() uint8 { return uint8(t.Filters >> 12) }

// Material describes the surface of a group of triangles. Only the first
// texture is written back.
type Material struct {
	Flags             uint32
	Color             rw.RGBA
	Unused            uint32
	IsTextured        bool
	SurfaceProperties *SurfaceProperties
	Textures          []Texture
	Plugins           map[string]Extension
}

// clone returns a deep copy for instanced material list entries.
func (m Material) clone() Material {
	if m.SurfaceProperties != nil {
		sp := *m.SurfaceProperties
		m.SurfaceProperties = &sp
	}
	if m.Textures != nil {
		textures := make([]Texture, len(m.Textures))
		for i := range m.Textures {
			textures[i] = *cloneTexture(&m.Textures[i])
		}
		m.Textures = textures
	}
	m.Plugins = cloneExtensions(m.Plugins)
	return m
}

func cloneTexture(t *Texture) *Texture {
	if t == nil {
		return nil
	}
	c := *t
	c.Extensions = cloneExtensions(t.Extensions)
	return &c
}

func cloneExtensions(exts map[string]Extension) map[string]Extension {
	if exts == nil {
		return nil
	}
	out := make(map[string]Extension, len(exts))
	for k, v := range exts {
		out[k] = cloneExtension(v)
	}
	return out
}

func cloneExtension(e Extension) Extension {
	switch e := e.(type) {
	case *MatFX:
		c := *e
		for i, fx := range e.Effects {
			c.Effects[i] = cloneEffect(fx)
		}
		return &c
	case *SpecularMaterial:
		c := *e
		return &c
	case *ReflectionMaterial:
		c := *e
		return &c
	case *UVAnimMaterial:
		return &UVAnimMaterial{Names: slices.Clone(e.Names)}
	case *RawExtension:
		return &RawExtension{Type: e.Type, Data: slices.Clone(e.Data)}
	default:
		return e
	}
}

func cloneEffect(fx MatFXEffect) MatFXEffect {
	switch fx := fx.(type) {
	case *BumpMapFX:
		c := *fx
		c.BumpTexture = cloneTexture(fx.BumpTexture)
		c.HeightTexture = cloneTexture(fx.HeightTexture)
		return &c
	case *EnvMapFX:
		c := *fx
		c.Texture = cloneTexture(fx.Texture)
		return &c
	case *DualPassFX:
		c := *fx
		c.Texture = cloneTexture(fx.Texture)
		return &c
	case *UVTransformFX:
		return &UVTransformFX{}
	default:
		return fx
	}
}

// Material effect types.
const (
	MatFXNone            uint32 = 0
	MatFXBumpMap         uint32 = 1
	MatFXEnvMap          uint32 = 2
	MatFXBumpEnvMap      uint32 = 3
	MatFXDual            uint32 = 4
	MatFXUVTransform     uint32 = 5
	MatFXDualUVTransform uint32 = 6
)

// MatFXEffect is one of the two effect slots of a MatFX plugin.
type MatFXEffect interface {
	EffectType() uint32
}

// BumpMapFX bumps the base texture.
type BumpMapFX struct {
	Intensity     float32
	BumpTexture   *Texture
	HeightTexture *Texture
}

// EnvMapFX adds an environment reflection.
type EnvMapFX struct {
	Coefficient         float32
	UseFrameBufferAlpha bool
	Texture             *Texture
}

// DualPassFX blends a second texture pass.
type DualPassFX struct {
	SrcBlend uint32
	DstBlend uint32
	Texture  *Texture
}

// UVTransformFX enables the UV animation matrices.
type UVTransformFX struct{}

func (*BumpMapFX) EffectType() uint32     { return MatFXBumpMap }
func (*EnvMapFX) EffectType() uint32      { return MatFXEnvMap }
func (*DualPassFX) EffectType() uint32    { return MatFXDual }
func (*UVTransformFX) EffectType() uint32 { return MatFXUVTransform }

// MatFX is the Material Effects plugin. A nil slot holds no effect.
type MatFX struct {
	Type    uint32
	Effects [2]MatFXEffect
}

// SpecularMaterial is the specular lighting plugin.
type SpecularMaterial struct {
	Level   float32
	Texture string
}

// ReflectionMaterial is the vehicle reflection plugin.
type ReflectionMaterial struct {
	Scale     [2]float32
	Offset    [2]float32
	Intensity float32
	Unused    uint32
}

// UVAnimMaterial lists the UV animations applied to the material.
type UVAnimMaterial struct {
	Names []string
}

func (*MatFX) ChunkType() uint32              { return rw.ChunkMatFXPLG }
func (*SpecularMaterial) ChunkType() uint32   { return rw.ChunkSpecularMat }
func (*ReflectionMaterial) ChunkType() uint32 { return rw.ChunkReflectionMat }
func (*UVAnimMaterial) ChunkType() uint32     { return rw.ChunkUVAnimPLG }

const (
	specularNameSize = 24
	uvAnimNameSize   = 32
)

// decodeMaterialList expands instanced entries into copies of the material
// they reference.
func decodeMaterialList(r *rw.Reader, version uint32) ([]Material, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, err
	}
	count := st.U32()
	if st.Err() == nil && int(count) > st.Len()/4 {
		return nil, fmt.Errorf("%w: %d materials in %d bytes", rw.ErrTruncatedInput, count, st.Len())
	}
	indices := make([]int32, count)
	for i := range indices {
		indices[i] = st.I32()
	}
	if err := st.Err(); err != nil {
		return nil, err
	}

	materials := make([]Material, count)
	for i, idx := range indices {
		if idx >= 0 {
			if int(idx) >= i {
				return nil, fmt.Errorf("%w: material %d instances %d", ErrInvalidReference, i, idx)
			}
			materials[i] = materials[idx].clone()
			continue
		}
		_, body, err := r.ExpectChunk(rw.ChunkMaterial)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		m, err := decodeMaterial(body, version)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = *m
	}
	return materials, nil
}

func decodeMaterial(r *rw.Reader, version uint32) (*Material, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, err
	}
	m := &Material{
		Flags:      st.U32(),
		Color:      st.RGBA(),
		Unused:     st.U32(),
		IsTextured: st.U32() != 0,
		Plugins:    make(map[string]Extension),
	}
	if version > 0x30400 && st.Len() >= 12 {
		m.SurfaceProperties = &SurfaceProperties{Ambient: st.F32(), Specular: st.F32(), Diffuse: st.F32()}
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
		case rw.ChunkTexture:
			t, err := decodeTexture(body)
			if err != nil {
				return nil, fmt.Errorf("texture: %w", err)
			}
			m.Textures = append(m.Textures, *t)
		case rw.ChunkExtension:
			if err := decodeMaterialPlugins(body, m.Plugins, version); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func decodeTexture(r *rw.Reader) (*Texture, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, err
	}
	t := &Texture{
		Filters:    st.U16(),
		Flags:      st.U16(),
		Extensions: make(map[string]Extension),
	}
	if err := st.Err(); err != nil {
		return nil, err
	}

	strs := 0
	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return nil, err
		}
		switch c.Type {
		case rw.ChunkString:
			if strs == 0 {
				t.Name = rw.ReadString(body.Data())
			} else {
				t.Mask = rw.ReadString(body.Data())
			}
			strs++
		case rw.ChunkExtension:
			for body.Len() > 0 {
				ec, eb := body.Chunk()
				if err := body.Err(); err != nil {
					return nil, err
				}
				storeRaw(t.Extensions, ec.Type, eb)
			}
		}
	}
	return t, nil
}

func decodeMaterialPlugins(r *rw.Reader, plugins map[string]Extension, version uint32) error {
	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return err
		}
		var (
			key string
			ext Extension
			err error
		)
		switch c.Type {
		case rw.ChunkMatFXPLG:
			key = KeyMatFX
			ext, err = decodeMatFX(body)
		case rw.ChunkSpecularMat:
			key = KeySpecular
			ext = &SpecularMaterial{
				Level:   body.F32(),
				Texture: encoding.FixedString(body.Bytes(specularNameSize)),
			}
			err = body.Err()
		case rw.ChunkReflectionMat:
			key = KeyReflection
			ext = &ReflectionMaterial{
				Scale:     [2]float32{body.F32(), body.F32()},
				Offset:    [2]float32{body.F32(), body.F32()},
				Intensity: body.F32(),
				Unused:    body.U32(),
			}
			err = body.Err()
		case rw.ChunkUVAnimPLG:
			key = KeyUVAnim
			ext, err = decodeUVAnim(body)
		default:
			storeRaw(plugins, c.Type, body)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", rw.ChunkName(c.Type), err)
		}
		plugins[key] = ext
	}
	return nil
}

func decodeMatFX(r *rw.Reader) (*MatFX, error) {
	fx := &MatFX{Type: r.U32()}
	for slot := range fx.Effects {
		typ := r.U32()
		if err := r.Err(); err != nil {
			return nil, err
		}
		var err error
		switch typ {
		case MatFXNone:
		case MatFXBumpMap:
			e := &BumpMapFX{Intensity: r.F32()}
			if e.BumpTexture, err = decodeOptionalTexture(r); err == nil {
				e.HeightTexture, err = decodeOptionalTexture(r)
			}
			fx.Effects[slot] = e
		case MatFXEnvMap:
			e := &EnvMapFX{Coefficient: r.F32(), UseFrameBufferAlpha: r.U32() != 0}
			e.Texture, err = decodeOptionalTexture(r)
			fx.Effects[slot] = e
		case MatFXDual:
			e := &DualPassFX{SrcBlend: r.U32(), DstBlend: r.U32()}
			e.Texture, err = decodeOptionalTexture(r)
			fx.Effects[slot] = e
		case MatFXUVTransform:
			fx.Effects[slot] = &UVTransformFX{}
		default:
			return nil, fmt.Errorf("unsupported effect type %d in slot %d", typ, slot)
		}
		if err != nil {
			return nil, err
		}
	}
	return fx, r.Err()
}

func decodeOptionalTexture(r *rw.Reader) (*Texture, error) {
	if r.U32() == 0 {
		return nil, r.Err()
	}
	_, body, err := r.ExpectChunk(rw.ChunkTexture)
	if err != nil {
		return nil, err
	}
	return decodeTexture(body)
}

func decodeUVAnim(r *rw.Reader) (*UVAnimMaterial, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, err
	}
	mask := st.U32()
	uv := &UVAnimMaterial{Names: make([]string, bits.OnesCount32(mask))}
	for i := range uv.Names {
		uv.Names[i] = encoding.FixedString(st.Bytes(uvAnimNameSize))
	}
	return uv, st.Err()
}

func (ctx *encodeContext) encodeMaterialList(materials []Material) []byte {
	st := rw.NewWriter()
	st.U32(uint32(len(materials)))
	for range materials {
		st.I32(-1)
	}

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	for i := range materials {
		ctx.chunk(w, rw.ChunkMaterial, ctx.encodeMaterial(&materials[i]))
	}
	return w.Bytes()
}

func (ctx *encodeContext) encodeMaterial(m *Material) []byte {
	st := rw.NewWriter()
	st.U32(m.Flags)
	st.RGBA(m.Color)
	st.U32(m.Unused)
	st.U32(boolU32(m.IsTextured || len(m.Textures) > 0))
	if ctx.version > 0x30400 {
		sp := defaultSurfaceProperties
		if m.SurfaceProperties != nil {
			sp = *m.SurfaceProperties
		}
		st.F32(sp.Ambient)
		st.F32(sp.Specular)
		st.F32(sp.Diffuse)
	}

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	if len(m.Textures) > 0 {
		ctx.chunk(w, rw.ChunkTexture, ctx.encodeTexture(&m.Textures[0]))
	}
	ctx.chunk(w, rw.ChunkExtension, ctx.encodeMaterialPlugins(m.Plugins))
	return w.Bytes()
}

func (ctx *encodeContext) encodeTexture(t *Texture) []byte {
	st := rw.NewWriter()
	st.U16(t.Filters)
	st.U16(t.Flags)

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	ctx.chunk(w, rw.ChunkString, rw.EncodeString(t.Name))
	ctx.chunk(w, rw.ChunkString, rw.EncodeString(t.Mask))

	ext := rw.NewWriter()
	for _, k := range extensionOrder(t.Extensions) {
		if raw, ok := t.Extensions[k].(*RawExtension); ok {
			ctx.writeRaw(ext, raw)
		}
	}
	ctx.chunk(w, rw.ChunkExtension, ext.Bytes())
	return w.Bytes()
}

func (ctx *encodeContext) encodeMaterialPlugins(plugins map[string]Extension) []byte {
	w := rw.NewWriter()
	for _, k := range extensionOrder(plugins, KeyMatFX, KeyReflection, KeySpecular, KeyUVAnim) {
		switch p := plugins[k].(type) {
		case *MatFX:
			ctx.chunk(w, rw.ChunkMatFXPLG, ctx.encodeMatFX(p))
		case *SpecularMaterial:
			b := rw.NewWriter()
			b.F32(p.Level)
			b.Raw(encoding.PutFixedString(p.Texture, specularNameSize))
			ctx.chunk(w, rw.ChunkSpecularMat, b.Bytes())
		case *ReflectionMaterial:
			b := rw.NewWriter()
			b.F32(p.Scale[0])
			b.F32(p.Scale[1])
			b.F32(p.Offset[0])
			b.F32(p.Offset[1])
			b.F32(p.Intensity)
			b.U32(p.Unused)
			ctx.chunk(w, rw.ChunkReflectionMat, b.Bytes())
		case *UVAnimMaterial:
			st := rw.NewWriter()
			st.U32(uint32(1)<<len(p.Names) - 1)
			for _, name := range p.Names {
				st.Raw(encoding.PutFixedString(name, uvAnimNameSize))
			}
			b := rw.NewWriter()
			ctx.chunk(b, rw.ChunkStruct, st.Bytes())
			ctx.chunk(w, rw.ChunkUVAnimPLG, b.Bytes())
		case *RawExtension:
			ctx.writeRaw(w, p)
		}
	}
	return w.Bytes()
}

func (ctx *encodeContext) encodeMatFX(fx *MatFX) []byte {
	w := rw.NewWriter()
	w.U32(fx.Type)
	for _, e := range fx.Effects {
		switch e := e.(type) {
		case nil:
			w.U32(MatFXNone)
		case *BumpMapFX:
			w.U32(MatFXBumpMap)
			w.F32(e.Intensity)
			ctx.encodeOptionalTexture(w, e.BumpTexture)
			ctx.encodeOptionalTexture(w, e.HeightTexture)
		case *EnvMapFX:
			w.U32(MatFXEnvMap)
			w.F32(e.Coefficient)
			w.U32(boolU32(e.UseFrameBufferAlpha))
			ctx.encodeOptionalTexture(w, e.Texture)
		case *DualPassFX:
			w.U32(MatFXDual)
			w.U32(e.SrcBlend)
			w.U32(e.DstBlend)
			ctx.encodeOptionalTexture(w, e.Texture)
		case *UVTransformFX:
			w.U32(MatFXUVTransform)
		}
	}
	return w.Bytes()
}

func (ctx *encodeContext) encodeOptionalTexture(w *rw.Writer, t *Texture) {
	if t == nil {
		w.U32(0)
		return
	}
	w.U32(1)
	ctx.chunk(w, rw.ChunkTexture, ctx.encodeTexture(t))
}
