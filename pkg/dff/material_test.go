package dff

import (
	"errors"
	"testing"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

func materialStruct(r, g, b, a uint8, textured uint32) []byte {
	w := rw.NewWriter()
	w.U32(0)
	w.RGBA(rw.RGBA{R: r, G: g, B: b, A: a})
	w.U32(0)
	w.U32(textured)
	w.F32(1)
	w.F32(1)
	w.F32(1)
	return w.Bytes()
}

func textureChunk(name string) []byte {
	return chunk(rw.ChunkTexture,
		chunk(rw.ChunkStruct, []byte{0x06, 0x11, 0, 0}),
		chunk(rw.ChunkString, rw.EncodeString(name)),
		chunk(rw.ChunkString, rw.EncodeString("")),
		chunk(rw.ChunkExtension),
	)
}

func TestDecodeMaterialList_Instances(t *testing.T) {
	w := rw.NewWriter()
	w.U32(3)
	w.I32(-1)
	w.I32(0)
	w.I32(-1)

	data := append(chunk(rw.ChunkStruct, w.Bytes()),
		chunk(rw.ChunkMaterial,
			chunk(rw.ChunkStruct, materialStruct(255, 0, 0, 255, 1)),
			textureChunk("wheel"),
			chunk(rw.ChunkExtension),
		)...)
	data = append(data, chunk(rw.ChunkMaterial,
		chunk(rw.ChunkStruct, materialStruct(0, 255, 0, 255, 0)),
		chunk(rw.ChunkExtension, chunk(0x9999, []byte{1, 2})),
	)...)

	mats, err := decodeMaterialList(rw.NewReader(data), 0x36003)
	if err != nil {
		t.Fatalf("decodeMaterialList failed: %v", err)
	}
	if len(mats) != 3 {
		t.Fatalf("got %d materials", len(mats))
	}
	if mats[1].Color != mats[0].Color || mats[1].Textures[0].Name != "wheel" {
		t.Errorf("instance not expanded: %+v", mats[1])
	}
	mats[1].Textures[0].Name = "changed"
	if mats[0].Textures[0].Name != "wheel" {
		t.Error("instanced material shares its texture list")
	}
	if mats[2].Color.G != 255 || mats[2].IsTextured {
		t.Errorf("material 2 = %+v", mats[2])
	}
	if _, ok := mats[2].Plugins[RawKey(0x9999)]; !ok {
		t.Error("unknown material plugin was not kept")
	}
	if tex := mats[0].Textures[0]; tex.FilterMode() != 6 || tex.AddressU() != 1 || tex.AddressV() != 1 {
		t.Errorf("texture filters: mode=%d u=%d v=%d", tex.FilterMode(), tex.AddressU(), tex.AddressV())
	}
}

func TestDecodeMaterialList_ForwardInstance(t *testing.T) {
	w := rw.NewWriter()
	w.U32(1)
	w.I32(0)
	data := chunk(rw.ChunkStruct, w.Bytes())
	if _, err := decodeMaterialList(rw.NewReader(data), 0x36003); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestMatFX_BumpAndDual(t *testing.T) {
	bump := newTexture("bump")
	dual := newTexture("detail")
	plugins := map[string]Extension{
		KeyMatFX: &MatFX{Type: MatFXDual, Effects: [2]MatFXEffect{
			&BumpMapFX{Intensity: 2, BumpTexture: &bump},
			&DualPassFX{SrcBlend: 5, DstBlend: 6, Texture: &dual},
		}},
	}
	ctx := &encodeContext{libraryID: rw.LibrarySA, version: 0x36003}
	data := ctx.encodeMaterialPlugins(plugins)

	out := make(map[string]Extension)
	if err := decodeMaterialPlugins(rw.NewReader(data), out, 0x36003); err != nil {
		t.Fatalf("decodeMaterialPlugins failed: %v", err)
	}
	fx, ok := out[KeyMatFX].(*MatFX)
	if !ok {
		t.Fatalf("no MatFX plugin: %+v", out)
	}
	b, ok := fx.Effects[0].(*BumpMapFX)
	if !ok || b.Intensity != 2 || b.BumpTexture.Name != "bump" || b.HeightTexture != nil {
		t.Errorf("bump effect = %+v", fx.Effects[0])
	}
	d, ok := fx.Effects[1].(*DualPassFX)
	if !ok || d.SrcBlend != 5 || d.Texture.Name != "detail" {
		t.Errorf("dual effect = %+v", fx.Effects[1])
	}
}

func TestMaterialClone_Independent(t *testing.T) {
	src := Material{
		SurfaceProperties: &SurfaceProperties{Ambient: 1, Specular: 1, Diffuse: 1},
		Textures: []Texture{{
			Name:       "wheel",
			Extensions: map[string]Extension{RawKey(0x9999): &RawExtension{Type: 0x9999, Data: []byte{1}}},
		}},
		Plugins: map[string]Extension{
			KeySpecular: &SpecularMaterial{Level: 0.5, Texture: "spec"},
			KeyMatFX: &MatFX{Type: MatFXEnvMap, Effects: [2]MatFXEffect{
				&EnvMapFX{Coefficient: 1, Texture: &Texture{Name: "env"}},
			}},
			KeyUVAnim: &UVAnimMaterial{Names: []string{"scroll"}},
		},
	}

	c := src.clone()
	c.SurfaceProperties.Ambient = 0
	c.Textures[0].Name = "changed"
	delete(c.Textures[0].Extensions, RawKey(0x9999))
	c.Plugins[KeySpecular].(*SpecularMaterial).Level = 9
	c.Plugins[KeyMatFX].(*MatFX).Effects[0].(*EnvMapFX).Texture.Name = "other"
	c.Plugins[KeyUVAnim].(*UVAnimMaterial).Names[0] = "other"

	if src.SurfaceProperties.Ambient != 1 {
		t.Error("surface properties shared")
	}
	if src.Textures[0].Name != "wheel" || len(src.Textures[0].Extensions) != 1 {
		t.Errorf("texture shared: %+v", src.Textures[0])
	}
	if lvl := src.Plugins[KeySpecular].(*SpecularMaterial).Level; lvl != 0.5 {
		t.Errorf("specular level = %v, want 0.5", lvl)
	}
	if name := src.Plugins[KeyMatFX].(*MatFX).Effects[0].(*EnvMapFX).Texture.Name; name != "env" {
		t.Errorf("env map texture = %q, want env", name)
	}
	if name := src.Plugins[KeyUVAnim].(*UVAnimMaterial).Names[0]; name != "scroll" {
		t.Errorf("uv anim name = %q, want scroll", name)
	}
}
