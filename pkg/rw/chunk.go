package rw

import (
	"encoding/binary"
	"fmt"
)

// ChunkHeaderSize is the size of the envelope preceding every chunk body.
const ChunkHeaderSize = 12

// Chunk type ids.
const (
	ChunkStruct        uint32 = 0x01
	ChunkString        uint32 = 0x02
	ChunkExtension     uint32 = 0x03
	ChunkCamera        uint32 = 0x05
	ChunkTexture       uint32 = 0x06
	ChunkMaterial      uint32 = 0x07
	ChunkMaterialList  uint32 = 0x08
	ChunkFrameList     uint32 = 0x0E
	ChunkGeometry      uint32 = 0x0F
	ChunkClump         uint32 = 0x10
	ChunkLight         uint32 = 0x12
	ChunkAtomic        uint32 = 0x14
	ChunkGeometryList  uint32 = 0x1A
	ChunkRightToRender uint32 = 0x1F
	ChunkUVAnimDict    uint32 = 0x2B

	ChunkSkinPLG     uint32 = 0x116
	ChunkHAnimPLG    uint32 = 0x11E
	ChunkUserDataPLG uint32 = 0x11F
	ChunkMatFXPLG    uint32 = 0x120
	ChunkUVAnimPLG   uint32 = 0x135
	ChunkBinMeshPLG  uint32 = 0x50E

	ChunkPipelineSet    uint32 = 0x253F2F3
	ChunkSpecularMat    uint32 = 0x253F2F6
	Chunk2dEffect       uint32 = 0x253F2F8
	ChunkExtraVertColor uint32 = 0x253F2F9
	ChunkCollisionModel uint32 = 0x253F2FA
	ChunkReflectionMat  uint32 = 0x253F2FC
	ChunkFrame          uint32 = 0x253F2FE
)

var chunkNames = map[uint32]string{
	ChunkStruct:         "Struct",
	ChunkString:         "String",
	ChunkExtension:      "Extension",
	ChunkCamera:         "Camera",
	ChunkTexture:        "Texture",
	ChunkMaterial:       "Material",
	ChunkMaterialList:   "Material List",
	ChunkFrameList:      "Frame List",
	ChunkGeometry:       "Geometry",
	ChunkClump:          "Clump",
	ChunkLight:          "Light",
	ChunkAtomic:         "Atomic",
	ChunkGeometryList:   "Geometry List",
	ChunkRightToRender:  "Right To Render",
	ChunkUVAnimDict:     "UV Anim Dictionary",
	ChunkSkinPLG:        "Skin PLG",
	ChunkHAnimPLG:       "HAnim PLG",
	ChunkUserDataPLG:    "User Data PLG",
	ChunkMatFXPLG:       "Material Effects PLG",
	ChunkUVAnimPLG:      "UV Anim PLG",
	ChunkBinMeshPLG:     "Bin Mesh PLG",
	ChunkPipelineSet:    "Pipeline Set",
	ChunkSpecularMat:    "Specular Material",
	Chunk2dEffect:       "2d Effect",
	ChunkExtraVertColor: "Extra Vert Colour",
	ChunkCollisionModel: "Collision Model",
	ChunkReflectionMat:  "Reflection Material",
	ChunkFrame:          "Frame",
}

// ChunkName returns a human-readable name for a chunk type id.
func ChunkName(typ uint32) string {
	if name, ok := chunkNames[typ]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%X)", typ)
}

// Chunk is the envelope preceding every section of a RenderWare stream.
// Size is the length of the body and does not include the header.
type Chunk struct {
	Type      uint32
	Size      uint32
	LibraryID uint32
}

// String returns a short description of the chunk.
func (c Chunk) String() string {
	return fmt.Sprintf("%s size=%d lib=0x%08X", ChunkName(c.Type), c.Size, c.LibraryID)
}

// Version decodes the library id carried by the chunk.
func (c Chunk) Version() (uint32, error) {
	return RWVersion(c.LibraryID)
}

// ReadChunkHeader reads a chunk header at offset and returns it together with
// the number of bytes consumed.
func ReadChunkHeader(data []byte, offset int) (Chunk, int, error) {
	if offset < 0 || len(data)-offset < ChunkHeaderSize {
		return Chunk{}, 0, fmt.Errorf("%w: chunk header at offset %d", ErrTruncatedInput, offset)
	}
	b := data[offset:]
	return Chunk{
		Type:      binary.LittleEndian.Uint32(b[0:]),
		Size:      binary.LittleEndian.Uint32(b[4:]),
		LibraryID: binary.LittleEndian.Uint32(b[8:]),
	}, ChunkHeaderSize, nil
}

// AppendChunkHeader appends the encoded header to dst.
func AppendChunkHeader(dst []byte, c Chunk) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, c.Type)
	dst = binary.LittleEndian.AppendUint32(dst, c.Size)
	return binary.LittleEndian.AppendUint32(dst, c.LibraryID)
}

// WriteChunk prepends a chunk header to body.
func WriteChunk(body []byte, typ, libraryID uint32) []byte {
	out := make([]byte, 0, ChunkHeaderSize+len(body))
	out = AppendChunkHeader(out, Chunk{Type: typ, Size: uint32(len(body)), LibraryID: libraryID})
	return append(out, body...)
}
