// Package dff reads and writes RenderWare DFF clumps: frames and skeletons,
// geometry with its materials and skinning, and the atomics binding them.
package dff

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// DFF format errors.
var (
	ErrInvalidReference = errors.New("invalid clump reference")
	ErrNativeGeometry   = errors.New("native geometry has no platform data")
)

// Extension keys used in the Extensions and Plugins maps.
const (
	KeySkin          = "skin"
	KeyNightColors   = "extra_vert_color"
	KeyBinMesh       = "bin_mesh"
	KeyMatFX         = "mat_fx"
	KeySpecular      = "specular"
	KeyReflection    = "reflection"
	KeyUVAnim        = "uv_anim"
	KeyRightToRender = "right_to_render"
	KeyPipeline      = "pipeline"
)

// Extension is a plugin payload carried in an Extension chunk.
type Extension interface {
	ChunkType() uint32
}

// RawExtension is an extension this package does not decode. Its body is kept
// so it can be written back unchanged.
type RawExtension struct {
	Type uint32
	Data []byte
}

// ChunkType implements Extension.
func (e *RawExtension) ChunkType() uint32 { return e.Type }

// RawKey returns the map key used for an undecoded extension.
func RawKey(typ uint32) string {
	return fmt.Sprintf("unknown_%08x", typ)
}

func storeRaw(exts map[string]Extension, typ uint32, body *rw.Reader) {
	exts[RawKey(typ)] = &RawExtension{Type: typ, Data: body.Bytes(body.Len())}
}

// extensionOrder returns the keys of exts with known keys first in the given
// order and the remaining ones sorted by chunk type.
func extensionOrder(exts map[string]Extension, known ...string) []string {
	keys := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k] = true
		if _, ok := exts[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range exts {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		ti, tj := exts[rest[i]].ChunkType(), exts[rest[j]].ChunkType()
		if ti != tj {
			return ti < tj
		}
		return rest[i] < rest[j]
	})
	return append(keys, rest...)
}

// encodeContext carries the target version through every encoder.
type encodeContext struct {
	libraryID uint32
	version   uint32
}

func (ctx *encodeContext) chunk(w *rw.Writer, typ uint32, body []byte) {
	w.Chunk(typ, ctx.libraryID, body)
}

func (ctx *encodeContext) writeRaw(w *rw.Writer, e *RawExtension) {
	ctx.chunk(w, e.Type, e.Data)
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
