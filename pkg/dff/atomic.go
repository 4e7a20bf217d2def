package dff

import (
	"fmt"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// Atomic flag bits.
const (
	AtomicCollisionTest uint32 = 0x01
	AtomicRender        uint32 = 0x04
)

// Atomic binds a frame to a geometry.
type Atomic struct {
	Frame      uint32
	Geometry   uint32
	Flags      uint32
	Unused     uint32
	Extensions map[string]Extension
}

// RightToRender names the plugin that renders the atomic.
type RightToRender struct {
	Identifier uint32
	Extra      uint32
}

// PipelineSet selects a custom rendering pipeline.
type PipelineSet struct {
	Pipeline uint32
}

// AtomicMatFX enables material effects for the atomic.
type AtomicMatFX struct {
	Enabled bool
}

func (*RightToRender) ChunkType() uint32 { return rw.ChunkRightToRender }
func (*PipelineSet) ChunkType() uint32   { return rw.ChunkPipelineSet }
func (*AtomicMatFX) ChunkType() uint32   { return rw.ChunkMatFXPLG }

func decodeAtomic(r *rw.Reader) (*Atomic, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, err
	}
	a := &Atomic{
		Frame:      st.U32(),
		Geometry:   st.U32(),
		Flags:      st.U32(),
		Unused:     st.U32(),
		Extensions: make(map[string]Extension),
	}
	if err := st.Err(); err != nil {
		return nil, err
	}

	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return nil, err
		}
		if c.Type != rw.ChunkExtension {
			continue
		}
		for body.Len() > 0 {
			ec, eb := body.Chunk()
			if err := body.Err(); err != nil {
				return nil, err
			}
			switch ec.Type {
			case rw.ChunkRightToRender:
				a.Extensions[KeyRightToRender] = &RightToRender{Identifier: eb.U32(), Extra: eb.U32()}
			case rw.ChunkPipelineSet:
				a.Extensions[KeyPipeline] = &PipelineSet{Pipeline: eb.U32()}
			case rw.ChunkMatFXPLG:
				a.Extensions[KeyMatFX] = &AtomicMatFX{Enabled: eb.U32() != 0}
			default:
				storeRaw(a.Extensions, ec.Type, eb)
			}
			if err := eb.Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", rw.ChunkName(ec.Type), err)
			}
		}
	}
	return a, nil
}

func (ctx *encodeContext) encodeAtomic(a *Atomic) []byte {
	st := rw.NewWriter()
	st.U32(a.Frame)
	st.U32(a.Geometry)
	st.U32(a.Flags)
	st.U32(a.Unused)

	ext := rw.NewWriter()
	for _, k := range extensionOrder(a.Extensions, KeyRightToRender, KeyMatFX, KeyPipeline) {
		switch e := a.Extensions[k].(type) {
		case *RightToRender:
			b := rw.NewWriter()
			b.U32(e.Identifier)
			b.U32(e.Extra)
			ctx.chunk(ext, rw.ChunkRightToRender, b.Bytes())
		case *PipelineSet:
			b := rw.NewWriter()
			b.U32(e.Pipeline)
			ctx.chunk(ext, rw.ChunkPipelineSet, b.Bytes())
		case *AtomicMatFX:
			b := rw.NewWriter()
			b.U32(boolU32(e.Enabled))
			ctx.chunk(ext, rw.ChunkMatFXPLG, b.Bytes())
		case *RawExtension:
			ctx.writeRaw(ext, e)
		}
	}

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	ctx.chunk(w, rw.ChunkExtension, ext.Bytes())
	return w.Bytes()
}
