package dff

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// frameRecordSize is the size of one entry in the Frame List struct.
const frameRecordSize = 56

// Frame is a node of the clump hierarchy.
type Frame struct {
	Rotation      mgl32.Mat3 // Columns are the right, up and at vectors
	Position      mgl32.Vec3
	Parent        int32 // -1 for a root frame
	CreationFlags uint32
	Name          string
	BoneData      *HAnimPLG // Set for frames that are part of a skeleton

	Extensions map[string]Extension
}

// Bone is one entry of an HAnim hierarchy.
type Bone struct {
	ID    uint32
	Index uint32
	Type  uint32
}

// HAnimPLG identifies a frame within a skeleton. Only the skeleton root
// carries the bone list.
type HAnimPLG struct {
	Version      uint32
	ID           uint32
	Flags        uint32
	KeyFrameSize uint32
	Bones        []Bone
}

// ChunkType implements Extension.
func (h *HAnimPLG) ChunkType() uint32 { return rw.ChunkHAnimPLG }

// IsSkeletonRoot reports whether the frame carries the bone list.
// A zero bone count means the frame is addressed by ID only.
func (h *HAnimPLG) IsSkeletonRoot() bool {
	return len(h.Bones) > 0
}

// BoneByID returns the bone with the given ID, or nil.
func (h *HAnimPLG) BoneByID(id uint32) *Bone {
	for i := range h.Bones {
		if h.Bones[i].ID == id {
			return &h.Bones[i]
		}
	}
	return nil
}

// decodeFrameList reads every frame record first and then binds the
// extension chunks that follow to frames in the same order.
func decodeFrameList(r *rw.Reader) ([]Frame, error) {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return nil, fmt.Errorf("frame list: %w", err)
	}

	count := st.U32()
	if st.Err() == nil && int(count) > st.Len()/frameRecordSize {
		return nil, fmt.Errorf("frame list: %w: %d frames in %d bytes", rw.ErrTruncatedInput, count, st.Len())
	}
	frames := make([]Frame, count)
	for i := range frames {
		f := &frames[i]
		f.Rotation = st.Mat3()
		f.Position = st.Vec3()
		f.Parent = st.I32()
		f.CreationFlags = st.U32()
		f.Extensions = make(map[string]Extension)
	}
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("frame list: %w", err)
	}

	for i := 0; i < len(frames) && r.Len() > 0; {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("frame %d extension: %w", i, err)
		}
		if c.Type != rw.ChunkExtension {
			continue
		}
		if err := decodeFrameExtension(body, &frames[i]); err != nil {
			return nil, fmt.Errorf("frame %d extension: %w", i, err)
		}
		i++
	}
	return frames, nil
}

func decodeFrameExtension(r *rw.Reader, f *Frame) error {
	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return err
		}
		switch c.Type {
		case rw.ChunkFrame:
			f.Name = rw.ReadString(body.Data())
		case rw.ChunkHAnimPLG:
			h, err := decodeHAnim(body)
			if err != nil {
				return fmt.Errorf("hanim: %w", err)
			}
			f.BoneData = h
		default:
			storeRaw(f.Extensions, c.Type, body)
		}
	}
	return nil
}

func decodeHAnim(r *rw.Reader) (*HAnimPLG, error) {
	h := &HAnimPLG{
		Version: r.U32(),
		ID:      r.U32(),
	}
	count := r.U32()
	if count > 0 {
		h.Flags = r.U32()
		h.KeyFrameSize = r.U32()
		if r.Err() == nil && int(count) > r.Len()/12 {
			return nil, fmt.Errorf("%w: %d bones in %d bytes", rw.ErrTruncatedInput, count, r.Len())
		}
		h.Bones = make([]Bone, count)
		for i := range h.Bones {
			h.Bones[i] = Bone{ID: r.U32(), Index: r.U32(), Type: r.U32()}
		}
	}
	return h, r.Err()
}

func (ctx *encodeContext) encodeFrameList(frames []Frame) []byte {
	st := rw.NewWriter()
	st.U32(uint32(len(frames)))
	for i := range frames {
		f := &frames[i]
		st.Mat3(f.Rotation)
		st.Vec3(f.Position)
		st.I32(f.Parent)
		st.U32(f.CreationFlags)
	}

	w := rw.NewWriter()
	ctx.chunk(w, rw.ChunkStruct, st.Bytes())
	for i := range frames {
		ctx.chunk(w, rw.ChunkExtension, ctx.encodeFrameExtension(&frames[i]))
	}
	return w.Bytes()
}

func (ctx *encodeContext) encodeFrameExtension(f *Frame) []byte {
	w := rw.NewWriter()
	if f.BoneData != nil {
		ctx.chunk(w, rw.ChunkHAnimPLG, encodeHAnim(f.BoneData))
	}
	if f.Name != "" {
		// Frame names are stored without padding.
		ctx.chunk(w, rw.ChunkFrame, []byte(f.Name))
	}
	for _, k := range extensionOrder(f.Extensions) {
		if raw, ok := f.Extensions[k].(*RawExtension); ok {
			ctx.writeRaw(w, raw)
		}
	}
	return w.Bytes()
}

func encodeHAnim(h *HAnimPLG) []byte {
	w := rw.NewWriter()
	w.U32(h.Version)
	w.U32(h.ID)
	w.U32(uint32(len(h.Bones)))
	if len(h.Bones) > 0 {
		w.U32(h.Flags)
		w.U32(h.KeyFrameSize)
		for _, b := range h.Bones {
			w.U32(b.ID)
			w.U32(b.Index)
			w.U32(b.Type)
		}
	}
	return w.Bytes()
}
