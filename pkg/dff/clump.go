package dff

import (
	"fmt"
	"os"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// lightsCamerasVersion is the first version whose clump struct also counts
// lights and cameras.
const lightsCamerasVersion = 0x33000

// Clump is the root of a DFF model.
type Clump struct {
	Frames     []Frame
	Geometries []Geometry
	Atomics    []Atomic

	// Collisions holds embedded COL data, one blob per Collision Model chunk.
	Collisions [][]byte

	// UVAnimDictionary is the raw body of a UV animation dictionary chunk
	// stored ahead of the clump, if any.
	UVAnimDictionary []byte

	Extensions map[string]Extension
}

// LibraryIDOf returns the library id of the clump chunk in data, skipping a
// leading UV animation dictionary.
func LibraryIDOf(data []byte) (uint32, error) {
	off := 0
	for {
		c, n, err := rw.ReadChunkHeader(data, off)
		if err != nil {
			return 0, err
		}
		if c.Type != rw.ChunkUVAnimDict {
			if c.Type != rw.ChunkClump {
				return 0, fmt.Errorf("%w: got %s, want %s", rw.ErrUnexpectedChunkType, rw.ChunkName(c.Type), rw.ChunkName(rw.ChunkClump))
			}
			return c.LibraryID, nil
		}
		off += n + int(c.Size)
	}
}

// DecodeClump parses a DFF byte stream.
func DecodeClump(data []byte) (*Clump, error) {
	r := rw.NewReader(data)
	clump := &Clump{Extensions: make(map[string]Extension)}

	c, body := r.Chunk()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading root chunk: %w", err)
	}
	if c.Type == rw.ChunkUVAnimDict {
		clump.UVAnimDictionary = body.Bytes(body.Len())
		c, body = r.Chunk()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("reading root chunk: %w", err)
		}
	}
	if c.Type != rw.ChunkClump {
		return nil, fmt.Errorf("%w: root is %s, want %s", rw.ErrUnexpectedChunkType, rw.ChunkName(c.Type), rw.ChunkName(rw.ChunkClump))
	}
	version, err := rw.RWVersion(c.LibraryID)
	if err != nil {
		return nil, err
	}

	if err := clump.decode(body, version); err != nil {
		return nil, err
	}
	if err := clump.Validate(); err != nil {
		return nil, err
	}
	return clump, nil
}

func (clump *Clump) decode(r *rw.Reader, version uint32) error {
	_, st, err := r.ExpectChunk(rw.ChunkStruct)
	if err != nil {
		return fmt.Errorf("clump struct: %w", err)
	}
	numAtomics := st.I32()
	if version > lightsCamerasVersion {
		// Lights and cameras are counted but not decoded.
		st.I32()
		st.I32()
	}
	if err := st.Err(); err != nil {
		return fmt.Errorf("clump struct: %w", err)
	}

	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return err
		}
		switch c.Type {
		case rw.ChunkFrameList:
			if clump.Frames, err = decodeFrameList(body); err != nil {
				return err
			}
		case rw.ChunkGeometryList:
			if clump.Geometries, err = decodeGeometryList(body, version); err != nil {
				return err
			}
		case rw.ChunkAtomic:
			a, err := decodeAtomic(body)
			if err != nil {
				return fmt.Errorf("atomic %d: %w", len(clump.Atomics), err)
			}
			clump.Atomics = append(clump.Atomics, *a)
		case rw.ChunkExtension:
			if err := clump.decodeExtensions(body); err != nil {
				return fmt.Errorf("clump extension: %w", err)
			}
		}
	}

	if int(numAtomics) != len(clump.Atomics) {
		return fmt.Errorf("%w: struct counts %d atomics, found %d", rw.ErrTruncatedInput, numAtomics, len(clump.Atomics))
	}
	return nil
}

func (clump *Clump) decodeExtensions(r *rw.Reader) error {
	for r.Len() > 0 {
		c, body := r.Chunk()
		if err := r.Err(); err != nil {
			return err
		}
		if c.Type == rw.ChunkCollisionModel {
			clump.Collisions = append(clump.Collisions, body.Bytes(body.Len()))
			continue
		}
		storeRaw(clump.Extensions, c.Type, body)
	}
	return nil
}

// Validate checks that atomics reference existing frames and geometries and
// that every frame's parent appears before it.
func (clump *Clump) Validate() error {
	for i, f := range clump.Frames {
		if f.Parent < -1 || int(f.Parent) >= i {
			return fmt.Errorf("%w: frame %d has parent %d", ErrInvalidReference, i, f.Parent)
		}
	}
	for i, a := range clump.Atomics {
		if int(a.Frame) >= len(clump.Frames) {
			return fmt.Errorf("%w: atomic %d uses frame %d of %d", ErrInvalidReference, i, a.Frame, len(clump.Frames))
		}
		if int(a.Geometry) >= len(clump.Geometries) {
			return fmt.Errorf("%w: atomic %d uses geometry %d of %d", ErrInvalidReference, i, a.Geometry, len(clump.Geometries))
		}
	}
	return nil
}

// EncodeClump serializes the clump for the given library id.
func EncodeClump(clump *Clump, libraryID uint32) ([]byte, error) {
	version, err := rw.RWVersion(libraryID)
	if err != nil {
		return nil, err
	}
	if err := clump.Validate(); err != nil {
		return nil, err
	}
	ctx := &encodeContext{libraryID: libraryID, version: version}

	st := rw.NewWriter()
	st.I32(int32(len(clump.Atomics)))
	if version > lightsCamerasVersion {
		st.I32(0)
		st.I32(0)
	}

	body := rw.NewWriter()
	ctx.chunk(body, rw.ChunkStruct, st.Bytes())
	ctx.chunk(body, rw.ChunkFrameList, ctx.encodeFrameList(clump.Frames))
	geometries, err := ctx.encodeGeometryList(clump.Geometries)
	if err != nil {
		return nil, err
	}
	ctx.chunk(body, rw.ChunkGeometryList, geometries)
	for i := range clump.Atomics {
		ctx.chunk(body, rw.ChunkAtomic, ctx.encodeAtomic(&clump.Atomics[i]))
	}

	ext := rw.NewWriter()
	for _, col := range clump.Collisions {
		ctx.chunk(ext, rw.ChunkCollisionModel, col)
	}
	for _, k := range extensionOrder(clump.Extensions) {
		if raw, ok := clump.Extensions[k].(*RawExtension); ok {
			ctx.writeRaw(ext, raw)
		}
	}
	ctx.chunk(body, rw.ChunkExtension, ext.Bytes())

	w := rw.NewWriter()
	if clump.UVAnimDictionary != nil {
		ctx.chunk(w, rw.ChunkUVAnimDict, clump.UVAnimDictionary)
	}
	ctx.chunk(w, rw.ChunkClump, body.Bytes())
	return w.Bytes(), nil
}

// DecodeClumpFile parses a DFF file from disk.
func DecodeClumpFile(path string) (*Clump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading DFF file: %w", err)
	}
	return DecodeClump(data)
}

// FrameByName returns the index of the first frame with the given name, or -1.
func (clump *Clump) FrameByName(name string) int {
	for i := range clump.Frames {
		if clump.Frames[i].Name == name {
			return i
		}
	}
	return -1
}

// FrameByBoneID returns the index of the frame carrying the bone id, or -1.
func (clump *Clump) FrameByBoneID(id uint32) int {
	for i := range clump.Frames {
		if b := clump.Frames[i].BoneData; b != nil && b.ID == id {
			return i
		}
	}
	return -1
}

// SkeletonRoots returns the indices of frames that carry a bone list.
func (clump *Clump) SkeletonRoots() []int {
	var roots []int
	for i := range clump.Frames {
		if b := clump.Frames[i].BoneData; b != nil && b.IsSkeletonRoot() {
			roots = append(roots, i)
		}
	}
	return roots
}

// Children returns the indices of frames whose parent is the given frame.
func (clump *Clump) Children(parent int) []int {
	var children []int
	for i := range clump.Frames {
		if int(clump.Frames[i].Parent) == parent {
			children = append(children, i)
		}
	}
	return children
}

// TotalTriangles returns the triangle count across all geometries.
func (clump *Clump) TotalTriangles() int {
	total := 0
	for i := range clump.Geometries {
		total += len(clump.Geometries[i].Triangles)
	}
	return total
}
