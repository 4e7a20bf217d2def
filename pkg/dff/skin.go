package dff

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// SkinPLG binds geometry vertices to skeleton bones.
type SkinPLG struct {
	MaxWeightsPerVertex uint8
	BonesUsed           []uint8
	VertexBoneIndices   [][4]uint8   // Padded with index 0
	VertexBoneWeights   [][4]float32 // Padded with weight 0
	BoneMatrices        []mgl32.Mat4 // Inverse bind matrices

	// SplitData is whatever follows the bone matrices (the split/RLE tables
	// of later versions), kept verbatim.
	SplitData []byte
}

// ChunkType implements Extension.
func (*SkinPLG) ChunkType() uint32 { return rw.ChunkSkinPLG }

// NumBones returns the number of bones in the skeleton.
func (s *SkinPLG) NumBones() int { return len(s.BoneMatrices) }

// NumUsedBones returns the number of bones referenced by vertices.
func (s *SkinPLG) NumUsedBones() int { return len(s.BonesUsed) }

// decodeSkin needs the vertex count of the geometry the skin belongs to,
// since the per-vertex arrays carry no length of their own.
func decodeSkin(r *rw.Reader, numVertices int) (*SkinPLG, error) {
	numBones := int(r.U8())
	numUsed := int(r.U8())
	s := &SkinPLG{MaxWeightsPerVertex: r.U8()}
	r.Skip(1)

	if numUsed > 0 {
		s.BonesUsed = r.Bytes(numUsed)
	}
	if err := checkCount(r, numVertices, 20, "vertex weights"); err != nil {
		return nil, err
	}
	s.VertexBoneIndices = make([][4]uint8, numVertices)
	for i := range s.VertexBoneIndices {
		for j := range 4 {
			s.VertexBoneIndices[i][j] = r.U8()
		}
	}
	s.VertexBoneWeights = make([][4]float32, numVertices)
	for i := range s.VertexBoneWeights {
		for j := range 4 {
			s.VertexBoneWeights[i][j] = r.F32()
		}
	}

	s.BoneMatrices = make([]mgl32.Mat4, numBones)
	for i := range s.BoneMatrices {
		// Without a used-bone list every matrix is preceded by 4 unused bytes.
		if numUsed == 0 {
			r.Skip(4)
		}
		m := r.Mat4()
		m[3], m[7], m[11], m[15] = 0, 0, 0, 1
		s.BoneMatrices[i] = m
	}
	if r.Len() > 0 {
		s.SplitData = r.Bytes(r.Len())
	}
	return s, r.Err()
}

func encodeSkin(s *SkinPLG) []byte {
	w := rw.NewWriter()
	w.U8(uint8(len(s.BoneMatrices)))
	w.U8(uint8(len(s.BonesUsed)))
	w.U8(s.MaxWeightsPerVertex)
	w.U8(0)
	w.Raw(s.BonesUsed)
	for _, idx := range s.VertexBoneIndices {
		w.Raw(idx[:])
	}
	for _, weights := range s.VertexBoneWeights {
		for _, f := range weights {
			w.F32(f)
		}
	}
	for _, m := range s.BoneMatrices {
		if len(s.BonesUsed) == 0 {
			w.U32(0)
		}
		m[3], m[7], m[11], m[15] = 0, 0, 0, 1
		w.Mat4(m)
	}
	w.Raw(s.SplitData)
	return w.Bytes()
}
