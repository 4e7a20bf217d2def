package mapdata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

const binaryMagic = "bnry"

// binaryHeader is the 32-byte header of a binary IPL.
type binaryHeader struct {
	Magic           [4]byte
	NumInstances    int32
	Unused          [6]int32
	InstancesOffset int32
}

// binaryInstance is one 40-byte instance record.
type binaryInstance struct {
	Position mgl32.Vec3
	Rotation [4]float32 // x, y, z, w
	ModelID  int32
	Interior int32
	LOD      int32
}

// binaryModelName is the model name binary instances carry in text form;
// binary files only store model ids.
const binaryModelName = "dummy"

// IsBinaryIPL reports whether the stream starts with the binary IPL magic
// without consuming it.
func IsBinaryIPL(r *bufio.Reader) bool {
	magic, err := r.Peek(len(binaryMagic))
	return err == nil && string(magic) == binaryMagic
}

// ReadBinaryIPL reads the instances of a binary IPL starting at the current
// position of r. The instance offset in the header is relative to that
// position, not to the start of the underlying file, so streams embedded in
// an archive can be read in place.
func ReadBinaryIPL(r io.ReadSeeker) ([]Record, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	var h binaryHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidBinaryIPL, err)
	}
	if string(h.Magic[:]) != binaryMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidBinaryIPL, h.Magic[:])
	}
	if h.NumInstances < 0 || h.InstancesOffset < 0 {
		return nil, fmt.Errorf("%w: %d instances at offset %d", ErrInvalidBinaryIPL, h.NumInstances, h.InstancesOffset)
	}

	if _, err := r.Seek(start+int64(h.InstancesOffset), io.SeekStart); err != nil {
		return nil, err
	}

	shape := Shapes(GameSA, "inst")[0]
	records := make([]Record, 0, min(int(h.NumInstances), 1<<16))
	for i := range int(h.NumInstances) {
		var inst binaryInstance
		if err := binary.Read(r, binary.LittleEndian, &inst); err != nil {
			return nil, fmt.Errorf("%w: reading instance %d: %v", ErrInvalidBinaryIPL, i, err)
		}
		records = append(records, newRecord("inst", shape, inst.values(), ""))
	}
	return records, nil
}

// values renders the instance in the field order of the SA inst shape.
func (b binaryInstance) values() []string {
	return []string{
		strconv.Itoa(int(b.ModelID)),
		binaryModelName,
		strconv.Itoa(int(b.Interior)),
		formatBinaryFloat(b.Position[0]),
		formatBinaryFloat(b.Position[1]),
		formatBinaryFloat(b.Position[2]),
		formatBinaryFloat(b.Rotation[0]),
		formatBinaryFloat(b.Rotation[1]),
		formatBinaryFloat(b.Rotation[2]),
		formatBinaryFloat(b.Rotation[3]),
		strconv.Itoa(int(b.LOD)),
	}
}

// formatBinaryFloat prints the shortest text that parses back to f.
func formatBinaryFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// WriteBinaryIPL writes instances in the binary IPL layout. Fields other
// than the inst fields are left zero.
func WriteBinaryIPL(w io.Writer, instances []Instance) error {
	h := binaryHeader{
		NumInstances:    int32(len(instances)),
		InstancesOffset: int32(binary.Size(binaryHeader{})),
	}
	copy(h.Magic[:], binaryMagic)
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	for _, inst := range instances {
		rec := binaryInstance{
			Position: inst.Position,
			Rotation: [4]float32{inst.Rotation.V[0], inst.Rotation.V[1], inst.Rotation.V[2], inst.Rotation.W},
			ModelID:  int32(inst.ID),
			Interior: int32(inst.Interior),
			LOD:      int32(inst.LOD),
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return nil
}
