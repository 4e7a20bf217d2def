package mapdata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func createTestBinaryIPL(instances []binaryInstance) []byte {
	var buf bytes.Buffer
	h := binaryHeader{NumInstances: int32(len(instances)), InstancesOffset: 32}
	copy(h.Magic[:], "bnry")
	binary.Write(&buf, binary.LittleEndian, &h)
	for _, inst := range instances {
		binary.Write(&buf, binary.LittleEndian, &inst)
	}
	return buf.Bytes()
}

var testBinaryInstances = []binaryInstance{
	{Position: mgl32.Vec3{1.5, -2.25, 10}, Rotation: [4]float32{0, 0, 0.7071068, 0.7071068}, ModelID: 4550, Interior: 0, LOD: -1},
	{Position: mgl32.Vec3{-1000.125, 300, 0.1}, Rotation: [4]float32{0, 0, 0, 1}, ModelID: 17, Interior: 3, LOD: 12},
}

func TestReadBinaryIPL(t *testing.T) {
	data := createTestBinaryIPL(testBinaryInstances)
	if len(data) != 32+2*40 {
		t.Fatalf("fixture is %d bytes, want 112", len(data))
	}

	recs, err := ReadBinaryIPL(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadBinaryIPL() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	want := [][]string{
		{"4550", "dummy", "0", "1.5", "-2.25", "10", "0", "0", "0.7071068", "0.7071068", "-1"},
		{"17", "dummy", "3", "-1000.125", "300", "0.1", "0", "0", "0", "1", "12"},
	}
	for i, rec := range recs {
		if rec.Section != "inst" || rec.Shape != "inst" {
			t.Errorf("record %d tagged %s/%s", i, rec.Section, rec.Shape)
		}
		if !reflect.DeepEqual(rec.Values, want[i]) {
			t.Errorf("record %d values = %q, want %q", i, rec.Values, want[i])
		}
		if len(rec.Fields) != len(rec.Values) {
			t.Errorf("record %d has %d fields for %d values", i, len(rec.Fields), len(rec.Values))
		}
	}
}

func TestReadBinaryIPL_OffsetRelativeToStreamStart(t *testing.T) {
	prefix := bytes.Repeat([]byte{0xEE}, 100)
	data := append(prefix, createTestBinaryIPL(testBinaryInstances[:1])...)

	r := bytes.NewReader(data)
	if _, err := r.Seek(int64(len(prefix)), io.SeekStart); err != nil {
		t.Fatal(err)
	}
	recs, err := ReadBinaryIPL(r)
	if err != nil {
		t.Fatalf("ReadBinaryIPL() error: %v", err)
	}
	if len(recs) != 1 || recs[0].String("ID") != "4550" {
		t.Errorf("records = %+v", recs)
	}
}

func TestReadBinaryIPL_Errors(t *testing.T) {
	valid := createTestBinaryIPL(testBinaryInstances)
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", valid[:20]},
		{"bad magic", append([]byte("text"), valid[4:]...)},
		{"truncated instance", valid[:len(valid)-8]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBinaryIPL(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrInvalidBinaryIPL) {
				t.Errorf("error = %v, want ErrInvalidBinaryIPL", err)
			}
		})
	}
}

func TestIsBinaryIPL(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader(createTestBinaryIPL(nil)))
	if !IsBinaryIPL(br) {
		t.Error("binary IPL not detected")
	}
	if br.Buffered() == 0 {
		t.Fatal("peek did not buffer")
	}
	magic := make([]byte, 4)
	io.ReadFull(br, magic)
	if string(magic) != "bnry" {
		t.Errorf("magic consumed by IsBinaryIPL, next bytes %q", magic)
	}

	if IsBinaryIPL(bufio.NewReader(strings.NewReader("inst\nend\n"))) {
		t.Error("text IPL detected as binary")
	}
	if IsBinaryIPL(bufio.NewReader(strings.NewReader("bn"))) {
		t.Error("short input detected as binary")
	}
}

func TestParse_Binary(t *testing.T) {
	p := NewParser(GameSA, nil)
	f, err := p.Parse(bytes.NewReader(createTestBinaryIPL(testBinaryInstances)), "lae_stream0.ipl")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !f.Binary {
		t.Error("Binary = false")
	}
	insts, err := f.Instances()
	if err != nil {
		t.Fatalf("Instances() error: %v", err)
	}
	if len(insts) != 2 || insts[1].Interior != 3 || insts[1].LOD != 12 {
		t.Errorf("instances = %+v", insts)
	}
}

func TestWriteBinaryIPL_RoundTrip(t *testing.T) {
	want := []Instance{
		{ID: 4550, Model: "dummy", Position: mgl32.Vec3{1, 2, 3}, Scale: mgl32.Vec3{1, 1, 1},
			Rotation: mgl32.Quat{W: 1}, LOD: -1},
		{ID: 9, Model: "dummy", Interior: 5, Position: mgl32.Vec3{-4.5, 0, 8}, Scale: mgl32.Vec3{1, 1, 1},
			Rotation: mgl32.Quat{W: 0.5, V: mgl32.Vec3{0.5, 0.5, 0.5}}, LOD: 0},
	}

	var buf bytes.Buffer
	if err := WriteBinaryIPL(&buf, want); err != nil {
		t.Fatalf("WriteBinaryIPL() error: %v", err)
	}
	recs, err := ReadBinaryIPL(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadBinaryIPL() error: %v", err)
	}

	f := &File{Sections: map[string][]Record{"inst": recs}}
	got, err := f.Instances()
	if err != nil {
		t.Fatalf("Instances() error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip:\ngot  %+v\nwant %+v", got, want)
	}
}
