package col

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

func createTestModel(v Version) *Model {
	m := &Model{
		Version: v,
		Name:    "lae_bridge01",
		ModelID: 4242,
		Bounds: Bounds{
			Min:    mgl32.Vec3{-4, -4, -1},
			Max:    mgl32.Vec3{4, 4, 3},
			Center: mgl32.Vec3{0, 0, 1},
			Radius: 6,
		},
		Spheres: []Sphere{
			{Center: mgl32.Vec3{1, 2, 3}, Radius: 1.5, Surface: Surface{Material: 4, Flag: 1, Brightness: 2, Light: 3}},
		},
		Boxes: []Box{
			{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}, Surface: Surface{Material: 9, Brightness: 1}},
			{Min: mgl32.Vec3{2, 2, 0}, Max: mgl32.Vec3{3, 3, 1}, Surface: Surface{Material: 1}},
		},
		MeshVerts: []mgl32.Vec3{
			{0, 0, 0},
			{1.5, 0, 0},
			{0, -2.25, 0.125},
			{3, 3, 3},
		},
	}
	if v == V1 {
		m.MeshFaces = []Face{
			{A: 0, B: 1, C: 2, Surface: Surface{Material: 7, Flag: 2, Brightness: 3, Light: 4}},
			{A: 1, B: 3, C: 2, Surface: Surface{Material: 8}},
		}
		return m
	}

	m.MeshFaces = []Face{
		{A: 0, B: 1, C: 2, Surface: faceSurface(7, 4)},
		{A: 1, B: 3, C: 2, Surface: faceSurface(8, 0)},
	}
	m.FaceGroups = []FaceGroup{
		{Min: mgl32.Vec3{0, -2.25, 0}, Max: mgl32.Vec3{3, 3, 3}, Start: 0, End: 1},
	}
	if v >= V3 {
		m.ShadowVerts = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
		m.ShadowFaces = []Face{{A: 0, B: 2, C: 1, Surface: faceSurface(0, 12)}}
	}
	return m
}

func TestModel_RoundTrip(t *testing.T) {
	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			want := createTestModel(v)

			data, err := EncodeModel(want, v)
			if err != nil {
				t.Fatalf("EncodeModel() error: %v", err)
			}
			if string(data[:4]) != v.FourCC() {
				t.Errorf("fourcc = %q, want %q", data[:4], v.FourCC())
			}

			got, err := DecodeModel(data)
			if err != nil {
				t.Fatalf("DecodeModel() error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
			}

			again, err := EncodeModel(got, v)
			if err != nil {
				t.Fatalf("second EncodeModel() error: %v", err)
			}
			if !bytes.Equal(again, data) {
				t.Error("re-encoding produced different bytes")
			}
		})
	}
}

func TestDecodeModel_COL2Layout(t *testing.T) {
	w := rw.NewWriter()
	w.Raw([]byte("COL2"))
	w.U32(128)
	w.Raw(append([]byte("box"), make([]byte, 19)...))
	w.U16(7)
	w.Zero(40) // bounds
	w.U16(0)   // spheres
	w.U16(0)   // boxes
	w.U16(1)   // faces
	w.U8(0)
	w.U8(0)
	w.U32(FlagNotEmpty)
	w.U32(104) // spheres
	w.U32(104) // boxes
	w.U32(0)   // lines
	w.U32(104) // vertices
	w.U32(124) // faces
	w.U32(0)   // planes
	for _, c := range []int16{128, 0, 0, 0, 256, 0, 0, 0, -64} {
		w.I16(c)
	}
	w.Zero(2)
	w.U16(0)
	w.U16(1)
	w.U16(2)
	w.U8(5)
	w.U8(9)
	data := w.Bytes()
	if len(data) != 136 {
		t.Fatalf("fixture is %d bytes, want 136", len(data))
	}

	m, err := DecodeModel(data)
	if err != nil {
		t.Fatalf("DecodeModel() error: %v", err)
	}
	if m.Version != V2 || m.Name != "box" || m.ModelID != 7 {
		t.Errorf("header = %v %q %d", m.Version, m.Name, m.ModelID)
	}
	wantVerts := []mgl32.Vec3{{1, 0, 0}, {0, 2, 0}, {0, 0, -0.5}}
	if !reflect.DeepEqual(m.MeshVerts, wantVerts) {
		t.Errorf("MeshVerts = %v, want %v", m.MeshVerts, wantVerts)
	}
	wantFace := Face{A: 0, B: 1, C: 2, Surface: Surface{Material: 5, Flag: 0, Brightness: 1, Light: 9}}
	if len(m.MeshFaces) != 1 || m.MeshFaces[0] != wantFace {
		t.Errorf("MeshFaces = %+v, want [%+v]", m.MeshFaces, wantFace)
	}
	if m.Spheres != nil || m.Boxes != nil || m.FaceGroups != nil {
		t.Error("expected no spheres, boxes or face groups")
	}
}

func TestDecodeModel_COL4Header(t *testing.T) {
	w := rw.NewWriter()
	w.Raw([]byte("COL4"))
	w.U32(144)
	w.Raw(append([]byte("ramp"), make([]byte, 18)...))
	w.U16(9)
	w.Zero(40) // bounds
	w.U16(0)   // spheres
	w.U16(0)   // boxes
	w.U16(1)   // faces
	w.U8(0)
	w.U8(0)
	w.U32(FlagNotEmpty)
	w.U32(120) // spheres
	w.U32(120) // boxes
	w.U32(0)   // lines
	w.U32(120) // vertices
	w.U32(140) // faces
	w.U32(0)   // planes
	w.U32(0)   // shadow faces
	w.U32(0)   // shadow vertices offset
	w.U32(0)   // shadow faces offset
	w.U32(0xDEADBEEF)
	for _, c := range []int16{0, 0, 0, 128, 0, 0, 0, 128, 0} {
		w.I16(c)
	}
	w.Zero(2)
	w.U16(0)
	w.U16(1)
	w.U16(2)
	w.U8(3)
	w.U8(4)
	data := w.Bytes()
	if len(data) != 152 {
		t.Fatalf("fixture is %d bytes, want 152", len(data))
	}

	m, err := DecodeModel(data)
	if err != nil {
		t.Fatalf("DecodeModel() error: %v", err)
	}
	if m.Version != V4 || m.Name != "ramp" || m.ModelID != 9 {
		t.Errorf("header = %v %q %d", m.Version, m.Name, m.ModelID)
	}
	wantVerts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	if !reflect.DeepEqual(m.MeshVerts, wantVerts) {
		t.Errorf("MeshVerts = %v, want %v", m.MeshVerts, wantVerts)
	}
	wantFace := Face{A: 0, B: 1, C: 2, Surface: Surface{Material: 3, Brightness: 1, Light: 4}}
	if len(m.MeshFaces) != 1 || m.MeshFaces[0] != wantFace {
		t.Errorf("MeshFaces = %+v, want [%+v]", m.MeshFaces, wantFace)
	}
	if m.ShadowFaces != nil {
		t.Errorf("ShadowFaces = %+v, want none", m.ShadowFaces)
	}
}

func TestDecodeFile(t *testing.T) {
	a := createTestModel(V3)
	b := createTestModel(V3)
	b.Name = "empty"
	b.Spheres, b.Boxes, b.MeshVerts, b.MeshFaces, b.FaceGroups = nil, nil, nil, nil, nil
	b.ShadowVerts, b.ShadowFaces = nil, nil

	data, err := EncodeFile([]*Model{a, b}, V3)
	if err != nil {
		t.Fatalf("EncodeFile() error: %v", err)
	}
	data = append(data, make([]byte, 64)...)

	models, err := DecodeFile(data)
	if err != nil {
		t.Fatalf("DecodeFile() error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[1].Name != "empty" || !models[1].IsEmpty() {
		t.Errorf("second model = %q, empty=%v", models[1].Name, models[1].IsEmpty())
	}
	if models[1].Flags()&FlagNotEmpty != 0 {
		t.Error("empty model reports FlagNotEmpty")
	}
	if models[0].Flags() != FlagNotEmpty|FlagHasFaceGroups|FlagHasShadowMesh {
		t.Errorf("flags = %#x", models[0].Flags())
	}
}

func TestDecodeFile_Errors(t *testing.T) {
	valid, err := EncodeModel(createTestModel(V1), V1)
	if err != nil {
		t.Fatalf("EncodeModel() error: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrInvalidFourCC},
		{"bad fourcc", []byte("COLX\x00\x00\x00\x00"), ErrInvalidFourCC},
		{"size past end", valid[:len(valid)-1], rw.ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFile(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeModel_Truncated(t *testing.T) {
	data, err := EncodeModel(createTestModel(V1), V1)
	if err != nil {
		t.Fatalf("EncodeModel() error: %v", err)
	}
	for _, n := range []int{3, 20, 40, 80, len(data) - 4} {
		if _, err := DecodeModel(data[:n]); !errors.Is(err, rw.ErrTruncatedInput) {
			t.Errorf("DecodeModel(%d bytes) error = %v, want ErrTruncatedInput", n, err)
		}
	}
}

func TestEncodeModel_Errors(t *testing.T) {
	m := createTestModel(V2)
	if _, err := EncodeModel(m, V4); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("EncodeModel(COL4) error = %v, want ErrUnsupportedVersion", err)
	}

	m.MeshFaces = append(m.MeshFaces, Face{A: 0, B: 1, C: 99})
	for _, v := range []Version{V1, V2, V3} {
		if _, err := EncodeModel(m, v); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("EncodeModel(%s) error = %v, want ErrIndexOutOfRange", v, err)
		}
	}
}

func TestEncodeModel_ShadowDroppedBelowCOL3(t *testing.T) {
	m := createTestModel(V3)
	data, err := EncodeModel(m, V2)
	if err != nil {
		t.Fatalf("EncodeModel() error: %v", err)
	}
	got, err := DecodeModel(data)
	if err != nil {
		t.Fatalf("DecodeModel() error: %v", err)
	}
	if got.Version != V2 {
		t.Errorf("Version = %v, want COL2", got.Version)
	}
	if got.ShadowFaces != nil || got.ShadowVerts != nil {
		t.Error("COL2 output kept the shadow mesh")
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 128},
		{-0.5, -64},
		{0.004, 1},
		{-0.003, 0},
		{1000, 32767},
		{-1000, -32768},
	}
	for _, tt := range tests {
		if got := quantize(tt.in); got != tt.want {
			t.Errorf("quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestModel_ComputeBounds(t *testing.T) {
	m := &Model{
		Spheres: []Sphere{{Center: mgl32.Vec3{0, 0, 0}, Radius: 1}},
		Boxes:   []Box{{Min: mgl32.Vec3{2, 2, 2}, Max: mgl32.Vec3{3, 3, 3}}},
	}
	m.ComputeBounds()

	if m.Bounds.Min != (mgl32.Vec3{-1, -1, -1}) || m.Bounds.Max != (mgl32.Vec3{3, 3, 3}) {
		t.Errorf("bounds = %v..%v", m.Bounds.Min, m.Bounds.Max)
	}
	if m.Bounds.Center != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("center = %v", m.Bounds.Center)
	}
	if !mgl32.FloatEqual(m.Bounds.Radius, mgl32.Vec3{2, 2, 2}.Len()) {
		t.Errorf("radius = %v", m.Bounds.Radius)
	}

	empty := &Model{Bounds: Bounds{Radius: 5}}
	empty.ComputeBounds()
	if empty.Bounds != (Bounds{}) {
		t.Errorf("empty bounds = %+v", empty.Bounds)
	}
}

func TestVersion_String(t *testing.T) {
	tests := map[Version]string{V1: "COLL", V2: "COL2", V3: "COL3", V4: "COL4", 9: "Unknown(9)"}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("Version(%d).String() = %q, want %q", v, got, want)
		}
	}
}
