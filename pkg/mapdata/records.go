package mapdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Instance is a placement from an inst section.
type Instance struct {
	ID       int
	Model    string
	Interior int
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
	LOD      int // -1 when the game has no LOD links
}

// InstanceFromRecord converts an inst record of any game.
func InstanceFromRecord(rec Record) (Instance, error) {
	inst := Instance{
		Model: rec.String("ModelName"),
		Scale: mgl32.Vec3{1, 1, 1},
		LOD:   -1,
	}

	var err error
	if inst.ID, err = rec.Int("ID"); err != nil {
		return Instance{}, err
	}
	if rec.Has("Interior") {
		if inst.Interior, err = rec.Int("Interior"); err != nil {
			return Instance{}, err
		}
	}
	if rec.Has("LOD") {
		if inst.LOD, err = rec.Int("LOD"); err != nil {
			return Instance{}, err
		}
	}

	if inst.Position, err = recordVec3(rec, "PosX", "PosY", "PosZ"); err != nil {
		return Instance{}, err
	}
	if rec.Has("ScaleX") {
		if inst.Scale, err = recordVec3(rec, "ScaleX", "ScaleY", "ScaleZ"); err != nil {
			return Instance{}, err
		}
	}
	v, err := recordVec3(rec, "RotX", "RotY", "RotZ")
	if err != nil {
		return Instance{}, err
	}
	w, err := rec.Float("RotW")
	if err != nil {
		return Instance{}, err
	}
	inst.Rotation = mgl32.Quat{W: w, V: v}
	return inst, nil
}

func recordVec3(rec Record, x, y, z string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i, field := range [3]string{x, y, z} {
		f, err := rec.Float(field)
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', 6, 32)
}

// Line formats the instance as an inst line of game, with six decimals for
// every float.
func (i Instance) Line(game Game) string {
	parts := []string{strconv.Itoa(i.ID), i.Model}
	g := game.schemaGame()
	if g != GameIII {
		parts = append(parts, strconv.Itoa(i.Interior))
	}
	for _, f := range i.Position {
		parts = append(parts, formatFloat(f))
	}
	if g != GameSA {
		for _, f := range i.Scale {
			parts = append(parts, formatFloat(f))
		}
	}
	for _, f := range i.Rotation.V {
		parts = append(parts, formatFloat(f))
	}
	parts = append(parts, formatFloat(i.Rotation.W))
	if g == GameSA {
		parts = append(parts, strconv.Itoa(i.LOD))
	}
	return strings.Join(parts, ", ")
}

// ObjectDef is an object definition from an objs or tobj section.
type ObjectDef struct {
	ID            int
	Model         string
	Texture       string
	DrawDistances []float32
	Flags         uint32
	Timed         bool
	TimeOn        int
	TimeOff       int
	Source        string
}

// ObjectDefFromRecord converts an objs or tobj record of any shape.
func ObjectDefFromRecord(rec Record) (ObjectDef, error) {
	def := ObjectDef{
		Model:   rec.String("ModelName"),
		Texture: rec.String("TextureName"),
		Source:  rec.String(SourceField),
	}

	var err error
	if def.ID, err = rec.Int("ID"); err != nil {
		return ObjectDef{}, err
	}

	for _, field := range []string{"DrawDistance", "DrawDistance1", "DrawDistance2", "DrawDistance3"} {
		if !rec.Has(field) {
			continue
		}
		d, err := rec.Float(field)
		if err != nil {
			return ObjectDef{}, err
		}
		def.DrawDistances = append(def.DrawDistances, d)
	}

	flags, ok := rec.Get("Flags")
	if !ok {
		return ObjectDef{}, fmt.Errorf("%w: %s.Flags", ErrMissingField, rec.Shape)
	}
	f, err := strconv.ParseUint(flags, 0, 32)
	if err != nil {
		return ObjectDef{}, fmt.Errorf("%s.Flags: %w", rec.Shape, err)
	}
	def.Flags = uint32(f)

	if rec.Has("TimeOn") {
		def.Timed = true
		if def.TimeOn, err = rec.Int("TimeOn"); err != nil {
			return ObjectDef{}, err
		}
		if def.TimeOff, err = rec.Int("TimeOff"); err != nil {
			return ObjectDef{}, err
		}
	}
	return def, nil
}

// DrawDistance returns the first draw distance, or 0 when none is set.
func (d ObjectDef) DrawDistance() float32 {
	if len(d.DrawDistances) == 0 {
		return 0
	}
	return d.DrawDistances[0]
}

// Instances converts every inst record of the file.
func (f *File) Instances() ([]Instance, error) {
	recs := f.Section("inst")
	out := make([]Instance, 0, len(recs))
	for i, rec := range recs {
		inst, err := InstanceFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s inst %d: %w", f.Path, i, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// Objects converts every objs and tobj record of the file.
func (f *File) Objects() ([]ObjectDef, error) {
	var out []ObjectDef
	for _, section := range []string{"objs", "tobj"} {
		for i, rec := range f.Section(section) {
			def, err := ObjectDefFromRecord(rec)
			if err != nil {
				return nil, fmt.Errorf("%s %s %d: %w", f.Path, section, i, err)
			}
			out = append(out, def)
		}
	}
	return out, nil
}
