package mapdata

import (
	"fmt"
	"slices"
	"strings"
)

// Shape is one known layout of a section record.
type Shape struct {
	Name   string
	Fields []string
}

// String renders the shape as name(field, ...).
func (s Shape) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(s.Fields, ", "))
}

func shape(name string, fields ...string) Shape {
	return Shape{Name: name, Fields: fields}
}

func with(base []string, extra ...string) []string {
	return append(slices.Clip(base), extra...)
}

var (
	objBase  = []string{"ID", "ModelName", "TextureName"}
	posXYZ   = []string{"PosX", "PosY", "PosZ"}
	scaleXYZ = []string{"ScaleX", "ScaleY", "ScaleZ"}
	rotXYZW  = []string{"RotX", "RotY", "RotZ", "RotW"}
	box6     = []string{"X1", "Y1", "Z1", "X2", "Y2", "Z2"}

	objsShapes = []Shape{
		shape("objs_1", with(objBase, "ObjectCount", "DrawDistance", "Flags")...),
		shape("objs_2", with(objBase, "ObjectCount", "DrawDistance1", "DrawDistance2", "Flags")...),
		shape("objs_3", with(objBase, "ObjectCount", "DrawDistance1", "DrawDistance2", "DrawDistance3", "Flags")...),
		shape("objs_4", with(objBase, "DrawDistance", "Flags")...),
	}
	tobjShapes = []Shape{
		shape("tobj_1", with(objBase, "ObjectCount", "DrawDistance", "Flags", "TimeOn", "TimeOff")...),
		shape("tobj_2", with(objBase, "ObjectCount", "DrawDistance1", "DrawDistance2", "Flags", "TimeOn", "TimeOff")...),
		shape("tobj_3", with(objBase, "ObjectCount", "DrawDistance1", "DrawDistance2", "DrawDistance3", "Flags", "TimeOn", "TimeOff")...),
		shape("tobj_4", with(objBase, "DrawDistance", "Flags", "TimeOn", "TimeOff")...),
	}

	cullIII = shape("cull", "CenterX", "CenterY", "CenterZ",
		"LowerLeftX", "LowerLeftY", "LowerLeftZ",
		"UpperRightX", "UpperRightY", "UpperRightZ", "Flags", "Wanted")
	cullSA = []string{"CenterX", "CenterY", "BottomZ", "Width1X", "Width1Y", "Width2X", "Width2Y", "TopZ", "Flags"}

	auzoShapes = []Shape{
		shape("auzo_1", "Name", "SoundID", "Switch", "PosX", "PosY", "PosZ", "Radius"),
		shape("auzo_2", with([]string{"Name", "SoundID", "Switch"}, box6...)...),
	}
	zoneIII = shape("zone", with([]string{"Name", "Type"}, with(box6, "Level")...)...)
	pick    = shape("pick", with([]string{"PickupID"}, posXYZ...)...)
)

// schemas lists the known record shapes per game and section. Sections not
// listed here are skipped by the reader.
var schemas = map[Game]map[string][]Shape{
	GameIII: {
		"inst": {shape("inst", with([]string{"ID", "ModelName"}, with(posXYZ, with(scaleXYZ, rotXYZW...)...)...)...)},
		"cull": {cullIII},
		"zone": {zoneIII},
		"pick": {pick},
		"objs": objsShapes,
		"tobj": tobjShapes,
		"hier": {shape("hier", objBase...)},
	},
	GameVC: {
		"inst": {shape("inst", with([]string{"ID", "ModelName", "Interior"}, with(posXYZ, with(scaleXYZ, rotXYZW...)...)...)...)},
		"cull": {cullIII},
		"zone": {zoneIII},
		"pick": {pick},
		"auzo": auzoShapes,
		"occl": {shape("occl", "MidX", "MidY", "BottomZ", "WidthX", "WidthY", "Height", "Rotation")},
		"objs": objsShapes,
		"tobj": tobjShapes,
		"hier": {shape("hier", objBase...)},
		"weap": {shape("weap", with(objBase, "AnimName", "ObjectCount", "DrawDistance", "Flags")...)},
	},
	GameSA: {
		"inst": {shape("inst", with([]string{"ID", "ModelName", "Interior"}, with(posXYZ, with(rotXYZW, "LOD")...)...)...)},
		"cull": {
			shape("cull_1", with(cullSA, "Unknown1", "Unknown2")...),
			shape("cull_2", with(cullSA, "MirrorNormalX", "MirrorNormalY", "MirrorNormalZ", "MirrorDistance", "Unknown1")...),
		},
		"zone": {shape("zone", with(zoneIII.Fields, "Text")...)},
		"pick": {pick},
		"auzo": auzoShapes,
		"occl": {shape("occl", "MidX", "MidY", "BottomZ", "WidthX", "WidthY", "Height", "RotX", "RotY", "RotZ", "Flags")},
		"cars": {shape("cars", with(posXYZ, "Angle", "CarID", "PrimaryColor", "SecondaryColor",
			"ForceSpawn", "AlarmProbability", "DoorLockProbability", "Unknown1", "Unknown2")...)},
		"enex": {shape("enex", "X1", "Y1", "Z1", "EnterAngle", "SizeX", "SizeY", "SizeZ",
			"ExitX", "ExitY", "ExitZ", "ExitAngle", "TargetInterior", "Flags", "Name",
			"Sky", "NumPeds", "TimeOn", "TimeOff")},
		"grge": {shape("grge", with(posXYZ, "LineX", "LineY", "CubeX", "CubeY", "CubeZ", "DoorType", "GarageType", "Name")...)},
		"jump": {shape("jump", "StartLowerX", "StartLowerY", "StartLowerZ",
			"StartUpperX", "StartUpperY", "StartUpperZ",
			"TargetLowerX", "TargetLowerY", "TargetLowerZ",
			"TargetUpperX", "TargetUpperY", "TargetUpperZ",
			"CameraX", "CameraY", "CameraZ", "Reward")},
		"tcyc": {shape("tcyc", with(box6, "Unknown", "Weather", "Brightness", "Time", "DrawDistance")...)},
		"objs": objsShapes,
		"tobj": tobjShapes,
		"anim": {shape("anim", with(objBase, "AnimName", "DrawDistance", "Flags")...)},
		"weap": {shape("weap", with(objBase, "AnimName", "ObjectCount", "DrawDistance", "Flags")...)},
		"txdp": {shape("txdp", "TextureName", "ParentTextureName")},
	},
}

// Shapes returns the candidate record shapes of a section for a game, or nil
// when the section is unknown.
func Shapes(game Game, section string) []Shape {
	return schemas[game.schemaGame()][strings.ToLower(section)]
}

// Sections returns the known section names for a game in sorted order.
func Sections(game Game) []string {
	names := make([]string, 0, len(schemas[game.schemaGame()]))
	for name := range schemas[game.schemaGame()] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// matchShapes returns the shapes with exactly n fields.
func matchShapes(shapes []Shape, n int) []Shape {
	var out []Shape
	for _, s := range shapes {
		if len(s.Fields) == n {
			out = append(out, s)
		}
	}
	return out
}
