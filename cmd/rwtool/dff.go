package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/Parik27/DragonFF-sub001/internal/config"
	"github.com/Parik27/DragonFF-sub001/internal/logger"
	"github.com/Parik27/DragonFF-sub001/pkg/dff"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

func cmdDFF(args []string) error {
	sub, args, err := subcommand("dff", args)
	if err != nil {
		return err
	}

	switch sub {
	case "info":
		return cmdDFFInfo(args)
	case "convert":
		return cmdDFFConvert(args)
	default:
		return fmt.Errorf("unknown dff subcommand: %s", sub)
	}
}

func cmdDFFInfo(args []string) error {
	fs := flag.NewFlagSet("dff info", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print a JSON summary")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: rwtool dff info [-json] <file.dff>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := dff.LibraryIDOf(data)
	if err != nil {
		return err
	}
	clump, err := dff.DecodeClump(data)
	if err != nil {
		return err
	}

	if *asJSON {
		out, err := clumpSummary(clump, id)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	version, _ := rw.RWVersion(id)
	fmt.Printf("File:       %s\n", fs.Arg(0))
	fmt.Printf("Version:    %s (0x%08X)\n", rw.FormatVersion(version), id)
	fmt.Printf("Frames:     %d\n", len(clump.Frames))
	fmt.Printf("Geometries: %d (%d triangles)\n", len(clump.Geometries), clump.TotalTriangles())
	fmt.Printf("Atomics:    %d\n", len(clump.Atomics))
	if len(clump.Collisions) > 0 {
		fmt.Printf("Collision:  %d embedded model(s)\n", len(clump.Collisions))
	}

	fmt.Println()
	fmt.Println("Hierarchy:")
	for i := range clump.Frames {
		if clump.Frames[i].Parent < 0 {
			printFrameTree(clump, i, 1)
		}
	}

	for i := range clump.Geometries {
		g := &clump.Geometries[i]
		fmt.Printf("\nGeometry %d:\n", i)
		if g.Native {
			fmt.Printf("  native, %d bytes of platform data\n", len(g.NativeData))
		} else {
			fmt.Printf("  %d vertices, %d triangles, %d UV layer(s)\n", len(g.Vertices), len(g.Triangles), len(g.UVLayers))
		}
		for j, m := range g.Materials {
			tex := "-"
			if len(m.Textures) > 0 {
				tex = m.Textures[0].Name
			}
			fmt.Printf("  material %d: color %v texture %s\n", j, m.Color, tex)
		}
		if skin := g.Skin(); skin != nil {
			fmt.Printf("  skin: %d bones (%d used)\n", skin.NumBones(), skin.NumUsedBones())
		}
	}
	return nil
}

func printFrameTree(clump *dff.Clump, index, depth int) {
	f := &clump.Frames[index]
	name := f.Name
	if name == "" {
		name = fmt.Sprintf("(frame %d)", index)
	}
	if f.BoneData != nil {
		name += fmt.Sprintf(" [bone %d]", f.BoneData.ID)
	}
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), name)
	for _, child := range clump.Children(index) {
		printFrameTree(clump, child, depth+1)
	}
}

// clumpSummary renders the clump structure as JSON.
func clumpSummary(clump *dff.Clump, libraryID uint32) ([]byte, error) {
	version, err := rw.RWVersion(libraryID)
	if err != nil {
		return nil, err
	}

	out := []byte(`{}`)
	set := func(path string, value any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, value)
		}
	}

	set("version", rw.FormatVersion(version))
	set("library_id", fmt.Sprintf("0x%08X", libraryID))
	set("triangles", clump.TotalTriangles())
	set("collisions", len(clump.Collisions))
	set("frames", []any{})
	set("geometries", []any{})
	set("atomics", []any{})

	for i := range clump.Frames {
		f := &clump.Frames[i]
		frame := map[string]any{
			"name":     f.Name,
			"parent":   f.Parent,
			"position": []float32{f.Position[0], f.Position[1], f.Position[2]},
		}
		if f.BoneData != nil {
			frame["bone_id"] = f.BoneData.ID
		}
		set("frames.-1", frame)
	}

	for i := range clump.Geometries {
		g := &clump.Geometries[i]
		geometry := map[string]any{
			"native":    g.Native,
			"vertices":  len(g.Vertices),
			"triangles": len(g.Triangles),
			"uv_layers": len(g.UVLayers),
			"materials": len(g.Materials),
		}
		if g.Native {
			geometry["vertices"] = g.NativeVertices
			geometry["triangles"] = g.NativeTriangles
		}
		if skin := g.Skin(); skin != nil {
			geometry["bones"] = skin.NumBones()
		}
		var textures []string
		for _, m := range g.Materials {
			for _, t := range m.Textures {
				textures = append(textures, t.Name)
			}
		}
		geometry["textures"] = textures
		set("geometries.-1", geometry)
	}

	for _, a := range clump.Atomics {
		set("atomics.-1", map[string]any{"frame": a.Frame, "geometry": a.Geometry})
	}

	if err != nil {
		return nil, err
	}
	return out, nil
}

func cmdDFFConvert(args []string) error {
	fs := flag.NewFlagSet("dff convert", flag.ExitOnError)
	rwVersion := fs.String("rw", "", "Target game (III, VC, SA) or library id; defaults to export.rw_version")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: rwtool dff convert -rw <version> <in> <out>")
	}

	if *rwVersion != "" {
		cfg.Export.RWVersion = *rwVersion
	}
	id, err := cfg.LibraryID()
	if err != nil {
		return err
	}

	clump, err := dff.DecodeClumpFile(fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := dff.EncodeClump(clump, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fs.Arg(1), out, 0644); err != nil {
		return err
	}

	logger.Log.Info("converted clump",
		zap.String("input", fs.Arg(0)),
		zap.String("output", fs.Arg(1)),
		zap.String("library_id", fmt.Sprintf("0x%08X", id)),
		zap.Int("bytes", len(out)),
	)
	fmt.Printf("Wrote %s (%s)\n", fs.Arg(1), libraryName(cfg))
	return nil
}

func libraryName(cfg *config.Config) string {
	return strings.ToUpper(strings.TrimSpace(cfg.Export.RWVersion))
}
