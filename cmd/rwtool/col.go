package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/Parik27/DragonFF-sub001/internal/logger"
	"github.com/Parik27/DragonFF-sub001/pkg/col"
)

func cmdCOL(args []string) error {
	sub, args, err := subcommand("col", args)
	if err != nil {
		return err
	}

	switch sub {
	case "info":
		return cmdCOLInfo(args)
	case "convert":
		return cmdCOLConvert(args)
	default:
		return fmt.Errorf("unknown col subcommand: %s", sub)
	}
}

func cmdCOLInfo(args []string) error {
	fs := flag.NewFlagSet("col info", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print a JSON summary")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: rwtool col info [-json] <file.col>")
	}

	models, err := col.DecodeFileFromPath(fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		out, err := collisionSummary(models)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("File:   %s\n", fs.Arg(0))
	fmt.Printf("Models: %d\n", len(models))
	for _, m := range models {
		fmt.Println()
		fmt.Printf("%s %q (id %d)\n", m.Version, m.Name, m.ModelID)
		fmt.Printf("  bounds  min %v max %v radius %.3f\n", m.Bounds.Min, m.Bounds.Max, m.Bounds.Radius)
		fmt.Printf("  spheres %d  boxes %d\n", len(m.Spheres), len(m.Boxes))
		fmt.Printf("  mesh    %d vertices, %d faces, %d groups\n", len(m.MeshVerts), len(m.MeshFaces), len(m.FaceGroups))
		if len(m.ShadowFaces) > 0 {
			fmt.Printf("  shadow  %d vertices, %d faces\n", len(m.ShadowVerts), len(m.ShadowFaces))
		}
	}
	return nil
}

// collisionSummary renders the models of a COL file as JSON.
func collisionSummary(models []*col.Model) ([]byte, error) {
	out := []byte(`{"models":[]}`)
	var err error
	for i, m := range models {
		path := "models." + strconv.Itoa(i)
		fields := []struct {
			key   string
			value any
		}{
			{"name", m.Name},
			{"version", m.Version.String()},
			{"model_id", m.ModelID},
			{"empty", m.IsEmpty()},
			{"radius", m.Bounds.Radius},
			{"spheres", len(m.Spheres)},
			{"boxes", len(m.Boxes)},
			{"vertices", len(m.MeshVerts)},
			{"faces", len(m.MeshFaces)},
			{"face_groups", len(m.FaceGroups)},
			{"shadow_faces", len(m.ShadowFaces)},
		}
		for _, f := range fields {
			if out, err = sjson.SetBytes(out, path+"."+f.key, f.value); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func cmdCOLConvert(args []string) error {
	fs := flag.NewFlagSet("col convert", flag.ExitOnError)
	version := fs.Int("v", 0, "Target collision version (1, 2 or 3); defaults to export.col_version")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: rwtool col convert -v <1|2|3> <in> <out>")
	}

	if *version != 0 {
		cfg.Export.COLVersion = *version
	}
	v, err := cfg.COLVersion()
	if err != nil {
		return err
	}

	models, err := col.DecodeFileFromPath(fs.Arg(0))
	if err != nil {
		return err
	}
	for _, m := range models {
		if v < col.V3 && len(m.ShadowFaces) > 0 {
			logger.Log.Warn("dropping shadow mesh",
				zap.String("model", m.Name),
				zap.Stringer("version", v),
			)
		}
	}

	out, err := col.EncodeFile(models, v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fs.Arg(1), out, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d model(s) as %s to %s\n", len(models), v, fs.Arg(1))
	return nil
}
