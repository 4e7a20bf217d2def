package main

import (
	"flag"
	"fmt"
	"path"
	"strings"

	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/Parik27/DragonFF-sub001/internal/logger"
	"github.com/Parik27/DragonFF-sub001/pkg/mapdata"
)

func cmdMap(args []string) error {
	sub, args, err := subcommand("map", args)
	if err != nil {
		return err
	}

	switch sub {
	case "load":
		return cmdMapLoad(args)
	default:
		return fmt.Errorf("unknown map subcommand: %s", sub)
	}
}

func cmdMapLoad(args []string) error {
	fs := flag.NewFlagSet("map load", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print a JSON summary per area")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	game, err := cfg.GameID()
	if err != nil {
		return err
	}
	loader := mapdata.NewLoader(cfg.Game.Root, game, logger.Named("mapdata"))
	loader.DiscoverAllIDE = cfg.Map.DiscoverAllIDE
	loader.DataFile = cfg.Game.DataFile

	ipls := fs.Args()
	if len(ipls) == 0 {
		data, err := loader.GameData()
		if err != nil {
			return err
		}
		ipls = filterIPL(data.IPL, cfg.Map.IPLFilter)
	}
	if len(ipls) == 0 {
		return fmt.Errorf("no IPL files to load")
	}

	for _, ipl := range ipls {
		scene, err := loader.Load(ipl)
		if err != nil {
			return fmt.Errorf("loading %s: %w", ipl, err)
		}
		missing := missingDefinitions(scene)
		if len(missing) > 0 {
			logger.Log.Warn("instances without definitions",
				zap.String("ipl", ipl),
				zap.Ints("ids", missing),
			)
		}

		if *asJSON {
			out, err := sceneSummary(ipl, scene, missing)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			continue
		}
		fmt.Printf("%s: %d instance(s), %d definition(s) from %d file(s), %d undefined\n",
			ipl, len(scene.Instances), len(scene.Objects), len(scene.Sources), len(missing))
	}
	return nil
}

// filterIPL keeps the IPL paths whose file name starts with prefix,
// ignoring case. An empty prefix keeps all of them.
func filterIPL(ipls []string, prefix string) []string {
	if prefix == "" {
		return ipls
	}
	prefix = strings.ToLower(prefix)
	var out []string
	for _, ipl := range ipls {
		if strings.HasPrefix(strings.ToLower(path.Base(ipl)), prefix) {
			out = append(out, ipl)
		}
	}
	return out
}

// missingDefinitions returns the distinct model ids instanced without a
// loaded definition, in first-seen order.
func missingDefinitions(scene *mapdata.Scene) []int {
	seen := make(map[int]bool)
	var missing []int
	for _, inst := range scene.Instances {
		if _, ok := scene.Objects[inst.ID]; ok || seen[inst.ID] {
			continue
		}
		seen[inst.ID] = true
		missing = append(missing, inst.ID)
	}
	return missing
}

func sceneSummary(ipl string, scene *mapdata.Scene, missing []int) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		key   string
		value any
	}{
		{"ipl", ipl},
		{"instances", len(scene.Instances)},
		{"objects", len(scene.Objects)},
		{"sources", scene.Sources},
		{"missing", missing},
	} {
		if out, err = sjson.SetBytes(out, kv.key, kv.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}
