package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/Parik27/DragonFF-sub001/internal/config"
	"github.com/Parik27/DragonFF-sub001/internal/logger"
	"github.com/Parik27/DragonFF-sub001/pkg/mapdata"
)

func cmdIPL(args []string) error {
	sub, args, err := subcommand("ipl", args)
	if err != nil {
		return err
	}

	switch sub {
	case "dump":
		return cmdIPLDump(args)
	case "text":
		return cmdIPLText(args)
	case "binary":
		return cmdIPLBinary(args)
	default:
		return fmt.Errorf("unknown ipl subcommand: %s", sub)
	}
}

func newParser(cfg *config.Config) (*mapdata.Parser, mapdata.Game, error) {
	game, err := cfg.GameID()
	if err != nil {
		return nil, 0, err
	}
	return mapdata.NewParser(game, logger.Named("mapdata")), game, nil
}

func cmdIPLDump(args []string) error {
	fs := flag.NewFlagSet("ipl dump", flag.ExitOnError)
	section := fs.String("section", "", "Only print this section")
	asJSON := fs.Bool("json", false, "Print records as JSON objects keyed by field name")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: rwtool ipl dump [-section name] <file>")
	}

	parser, game, err := newParser(cfg)
	if err != nil {
		return err
	}
	f, err := parser.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	sections := mapdata.Sections(game)
	if *section != "" {
		sections = []string{strings.ToLower(*section)}
	}

	if *asJSON {
		out, err := mapFileSummary(f, sections)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, name := range sections {
		recs := f.Section(name)
		if len(recs) == 0 {
			continue
		}
		lines := make([]string, len(recs))
		for i, rec := range recs {
			lines[i] = rec.Line()
		}
		if err := mapdata.WriteSection(w, name, lines); err != nil {
			return err
		}
	}
	return nil
}

// mapFileSummary renders the records of the given sections as JSON objects
// keyed by field name.
func mapFileSummary(f *mapdata.File, sections []string) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	if out, err = sjson.SetBytes(out, "binary", f.Binary); err != nil {
		return nil, err
	}
	for _, name := range sections {
		for _, rec := range f.Section(name) {
			obj := make(map[string]string, len(rec.Fields)+1)
			for i, field := range rec.Fields {
				obj[field] = rec.Values[i]
			}
			obj["_shape"] = rec.Shape
			if out, err = sjson.SetBytes(out, "sections."+name+".-1", obj); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func cmdIPLText(args []string) error {
	fs := flag.NewFlagSet("ipl text", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: rwtool ipl text <file.ipl>")
	}

	parser, game, err := newParser(cfg)
	if err != nil {
		return err
	}
	f, err := parser.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	instances, err := f.Instances()
	if err != nil {
		return err
	}

	lines := make([]string, len(instances))
	for i, inst := range instances {
		lines[i] = inst.Line(game)
	}
	return mapdata.WriteSection(os.Stdout, "inst", lines)
}

func cmdIPLBinary(args []string) error {
	fs := flag.NewFlagSet("ipl binary", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: rwtool ipl binary <in.ipl> <out.ipl>")
	}

	parser, _, err := newParser(cfg)
	if err != nil {
		return err
	}
	f, err := parser.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	instances, err := f.Instances()
	if err != nil {
		return err
	}

	out, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	if err := mapdata.WriteBinaryIPL(bw, instances); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d instance(s) to %s\n", len(instances), fs.Arg(1))
	return nil
}
