// rwtool is a CLI utility for GTA RenderWare model, collision, archive and
// map files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Parik27/DragonFF-sub001/internal/config"
	"github.com/Parik27/DragonFF-sub001/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "img":
		err = cmdIMG(args)
	case "dff":
		err = cmdDFF(args)
	case "col":
		err = cmdCOL(args)
	case "ipl", "ide":
		err = cmdIPL(args)
	case "map":
		err = cmdMap(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rwtool - GTA RenderWare file utility

Usage:
  rwtool <command> <subcommand> [options]

Commands:
  img info <file.img>                    Show archive information
  img list <file.img> [pattern]          List entries (optional glob pattern)
  img extract <file.img> <name> [output] Extract entries to a directory
  img search <file.img> <text>           Search entries by name
  dff info [-json] <file.dff>            Show clump structure
  dff convert -rw <version> <in> <out>   Re-encode a clump for another game
  col info [-json] <file.col>            Show collision models
  col convert -v <1|2|3> <in> <out>      Re-encode collision models
  ipl dump [-section name] <file>        Print text or binary IPL/IDE records
  ipl text <file.ipl>                    Print a binary IPL as text inst lines
  ipl binary <in.ipl> <out.ipl>          Write the inst section as binary IPL
  map load [ipl...]                      Load map areas of the configured game
  config [-o path]                       Write the effective configuration

Shared options:
  -config <file>  -game <III|VC|SA|LCS|VCS>  -root <dir>  -debug  -log <file>

Examples:
  rwtool img list models/gta3.img "*.dff"
  rwtool dff convert -rw VC player.dff player_vc.dff
  rwtool ipl dump data/maps/LA/LAe.ipl
  rwtool map load -game SA -root "C:/Games/GTA San Andreas" data/maps/LA/LAe.ipl`)
}

// setup parses args into fs with the shared flags, loads the configuration
// and initialises logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	f := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// subcommand splits "<sub> args..." and reports a usage error when missing.
func subcommand(command string, args []string) (string, []string, error) {
	if len(args) < 1 {
		return "", nil, fmt.Errorf("usage: rwtool %s <subcommand> (see rwtool help)", command)
	}
	return args[0], args[1:], nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	output := fs.String("o", "", "Write to this path instead of the user config directory")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	if *output == "" {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved: %s\n", config.ConfigDir())
		return nil
	}
	if err := cfg.SaveTo(*output); err != nil {
		return err
	}
	fmt.Printf("Saved: %s\n", *output)
	return nil
}
