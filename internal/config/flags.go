package config

import "flag"

// Flags are the command-line overrides shared by every rwtool command.
type Flags struct {
	Config         string
	Debug          bool
	Game           string
	Root           string
	LogFile        string
	DiscoverAllIDE bool
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Game, "game", "", "Game version: III, VC, SA, LCS or VCS")
	fs.StringVar(&f.Root, "root", "", "Game install directory")
	fs.StringVar(&f.LogFile, "log", "", "Also write logs to this file")
	fs.BoolVar(&f.DiscoverAllIDE, "all-ide", false, "Load every IDE file under the game root")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Game != "" {
		cfg.Game.Version = f.Game
	}
	if f.Root != "" {
		cfg.Game.Root = f.Root
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.DiscoverAllIDE {
		cfg.Map.DiscoverAllIDE = true
	}
}
