// Package config handles rwtool configuration loading and management.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Parik27/DragonFF-sub001/internal/logger"
	"github.com/Parik27/DragonFF-sub001/pkg/col"
	"github.com/Parik27/DragonFF-sub001/pkg/mapdata"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// Config holds all tool settings.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Map     MapConfig     `yaml:"map"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// GameConfig describes the game installation map commands work on.
type GameConfig struct {
	Version  string `yaml:"version"`   // III, VC, SA, LCS or VCS
	Root     string `yaml:"root"`      // game install directory
	DataFile string `yaml:"data_file"` // relative to Root; empty picks the game default
}

// MapConfig holds map loading settings.
type MapConfig struct {
	DiscoverAllIDE bool   `yaml:"discover_all_ide"`
	IPLFilter      string `yaml:"ipl_filter"` // only load IPLs whose name starts with this
}

// ExportConfig holds settings for files written by the tool.
type ExportConfig struct {
	RWVersion  string `yaml:"rw_version"`  // game name or a library id such as 0x1803FFFF
	COLVersion int    `yaml:"col_version"` // 1, 2 or 3
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Version: "SA",
			Root:    ".",
		},
		Map: MapConfig{
			DiscoverAllIDE: false,
		},
		Export: ExportConfig{
			RWVersion:  "SA",
			COLVersion: 3,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// GameID returns the configured game.
func (c *Config) GameID() (mapdata.Game, error) {
	return mapdata.ParseGame(c.Game.Version)
}

// DataFilePath returns the game data file relative to the game root.
func (c *Config) DataFilePath() (string, error) {
	if c.Game.DataFile != "" {
		return c.Game.DataFile, nil
	}
	game, err := c.GameID()
	if err != nil {
		return "", err
	}
	return mapdata.DataFileName(game), nil
}

var gameLibraryIDs = map[string]uint32{
	"III": rw.LibraryIII,
	"VC":  rw.LibraryVC,
	"SA":  rw.LibrarySA,
}

// LibraryID returns the RenderWare library id used when writing DFF files.
func (c *Config) LibraryID() (uint32, error) {
	s := strings.TrimSpace(c.Export.RWVersion)
	if id, ok := gameLibraryIDs[strings.ToUpper(s)]; ok {
		return id, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("export.rw_version %q: not a game name or library id", s)
	}
	if _, err := rw.RWVersion(uint32(id)); err != nil {
		return 0, fmt.Errorf("export.rw_version %q: %w", s, err)
	}
	return uint32(id), nil
}

// COLVersion returns the collision version used when writing COL files.
func (c *Config) COLVersion() (col.Version, error) {
	v := col.Version(c.Export.COLVersion)
	if v < col.V1 || v > col.V3 {
		return 0, fmt.Errorf("export.col_version %d: must be 1, 2 or 3", c.Export.COLVersion)
	}
	return v, nil
}

// Validate checks every setting that has a restricted set of values.
func (c *Config) Validate() error {
	if _, err := c.GameID(); err != nil {
		return fmt.Errorf("game.version: %w", err)
	}
	if _, err := c.LibraryID(); err != nil {
		return err
	}
	if _, err := c.COLVersion(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
