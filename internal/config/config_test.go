package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Parik27/DragonFF-sub001/pkg/col"
	"github.com/Parik27/DragonFF-sub001/pkg/mapdata"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Game.Version != "SA" {
		t.Errorf("expected game SA, got %s", cfg.Game.Version)
	}
	if cfg.Game.Root != "." {
		t.Errorf("expected root '.', got %s", cfg.Game.Root)
	}
	if cfg.Map.DiscoverAllIDE {
		t.Error("expected discover_all_ide to be false by default")
	}
	if cfg.Export.RWVersion != "SA" || cfg.Export.COLVersion != 3 {
		t.Errorf("unexpected export defaults %+v", cfg.Export)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
game:
  version: "VC"
  root: "/games/vc"
  data_file: "data/gta_vc.dat"

map:
  discover_all_ide: true
  ipl_filter: "haiti"

export:
  rw_version: "0x0C02FFFF"
  col_version: 1

logging:
  level: "debug"
  log_file: "rwtool.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Game.Version != "VC" || cfg.Game.Root != "/games/vc" || cfg.Game.DataFile != "data/gta_vc.dat" {
		t.Errorf("unexpected game config %+v", cfg.Game)
	}
	if !cfg.Map.DiscoverAllIDE || cfg.Map.IPLFilter != "haiti" {
		t.Errorf("unexpected map config %+v", cfg.Map)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "rwtool.log" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}

	id, err := cfg.LibraryID()
	if err != nil {
		t.Fatalf("LibraryID() error: %v", err)
	}
	if id != rw.LibraryVC {
		t.Errorf("LibraryID() = %#x, want %#x", id, rw.LibraryVC)
	}
	v, err := cfg.COLVersion()
	if err != nil || v != col.V1 {
		t.Errorf("COLVersion() = %v, %v", v, err)
	}
}

func TestLoadPartialFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	if err := os.WriteFile(configPath, []byte("game:\n  version: III\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Game.Version != "III" {
		t.Errorf("expected game III, got %s", cfg.Game.Version)
	}
	// Untouched sections keep their defaults.
	if cfg.Export.COLVersion != 3 || cfg.Logging.Level != "info" {
		t.Errorf("defaults lost: %+v %+v", cfg.Export, cfg.Logging)
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("game:\n  version: VC\n  root: /from/file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-game", "sa", "-debug", "-all-ide", "-log", "x.log"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Game.Version != "sa" {
		t.Errorf("flag did not override game: %s", cfg.Game.Version)
	}
	if cfg.Game.Root != "/from/file" {
		t.Errorf("file value lost: root %s", cfg.Game.Root)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "x.log" || !cfg.Map.DiscoverAllIDE {
		t.Errorf("flags not applied: %+v %+v", cfg.Logging, cfg.Map)
	}
	game, err := cfg.GameID()
	if err != nil || game != mapdata.GameSA {
		t.Errorf("GameID() = %v, %v", game, err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("game:\n  version: IV\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := &Flags{Config: configPath}
	if _, err := Load(f); err == nil {
		t.Error("Load() accepted an unknown game")
	}

	f.Config = filepath.Join(tmpDir, "missing.yaml")
	if _, err := Load(f); err == nil {
		t.Error("Load() accepted a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"game", func(c *Config) { c.Game.Version = "GTA4" }},
		{"rw_version", func(c *Config) { c.Export.RWVersion = "latest" }},
		{"rw_version id", func(c *Config) { c.Export.RWVersion = "0" }},
		{"col_version", func(c *Config) { c.Export.COLVersion = 4 }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestDataFilePath(t *testing.T) {
	cfg := Default()
	cfg.Game.Version = "III"
	if p, _ := cfg.DataFilePath(); p != "data/gta3.dat" {
		t.Errorf("DataFilePath() = %q", p)
	}
	cfg.Game.DataFile = "data/custom.dat"
	if p, _ := cfg.DataFilePath(); p != "data/custom.dat" {
		t.Errorf("DataFilePath() = %q", p)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", FileName)

	cfg := Default()
	cfg.Game.Root = "/games/sa"
	cfg.Export.RWVersion = "III"
	cfg.Logging.Level = "warn"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded := Default()
	if err := loadFromFile(loaded, configPath); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded config %+v, want %+v", loaded, cfg)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if filepath.Base(dir) != "rwtool" {
		t.Errorf("ConfigDir() = %q, want an rwtool directory", dir)
	}
}
