package mapdata

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
	"github.com/Parik27/DragonFF-sub001/pkg/img"
)

// sharedIDEDirs hold definitions used by every map area.
var sharedIDEDirs = []string{"generic", "leveldes", "veh_mods"}

// defaultStreamArchive always holds SA streamed IPLs even when the data file
// does not list it.
const defaultStreamArchive = "models/gta3.img"

// Scene is the result of loading one IPL with its definitions.
type Scene struct {
	Objects   map[int]ObjectDef
	Instances []Instance
	Sources   []string
}

// Loader loads map areas from an installed game.
type Loader struct {
	Root           string
	Game           Game
	DiscoverAllIDE bool
	DataFile       string // Relative to Root; DataFileName(Game) when empty

	parser *Parser
	log    *zap.Logger
}

// NewLoader returns a loader for the game installed at root.
func NewLoader(root string, game Game, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		Root:   root,
		Game:   game,
		parser: NewParser(game, log),
		log:    log,
	}
}

func (l *Loader) path(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// GameData parses the game's data file.
func (l *Loader) GameData() (*GameData, error) {
	name := l.DataFile
	if name == "" {
		name = DataFileName(l.Game)
	}
	return ParseDataFileFromPath(l.path(name))
}

// IDEFiles returns the IDE files to load for ipl. With DiscoverAllIDE every
// IDE under the game root is used; otherwise the data file list is pruned
// with PruneIDE.
func (l *Loader) IDEFiles(data *GameData, ipl string) ([]string, error) {
	if l.DiscoverAllIDE {
		return l.discoverIDE()
	}
	return PruneIDE(data.IDE, ipl), nil
}

func (l *Loader) discoverIDE() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".ide") {
			rel, err := filepath.Rel(l.Root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering IDE files: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

// PruneIDE keeps the IDE files under shared directories and those whose
// file name shares its first three characters with ipl, ignoring case. This
// approximates which definitions an area needs and may include extra files.
func PruneIDE(ides []string, ipl string) []string {
	prefix := namePrefix(ipl)
	var out []string
	for _, ide := range ides {
		if isSharedIDE(ide) || strings.HasPrefix(namePrefix(ide), prefix) {
			out = append(out, ide)
		}
	}
	return out
}

func namePrefix(p string) string {
	base := path.Base(encoding.NormalizePath(p))
	base = strings.TrimSuffix(base, path.Ext(base))
	if len(base) > 3 {
		base = base[:3]
	}
	return base
}

func isSharedIDE(ide string) bool {
	parts := strings.Split(encoding.NormalizePath(ide), "/")
	if strings.HasPrefix(parts[len(parts)-1], "generic") {
		return true
	}
	for _, dir := range parts[:len(parts)-1] {
		if slices.Contains(sharedIDEDirs, dir) {
			return true
		}
	}
	return false
}

// Load reads the definitions needed by ipl, then its instances. For San
// Andreas the streamed binary IPLs of the area are read from the IMG
// archives as well. Binary instances get their model name from the loaded
// definitions.
func (l *Loader) Load(ipl string) (*Scene, error) {
	data, err := l.GameData()
	if err != nil {
		return nil, err
	}
	ides, err := l.IDEFiles(data, ipl)
	if err != nil {
		return nil, err
	}

	scene := &Scene{Objects: make(map[int]ObjectDef)}
	for _, ide := range ides {
		f, err := l.parser.ReadFile(l.path(ide))
		if err != nil {
			return nil, err
		}
		defs, err := f.Objects()
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			scene.Objects[def.ID] = def
		}
		scene.Sources = append(scene.Sources, ide)
	}

	f, err := l.parser.ReadFile(l.path(ipl))
	if err != nil {
		return nil, err
	}
	if err := scene.addInstances(f); err != nil {
		return nil, err
	}
	scene.Sources = append(scene.Sources, ipl)

	if l.Game == GameSA {
		if err := l.loadStreams(scene, data, ipl); err != nil {
			return nil, err
		}
	}

	l.log.Info("loaded map area",
		zap.String("ipl", ipl),
		zap.Int("ide_files", len(ides)),
		zap.Int("objects", len(scene.Objects)),
		zap.Int("instances", len(scene.Instances)))
	return scene, nil
}

func (s *Scene) addInstances(f *File) error {
	insts, err := f.Instances()
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if def, ok := s.Objects[inst.ID]; ok && (inst.Model == binaryModelName || inst.Model == "") {
			inst.Model = def.Model
		}
		s.Instances = append(s.Instances, inst)
	}
	return nil
}

// streamArchives returns the IMG archives that may hold streamed IPLs.
func streamArchives(data *GameData) []string {
	archives := []string{defaultStreamArchive}
	for _, a := range data.IMG {
		if !slices.ContainsFunc(archives, func(s string) bool { return strings.EqualFold(s, a) }) {
			archives = append(archives, a)
		}
	}
	return archives
}

func (l *Loader) loadStreams(scene *Scene, data *GameData, ipl string) error {
	base := path.Base(encoding.NormalizePath(ipl))
	base = strings.TrimSuffix(base, path.Ext(base))

	for _, archive := range streamArchives(data) {
		resolved, err := ResolvePath(l.path(archive))
		if err != nil {
			l.log.Warn("IMG archive not found", zap.String("path", archive))
			continue
		}

		err = img.With(resolved, func(a *img.Archive) error {
			entries, err := a.Search(base + "_stream*.ipl")
			if err != nil {
				return err
			}
			slices.SortFunc(entries, func(x, y img.Entry) int {
				return streamIndex(x.Name) - streamIndex(y.Name)
			})

			for _, e := range entries {
				raw, err := a.Read(e.Name)
				if err != nil {
					return err
				}
				f, err := l.parser.Parse(bytes.NewReader(raw), e.Name)
				if err != nil {
					return err
				}
				if err := scene.addInstances(f); err != nil {
					return err
				}
				scene.Sources = append(scene.Sources, archive+"/"+e.Name)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("reading streamed IPLs from %s: %w", archive, err)
		}
	}
	return nil
}

// streamIndex extracts N from "<area>_streamN.ipl".
func streamIndex(name string) int {
	lower := strings.ToLower(name)
	i := strings.LastIndex(lower, "_stream")
	if i < 0 {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSuffix(lower[i+len("_stream"):], ".ipl"))
	return n
}
