package mapdata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
)

// ColFile is a COLFILE line: a collision archive and the level it belongs to.
type ColFile struct {
	Level int
	Path  string
}

// GameData lists the map files a game data file (gta.dat, gta_vc.dat, ...)
// loads, in file order. Paths use forward slashes as written in the file.
type GameData struct {
	IDE      []string
	IPL      []string
	ColFiles []ColFile
	IMG      []string
}

// ParseDataFile parses the IDE, IPL, COLFILE and IMG lines of a game data
// file. Other directives and '#' comments are ignored.
func ParseDataFile(r io.Reader) (*GameData, error) {
	data := &GameData{}
	sc := bufio.NewScanner(encoding.NewTextReader(r))
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		arg := strings.ReplaceAll(fields[1], "\\", "/")

		switch strings.ToUpper(fields[0]) {
		case "IDE":
			data.IDE = append(data.IDE, arg)
		case "IPL":
			data.IPL = append(data.IPL, arg)
		case "IMG", "CDIMAGE":
			data.IMG = append(data.IMG, arg)
		case "COLFILE":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: COLFILE needs a level and a path", line)
			}
			level, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: COLFILE level: %w", line, err)
			}
			data.ColFiles = append(data.ColFiles, ColFile{
				Level: level,
				Path:  strings.ReplaceAll(fields[2], "\\", "/"),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// ParseDataFileFromPath resolves and parses a game data file.
func ParseDataFileFromPath(path string) (*GameData, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer file.Close()

	return ParseDataFile(file)
}

// DataFileName returns the default game data file of a game, relative to the
// game root.
func DataFileName(game Game) string {
	switch game {
	case GameIII, GameLCS:
		return "data/gta3.dat"
	case GameVC, GameVCS:
		return "data/gta_vc.dat"
	default:
		return "data/gta.dat"
	}
}
