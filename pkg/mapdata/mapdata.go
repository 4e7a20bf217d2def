// Package mapdata reads and writes the IPL and IDE map files of the GTA
// games.
//
// Both formats are line based: a section name, one comma separated record
// per line, then "end". The shape of a record depends on the game and, for
// some sections, on the number of fields on the line. IPL files also exist
// in a binary form in San Andreas.
package mapdata

import (
	"errors"
	"fmt"
	"strings"
)

// Map data errors.
var (
	ErrUnknownRecordShape = errors.New("unknown record shape")
	ErrNotFound           = errors.New("map data file not found")
	ErrInvalidBinaryIPL   = errors.New("invalid binary IPL")
	ErrUnknownGame        = errors.New("unknown game")
	ErrMissingField       = errors.New("missing field")
)

// Game identifies the game a map file belongs to.
type Game int

// Supported games.
const (
	GameIII Game = iota
	GameVC
	GameSA
	GameLCS
	GameVCS
)

var gameNames = map[Game]string{
	GameIII: "III",
	GameVC:  "VC",
	GameSA:  "SA",
	GameLCS: "LCS",
	GameVCS: "VCS",
}

// String returns the short name of the game.
func (g Game) String() string {
	if s, ok := gameNames[g]; ok {
		return s
	}
	return fmt.Sprintf("Game(%d)", int(g))
}

// ParseGame parses a short game name such as "SA", ignoring case.
func ParseGame(s string) (Game, error) {
	for g, name := range gameNames {
		if strings.EqualFold(name, s) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

// schemaGame returns the game whose record shapes g uses. The Stories games
// share the layouts of the games they were derived from.
func (g Game) schemaGame() Game {
	switch g {
	case GameLCS:
		return GameIII
	case GameVCS:
		return GameVC
	default:
		return g
	}
}
