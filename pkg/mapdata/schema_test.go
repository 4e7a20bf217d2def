package mapdata

import (
	"errors"
	"reflect"
	"testing"
)

func TestShapes_InstFieldCounts(t *testing.T) {
	tests := []struct {
		game Game
		want int
	}{
		{GameIII, 12},
		{GameVC, 13},
		{GameSA, 11},
		{GameLCS, 12},
		{GameVCS, 13},
	}
	for _, tt := range tests {
		t.Run(tt.game.String(), func(t *testing.T) {
			shapes := Shapes(tt.game, "INST")
			if len(shapes) != 1 {
				t.Fatalf("got %d inst shapes, want 1", len(shapes))
			}
			if n := len(shapes[0].Fields); n != tt.want {
				t.Errorf("inst has %d fields, want %d", n, tt.want)
			}
		})
	}
}

func TestShapes_FieldCountsUnique(t *testing.T) {
	for _, game := range []Game{GameIII, GameVC, GameSA} {
		for _, section := range Sections(game) {
			seen := make(map[int]string)
			for _, s := range Shapes(game, section) {
				if other, ok := seen[len(s.Fields)]; ok {
					t.Errorf("%s %s: %s and %s both have %d fields", game, section, other, s.Name, len(s.Fields))
				}
				seen[len(s.Fields)] = s.Name
			}
		}
	}
}

func TestShapes_Unknown(t *testing.T) {
	if Shapes(GameIII, "path") != nil {
		t.Error("path section should be unknown")
	}
	if Shapes(GameIII, "enex") != nil {
		t.Error("enex is SA only")
	}
	if Shapes(Game(42), "inst") != nil {
		t.Error("unknown game should have no shapes")
	}
}

func TestShape_String(t *testing.T) {
	s := shape("txdp", "TextureName", "ParentTextureName")
	if got, want := s.String(), "txdp(TextureName, ParentTextureName)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWith_DoesNotAlias(t *testing.T) {
	base := make([]string, 1, 8)
	base[0] = "ID"
	a := with(base, "A")
	b := with(base, "B")
	if !reflect.DeepEqual(a, []string{"ID", "A"}) || !reflect.DeepEqual(b, []string{"ID", "B"}) {
		t.Errorf("with() aliased: a=%v b=%v", a, b)
	}
}

func TestParseGame(t *testing.T) {
	tests := []struct {
		in      string
		want    Game
		wantErr bool
	}{
		{"III", GameIII, false},
		{"sa", GameSA, false},
		{"Vcs", GameVCS, false},
		{"IV", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseGame(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseGame(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownGame) {
				t.Errorf("ParseGame(%q) error = %v, want ErrUnknownGame", tt.in, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGame(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if s := Game(9).String(); s != "Game(9)" {
		t.Errorf("Game(9).String() = %q", s)
	}
}
