package img

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

type testEntry struct {
	name   string
	offset uint32
	size   uint32
	fill   byte
}

var testEntries = []testEntry{
	{"player.dff", 1, 1, 0xAA},
	{"player.txd", 2, 2, 0xBB},
	{"LAE_Stream0.ipl", 4, 1, 0xCC},
}

func directory(entries []testEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		binary.Write(&buf, binary.LittleEndian, e.offset)
		binary.Write(&buf, binary.LittleEndian, e.size)
		name := make([]byte, nameSize)
		copy(name, e.name)
		buf.Write(name)
	}
	return buf.Bytes()
}

// sectors lays out entry data at their sector offsets.
func sectors(entries []testEntry) []byte {
	var end uint32
	for _, e := range entries {
		end = max(end, e.offset+e.size)
	}
	data := make([]byte, int(end)*SectorSize)
	for _, e := range entries {
		start := int(e.offset) * SectorSize
		for i := range int(e.size) * SectorSize {
			data[start+i] = e.fill
		}
	}
	return data
}

func createTestVER2(t *testing.T, entries []testEntry) string {
	t.Helper()
	data := sectors(entries)
	header := append([]byte(ver2Magic), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(header[4:], uint32(len(entries)))
	copy(data, append(header, directory(entries)...))

	path := filepath.Join(t.TempDir(), "gta3.img")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func createTestV1(t *testing.T, entries []testEntry) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gta3.img")
	if err := os.WriteFile(path, sectors(entries), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gta3.dir"), directory(entries), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		create  func(*testing.T, []testEntry) string
		version Version
	}{
		{"VER2", createTestVER2, V2},
		{"V1", createTestV1, V1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive, err := Open(tt.create(t, testEntries))
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			defer archive.Close()

			if archive.Version() != tt.version {
				t.Errorf("Version() = %d, want %d", archive.Version(), tt.version)
			}
			want := []string{"player.dff", "player.txd", "LAE_Stream0.ipl"}
			if got := archive.List(); !reflect.DeepEqual(got, want) {
				t.Errorf("List() = %v, want %v", got, want)
			}

			for i, e := range testEntries {
				idx := archive.FindEntryIndex(e.name)
				if idx != i {
					t.Fatalf("FindEntryIndex(%q) = %d, want %d", e.name, idx, i)
				}
				name, data, err := archive.ReadEntry(idx)
				if err != nil {
					t.Fatalf("ReadEntry(%d) error: %v", idx, err)
				}
				if name != e.name {
					t.Errorf("ReadEntry(%d) name = %q, want %q", idx, name, e.name)
				}
				if len(data) != int(e.size)*SectorSize {
					t.Errorf("ReadEntry(%d) len = %d, want %d", idx, len(data), int(e.size)*SectorSize)
				}
				if !bytes.Equal(data, bytes.Repeat([]byte{e.fill}, len(data))) {
					t.Errorf("ReadEntry(%d) content mismatch", idx)
				}
			}
		})
	}
}

func TestArchive_Lookup(t *testing.T) {
	archive, err := Open(createTestVER2(t, testEntries))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer archive.Close()

	if idx := archive.FindEntryIndex("PLAYER.DFF"); idx != -1 {
		t.Errorf("FindEntryIndex is case-insensitive: got %d", idx)
	}
	if idx := archive.FindEntryIndex("missing.dff"); idx != -1 {
		t.Errorf("FindEntryIndex(missing) = %d, want -1", idx)
	}
	if archive.Contains("missing.dff") || !archive.Contains("player.txd") {
		t.Error("Contains() mismatch")
	}

	if _, err := archive.EntryByName("missing.dff"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("EntryByName(missing) error = %v, want ErrEntryNotFound", err)
	}
	e, err := archive.EntryByName("player.txd")
	if err != nil {
		t.Fatalf("EntryByName() error: %v", err)
	}
	if e.ByteOffset() != 2*SectorSize || e.ByteSize() != 2*SectorSize {
		t.Errorf("entry = %+v", e)
	}

	if _, err := archive.Read("missing.dff"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrEntryNotFound", err)
	}
	if _, _, err := archive.ReadEntry(3); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("ReadEntry(3) error = %v, want ErrEntryNotFound", err)
	}
	data, err := archive.Read("player.dff")
	if err != nil || len(data) != SectorSize || data[0] != 0xAA {
		t.Errorf("Read(player.dff) = %d bytes, err %v", len(data), err)
	}
}

func TestArchive_Search(t *testing.T) {
	archive, err := Open(createTestV1(t, testEntries))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer archive.Close()

	tests := []struct {
		pattern string
		want    int
	}{
		{"player.*", 2},
		{"*_STREAM?.IPL", 1},
		{"*.col", 0},
	}
	for _, tt := range tests {
		got, err := archive.Search(tt.pattern)
		if err != nil {
			t.Fatalf("Search(%q) error: %v", tt.pattern, err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q) = %d entries, want %d", tt.pattern, len(got), tt.want)
		}
	}

	if _, err := archive.Search("[x"); err == nil {
		t.Error("Search with malformed pattern should fail")
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.img")
		if err := os.WriteFile(path, make([]byte, SectorSize), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Open() error = %v, want ErrNotExist", err)
		}
	})

	t.Run("bad dir size", func(t *testing.T) {
		path := createTestV1(t, testEntries)
		if err := os.WriteFile(DirPath(path), make([]byte, 33), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, ErrInvalidDirectory) {
			t.Errorf("Open() error = %v, want ErrInvalidDirectory", err)
		}
	})

	t.Run("VER2 count too large", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gta3.img")
		if err := os.WriteFile(path, []byte("VER2\xff\x00\x00\x00"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); !errors.Is(err, ErrInvalidDirectory) {
			t.Errorf("Open() error = %v, want ErrInvalidDirectory", err)
		}
	})
}

func TestReadEntry_Truncated(t *testing.T) {
	entries := append([]testEntry(nil), testEntries...)
	path := createTestV1(t, entries)
	// Point past the end of the data.
	entries = append(entries, testEntry{"ghost.dff", 40, 1, 0})
	if err := os.WriteFile(DirPath(path), directory(entries), 0o644); err != nil {
		t.Fatal(err)
	}

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer archive.Close()

	if _, err := archive.Read("ghost.dff"); !errors.Is(err, rw.ErrTruncatedInput) {
		t.Errorf("Read(ghost.dff) error = %v, want ErrTruncatedInput", err)
	}
}

func TestWith_Closes(t *testing.T) {
	var kept *Archive
	sentinel := errors.New("stop")
	err := With(createTestVER2(t, testEntries), func(a *Archive) error {
		kept = a
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("With() error = %v, want the callback error", err)
	}
	if _, _, err := kept.ReadEntry(0); !errors.Is(err, os.ErrClosed) {
		t.Errorf("ReadEntry after With = %v, want os.ErrClosed", err)
	}
}

func TestDirPath(t *testing.T) {
	tests := map[string]string{
		"models/gta3.img": "models/gta3.dir",
		"anim/cuts.IMG":   "anim/cuts.dir",
		"noext":           "noext.dir",
	}
	for in, want := range tests {
		if got := DirPath(in); got != want {
			t.Errorf("DirPath(%q) = %q, want %q", in, got, want)
		}
	}
}
