// Package img provides reading functionality for GTA IMG archives.
//
// Two layouts exist. Version 2 archives (SA) start with a "VER2" header and
// carry their directory inline. Version 1 archives (III, VC) have no header:
// the directory lives in a sibling file with the ".dir" extension. In both,
// entries are addressed in 2048-byte sectors.
package img

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
	"github.com/Parik27/DragonFF-sub001/pkg/rw"
)

// SectorSize is the unit of entry offsets and sizes.
const SectorSize = 2048

const (
	ver2Magic = "VER2"
	entrySize = 32
	nameSize  = 24
)

// IMG errors.
var (
	ErrEntryNotFound    = errors.New("entry not found")
	ErrInvalidDirectory = errors.New("invalid IMG directory")
)

// Version identifies the archive layout.
type Version int

// Archive layouts.
const (
	V1 Version = 1
	V2 Version = 2
)

// Entry is a directory record. Offset and Size are in sectors.
type Entry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// ByteOffset returns the entry position in bytes.
func (e Entry) ByteOffset() int64 {
	return int64(e.Offset) * SectorSize
}

// ByteSize returns the entry length in bytes, padding included.
func (e Entry) ByteSize() int64 {
	return int64(e.Size) * SectorSize
}

// Archive represents an opened IMG archive.
type Archive struct {
	file    *os.File
	path    string
	version Version
	entries []Entry
}

// Open opens an IMG archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	archive := &Archive{file: file, path: path}
	if err := archive.readDirectory(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	return archive, nil
}

// With opens the archive at path, calls fn, and closes the archive on every
// return path.
func With(path string, fn func(*Archive) error) (err error) {
	archive, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := archive.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(archive)
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Path returns the path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Version returns the archive layout.
func (a *Archive) Version() Version {
	return a.version
}

func (a *Archive) readDirectory() error {
	header := make([]byte, 8)
	n, err := io.ReadFull(a.file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading header: %w", err)
	}

	if n == len(header) && string(header[:4]) == ver2Magic {
		a.version = V2
		count := binary.LittleEndian.Uint32(header[4:])
		info, err := a.file.Stat()
		if err != nil {
			return err
		}
		if int64(count)*entrySize > info.Size()-8 {
			return fmt.Errorf("%w: %d entries do not fit in %d bytes", ErrInvalidDirectory, count, info.Size())
		}
		table := make([]byte, int(count)*entrySize)
		if _, err := io.ReadFull(a.file, table); err != nil {
			return fmt.Errorf("reading entries: %w", err)
		}
		a.entries = parseEntries(table)
		return nil
	}

	a.version = V1
	dirPath := DirPath(a.path)
	table, err := os.ReadFile(dirPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dirPath, err)
	}
	if len(table)%entrySize != 0 {
		return fmt.Errorf("%w: %s is %d bytes, not a multiple of %d",
			ErrInvalidDirectory, dirPath, len(table), entrySize)
	}
	a.entries = parseEntries(table)
	return nil
}

// DirPath returns the sibling directory file of a version 1 archive.
func DirPath(imgPath string) string {
	return strings.TrimSuffix(imgPath, filepath.Ext(imgPath)) + ".dir"
}

func parseEntries(table []byte) []Entry {
	entries := make([]Entry, 0, len(table)/entrySize)
	for off := 0; off+entrySize <= len(table); off += entrySize {
		rec := table[off : off+entrySize]
		entries = append(entries, Entry{
			Offset: binary.LittleEndian.Uint32(rec),
			Size:   binary.LittleEndian.Uint32(rec[4:]),
			Name:   encoding.FixedString(rec[8 : 8+nameSize]),
		})
	}
	return entries
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the directory in archive order.
func (a *Archive) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// List returns all entry names in archive order.
func (a *Archive) List() []string {
	result := make([]string, len(a.entries))
	for i, e := range a.entries {
		result[i] = e.Name
	}
	return result
}

// FindEntryIndex returns the index of the entry named exactly name, or -1.
func (a *Archive) FindEntryIndex(name string) int {
	for i, e := range a.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Contains checks if an entry exists.
func (a *Archive) Contains(name string) bool {
	return a.FindEntryIndex(name) >= 0
}

// EntryByName returns the entry named exactly name.
func (a *Archive) EntryByName(name string) (Entry, error) {
	i := a.FindEntryIndex(name)
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return a.entries[i], nil
}

// Search returns the entries whose name matches a shell pattern, ignoring
// case.
func (a *Archive) Search(pattern string) ([]Entry, error) {
	pattern = strings.ToLower(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	var result []Entry
	for _, e := range a.entries {
		if ok, _ := filepath.Match(pattern, strings.ToLower(e.Name)); ok {
			result = append(result, e)
		}
	}
	return result, nil
}

// ReadEntry reads the entry at index. The returned data covers every sector
// of the entry, so it may carry trailing padding.
func (a *Archive) ReadEntry(index int) (string, []byte, error) {
	if index < 0 || index >= len(a.entries) {
		return "", nil, fmt.Errorf("%w: index %d of %d", ErrEntryNotFound, index, len(a.entries))
	}
	if a.file == nil {
		return "", nil, os.ErrClosed
	}

	entry := a.entries[index]
	data := make([]byte, entry.ByteSize())
	if _, err := a.file.ReadAt(data, entry.ByteOffset()); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, fmt.Errorf("%w: entry %s at sector %d", rw.ErrTruncatedInput, entry.Name, entry.Offset)
		}
		return "", nil, fmt.Errorf("reading entry %s: %w", entry.Name, err)
	}
	return entry.Name, data, nil
}

// Read reads the entry named exactly name.
func (a *Archive) Read(name string) ([]byte, error) {
	i := a.FindEntryIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	_, data, err := a.ReadEntry(i)
	return data, err
}
