package mapdata

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Parik27/DragonFF-sub001/pkg/encoding"
)

// File is the parsed content of one IPL or IDE file.
type File struct {
	Path     string
	Binary   bool
	Sections map[string][]Record
}

func newFile(path string) *File {
	return &File{Path: path, Sections: make(map[string][]Record)}
}

// Section returns the records of a section.
func (f *File) Section(name string) []Record {
	return f.Sections[strings.ToLower(name)]
}

// Len returns the total number of records.
func (f *File) Len() int {
	n := 0
	for _, recs := range f.Sections {
		n += len(recs)
	}
	return n
}

// Parser reads map files of one game.
type Parser struct {
	Game Game
	log  *zap.Logger
}

// NewParser returns a parser for game. A nil logger discards diagnostics.
func NewParser(game Game, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{Game: game, log: log}
}

// ReadSection reads records from lines up to the "end" line. Each line must
// match exactly one of shapes by field count; other lines are logged and
// skipped. Blank lines and '#' comments are ignored. A non-empty source is
// appended to every record as the Filename field.
func (p *Parser) ReadSection(lines *bufio.Scanner, section string, shapes []Shape, source string) []Record {
	var records []Record
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if strings.EqualFold(line, "end") {
			break
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		matches := matchShapes(shapes, len(fields))
		if len(matches) != 1 {
			candidates := make([]string, len(shapes))
			for i, s := range shapes {
				candidates[i] = s.String()
			}
			p.log.Warn("skipping map data line",
				zap.Error(ErrUnknownRecordShape),
				zap.String("section", section),
				zap.String("source", source),
				zap.Int("matches", len(matches)),
				zap.Strings("candidates", candidates),
				zap.Strings("fields", fields))
			continue
		}
		records = append(records, newRecord(section, matches[0], fields, source))
	}
	return records
}

// Parse reads a text or binary map file. name is used to tell IDE files
// apart and is recorded as the source of IDE definitions.
func (p *Parser) Parse(r io.Reader, name string) (*File, error) {
	br := bufio.NewReader(r)
	f := newFile(name)

	if IsBinaryIPL(br) {
		data, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		recs, err := ReadBinaryIPL(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		f.Binary = true
		f.Sections["inst"] = recs
		return f, nil
	}

	var source string
	if strings.EqualFold(filepath.Ext(name), ".ide") {
		source = filepath.Base(name)
	}

	sc := bufio.NewScanner(encoding.NewTextReader(br))
	for sc.Scan() {
		section := strings.ToLower(strings.TrimSpace(sc.Text()))
		shapes := Shapes(p.Game, section)
		if shapes == nil {
			continue
		}
		f.Sections[section] = append(f.Sections[section], p.ReadSection(sc, section, shapes, source)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	p.log.Debug("parsed map file",
		zap.String("path", name),
		zap.Int("records", f.Len()))
	return f, nil
}

// ReadFile resolves path case-insensitively and parses it. A missing file is
// logged and yields an empty File, since many listed map files are optional.
func (p *Parser) ReadFile(path string) (*File, error) {
	resolved, err := ResolvePath(path)
	if errors.Is(err, ErrNotFound) {
		p.log.Warn("map data file not found", zap.String("path", path))
		return newFile(path), nil
	}
	if err != nil {
		return nil, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("opening map file: %w", err)
	}
	defer file.Close()

	return p.Parse(file, resolved)
}

// WriteSection writes a section header, the preformatted lines and "end".
// Lines are encoded as Windows-1252 like the files the parser reads.
func WriteSection(w io.Writer, section string, lines []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", section)
	for _, line := range lines {
		bw.Write(encoding.UTF8ToWindows1252(line))
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "end\n")
	return bw.Flush()
}
