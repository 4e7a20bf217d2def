package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Parik27/DragonFF-sub001/internal/logger"
	"github.com/Parik27/DragonFF-sub001/pkg/img"
)

func cmdIMG(args []string) error {
	sub, args, err := subcommand("img", args)
	if err != nil {
		return err
	}

	switch sub {
	case "info":
		return cmdIMGInfo(args)
	case "list", "ls":
		return cmdIMGList(args)
	case "extract", "x":
		return cmdIMGExtract(args)
	case "search", "find":
		return cmdIMGSearch(args)
	default:
		return fmt.Errorf("unknown img subcommand: %s", sub)
	}
}

func cmdIMGInfo(args []string) error {
	fs := flag.NewFlagSet("img info", flag.ExitOnError)
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: rwtool img info <file.img>")
	}

	return img.With(fs.Arg(0), func(archive *img.Archive) error {
		extCount := make(map[string]int)
		var totalSize int64
		for _, e := range archive.Entries() {
			ext := strings.ToLower(filepath.Ext(e.Name))
			if ext == "" {
				ext = "(no ext)"
			}
			extCount[ext]++
			totalSize += e.ByteSize()
		}

		fmt.Printf("Archive: %s\n", fs.Arg(0))
		fmt.Printf("Version: %d\n", archive.Version())
		fmt.Printf("Entries: %d\n", archive.Len())
		fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
		fmt.Println()
		fmt.Println("Entries by type:")

		type extStat struct {
			ext   string
			count int
		}
		var stats []extStat
		for ext, count := range extCount {
			stats = append(stats, extStat{ext, count})
		}
		sort.Slice(stats, func(i, j int) bool {
			return stats[i].count > stats[j].count
		})
		for _, s := range stats {
			fmt.Printf("  %-10s %d\n", s.ext, s.count)
		}
		return nil
	})
}

func cmdIMGList(args []string) error {
	fs := flag.NewFlagSet("img list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N entries (0 = all)")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: rwtool img list <file.img> [pattern]")
	}

	return img.With(fs.Arg(0), func(archive *img.Archive) error {
		entries := archive.Entries()
		if fs.NArg() > 1 {
			var err error
			if entries, err = archive.Search(fs.Arg(1)); err != nil {
				return err
			}
		}

		for i, e := range entries {
			if *limit > 0 && i >= *limit {
				break
			}
			fmt.Printf("%-24s %8d %6d\n", e.Name, e.Offset, e.Size)
		}
		if fs.NArg() > 1 {
			fmt.Fprintf(os.Stderr, "\n(%d entries matched)\n", len(entries))
		}
		return nil
	})
}

func cmdIMGExtract(args []string) error {
	fs := flag.NewFlagSet("img extract", flag.ExitOnError)
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: rwtool img extract <file.img> <name|pattern> [output_dir]")
	}

	name := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return img.With(fs.Arg(0), func(archive *img.Archive) error {
		if !strings.ContainsAny(name, "*?[") {
			data, err := archive.Read(name)
			if err != nil {
				return err
			}
			return writeExtracted(outputDir, name, data)
		}

		entries, err := archive.Search(name)
		if err != nil {
			return err
		}
		extracted := 0
		for _, e := range entries {
			data, err := archive.Read(e.Name)
			if err != nil {
				logger.Log.Warn("skipping entry", zap.String("name", e.Name), zap.Error(err))
				continue
			}
			if err := writeExtracted(outputDir, e.Name, data); err != nil {
				logger.Log.Warn("skipping entry", zap.String("name", e.Name), zap.Error(err))
				continue
			}
			extracted++
		}
		fmt.Fprintf(os.Stderr, "\nExtracted %d entries\n", extracted)
		return nil
	})
}

func writeExtracted(dir, name string, data []byte) error {
	outputPath := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
	return nil
}

func cmdIMGSearch(args []string) error {
	fs := flag.NewFlagSet("img search", flag.ExitOnError)
	limit := fs.Int("n", 50, "Limit results (0 = all)")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: rwtool img search <file.img> <text>")
	}

	return img.With(fs.Arg(0), func(archive *img.Archive) error {
		text := strings.ToLower(fs.Arg(1))
		count := 0
		for _, name := range archive.List() {
			if !strings.Contains(strings.ToLower(name), text) {
				continue
			}
			fmt.Println(name)
			count++
			if *limit > 0 && count >= *limit {
				fmt.Fprintf(os.Stderr, "\n(showing first %d matches, use -n 0 for all)\n", *limit)
				return nil
			}
		}
		if count == 0 {
			fmt.Fprintln(os.Stderr, "No entries found")
		} else {
			fmt.Fprintf(os.Stderr, "\n(%d entries found)\n", count)
		}
		return nil
	})
}
