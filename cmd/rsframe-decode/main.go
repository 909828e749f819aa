package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"rsframe-go/internal/frame"
	"rsframe-go/internal/logging"
	"rsframe-go/internal/output"
	"rsframe-go/internal/pixel"
	"rsframe-go/internal/record"
)

type coord struct{ col, row int }

type coordList []coord

func (c *coordList) String() string {
	parts := make([]string, len(*c))
	for i, p := range *c {
		parts[i] = fmt.Sprintf("%d,%d", p.col, p.row)
	}
	return strings.Join(parts, " ")
}

func (c *coordList) Set(v string) error {
	col, row, ok := strings.Cut(v, ",")
	if !ok {
		return fmt.Errorf("pixel %q: want col,row", v)
	}
	x, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil {
		return fmt.Errorf("pixel %q: %w", v, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(row))
	if err != nil {
		return fmt.Errorf("pixel %q: %w", v, err)
	}
	*c = append(*c, coord{col: x, row: y})
	return nil
}

type imageFrame interface {
	frame.Frame
	Geometry() pixel.Geometry
	PixelAt(col, row int) (pixel.Kind, error)
}

func main() {
	var pixels coordList
	path := flag.String("path", "", "Path to CBOR frame record file or directory")
	limit := flag.Int("limit", 5, "Max number of records to describe")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Var(&pixels, "pixel", "Pixel to print as col,row (repeatable)")
	flag.Parse()

	logger := logging.New(*logLevel, os.Stderr)
	if *path == "" {
		logger.Fatal().Msg("missing -path")
	}

	files, err := listFiles(*path)
	if err != nil {
		logger.Fatal().Err(err).Msg("list files")
	}

	counts := map[string]int{}
	described := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("read failed")
			continue
		}
		rec, err := record.Unmarshal(data)
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("decode failed")
			continue
		}
		f, err := frame.Classify(record.NewHandle(rec))
		if err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("classify failed")
			counts["unclassified"]++
			continue
		}
		category := fmt.Sprintf("%s/%s", f.Extension(), f.Kind())
		counts[category]++
		if described < *limit {
			described++
			describe(logger, file, f, pixels)
		}
		_ = f.Close()
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	fmt.Printf("summary: %s\n", strings.Join(parts, " "))
}

func describe(logger zerolog.Logger, file string, f frame.Frame, pixels coordList) {
	profile := f.StreamProfile()
	fmt.Printf("frame: %s\n", file)
	fmt.Printf("  category: %s %s (index %d)\n", f.Extension(), f.Kind(), profile.Index)
	fmt.Printf("  format: %s\n", profile.Format)
	fmt.Printf("  timestamp: %.3f (%s)\n", f.Timestamp(), f.TimestampDomain())

	switch fr := f.(type) {
	case imageFrame:
		g := fr.Geometry()
		fmt.Printf("  geometry: %dx%d stride %d size %d\n", g.Width, g.Height, g.Stride, g.DataSize)
		if len(pixels) == 0 {
			return
		}
		samples := make([]output.PixelSample, 0, len(pixels))
		for _, p := range pixels {
			px, err := fr.PixelAt(p.col, p.row)
			if err != nil {
				if errors.Is(err, pixel.ErrUnsupportedFormat) {
					fmt.Printf("  pixels: %v\n", err)
					return
				}
				fmt.Printf("  pixel %d,%d: %v\n", p.col, p.row, err)
				continue
			}
			samples = append(samples, output.PixelSample{Col: p.col, Row: p.row, Snapshot: px.Snapshot()})
		}
		writePixels(os.Stdout, logger, file, samples)
	case *frame.PointsFrame:
		fmt.Printf("  points: %d\n", fr.PointCount())
		for _, p := range pixels {
			v, err := fr.Vertex(p.col)
			if err != nil {
				fmt.Printf("  vertex %d: %v\n", p.col, err)
				continue
			}
			fmt.Printf("  vertex %d: %.4f %.4f %.4f\n", p.col, v.X.Value(), v.Y.Value(), v.Z.Value())
		}
	case *frame.PoseFrame:
		pose, err := fr.Pose()
		if err != nil {
			fmt.Printf("  pose: %v\n", err)
			return
		}
		fmt.Printf("  translation: %+v\n", pose.Translation)
		fmt.Printf("  rotation: %+v\n", pose.Rotation)
	case *frame.AccelFrame:
		printMotion(fr.Motion())
	case *frame.GyroFrame:
		printMotion(fr.Motion())
	}
}

func writePixels(w io.Writer, logger zerolog.Logger, file string, samples []output.PixelSample) {
	if err := output.WritePixels(w, samples); err != nil {
		logger.Warn().Err(err).Str("file", file).Msg("pixel write failed")
	}
}

func printMotion(v frame.Vector, err error) {
	if err != nil {
		fmt.Printf("  motion: %v\n", err)
		return
	}
	fmt.Printf("  motion: %+v\n", v)
}

func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".cbor" {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
