// Command darkroom applies edits to a photo and writes the result as PNG.
//
//	darkroom -in photo.jpg -luts ./luts -filter koto -rotate 1 -crop 0.1,0.1,0.9,0.9 -out edited.png
//
// The output is rendered at the viewport size given by -width and -height,
// the same way the image would appear in an editor window of that size.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/filter"
	_ "github.com/gogpu/darkroom/gpu"
)

type config struct {
	in, out    string
	luts       string
	catalog    string
	filterID   string
	intensity  float64
	width      int
	height     int
	maxSize    int
	rotate     int
	flip       bool
	zoom       float64
	crop       string
	brightness int
	contrast   int
	saturation int
	verbose    bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.in, "in", "", "input image (JPEG, PNG, BMP, TIFF or WebP)")
	flag.StringVar(&cfg.out, "out", "edited.png", "output PNG file")
	flag.StringVar(&cfg.luts, "luts", "", "directory holding the filter catalog and .cube files")
	flag.StringVar(&cfg.catalog, "catalog", "filters.yaml", "catalog file inside -luts")
	flag.StringVar(&cfg.filterID, "filter", "", "filter ID to apply")
	flag.Float64Var(&cfg.intensity, "intensity", 1, "filter intensity in [0, 1]")
	flag.IntVar(&cfg.width, "width", 1024, "viewport width")
	flag.IntVar(&cfg.height, "height", 768, "viewport height")
	flag.IntVar(&cfg.maxSize, "max-size", darkroom.DefaultMaxSourceSize, "downscale sources larger than this")
	flag.IntVar(&cfg.rotate, "rotate", 0, "quarter turns, positive is counter-clockwise")
	flag.BoolVar(&cfg.flip, "flip", false, "mirror horizontally")
	flag.Float64Var(&cfg.zoom, "zoom", 1, "zoom factor")
	flag.StringVar(&cfg.crop, "crop", "", "crop selection left,top,right,bottom normalized to the viewport")
	flag.IntVar(&cfg.brightness, "brightness", darkroom.SliderNeutral, "brightness slider 0-100")
	flag.IntVar(&cfg.contrast, "contrast", darkroom.SliderNeutral, "contrast slider 0-100")
	flag.IntVar(&cfg.saturation, "saturation", darkroom.SliderNeutral, "saturation slider 0-100")
	flag.BoolVar(&cfg.verbose, "v", false, "log pipeline activity")
	flag.Parse()

	if cfg.in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.verbose {
		darkroom.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(cfg); err != nil {
		log.Fatalf("darkroom: %v", err)
	}
	log.Printf("Saved %s (%dx%d)", cfg.out, cfg.width, cfg.height)
}

func run(cfg config) error {
	src, err := loadSource(cfg.in, cfg.maxSize)
	if err != nil {
		return err
	}

	var sel darkroom.Rect
	if cfg.crop != "" {
		if sel, err = parseRect(cfg.crop); err != nil {
			return err
		}
	}

	p, err := darkroom.NewPipeline(src,
		darkroom.WithIntensity(float32(cfg.intensity)),
		darkroom.WithOnError(func(err error) { log.Printf("pipeline: %v", err) }),
	)
	if err != nil {
		return err
	}
	p.Resize(cfg.width, cfg.height)

	var opts []darkroom.EditorOption
	if cfg.luts != "" {
		lib, err := filter.Open(os.DirFS(cfg.luts), cfg.catalog)
		if err != nil {
			return err
		}
		defer lib.Close()
		opts = append(opts, darkroom.WithFilters(lib))
	}
	ed := darkroom.NewEditor(p, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	if err := edit(ed, cfg, sel); err != nil {
		cancel()
		<-runErr
		return err
	}

	result := make(chan error, 1)
	err = ed.Export(func(pm *darkroom.Pixmap, err error) {
		if err == nil {
			err = pm.SavePNG(cfg.out)
		}
		result <- err
	})
	if err != nil {
		cancel()
		<-runErr
		return fmt.Errorf("export: %w", err)
	}
	err = <-result
	cancel()
	if rerr := <-runErr; rerr != nil && !errors.Is(rerr, context.Canceled) {
		return rerr
	}
	return err
}

// edit applies the requested edits in the order an interactive session
// would: geometry, crop, tone, then the filter.
func edit(ed *darkroom.Editor, cfg config, sel darkroom.Rect) error {
	for i := 0; i < cfg.rotate; i++ {
		ed.RotateLeft()
	}
	for i := 0; i > cfg.rotate; i-- {
		ed.RotateRight()
	}
	if cfg.flip {
		ed.Flip()
	}
	if cfg.zoom != 1 {
		ed.Zoom(cfg.zoom)
		ed.EndGesture()
	}

	if cfg.crop != "" {
		done := make(chan error, 1)
		ed.Crop(sel, func(w, h int, err error) {
			if err == nil {
				log.Printf("Cropped to %dx%d source pixels", w, h)
			}
			done <- err
		})
		if err := <-done; err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	}

	ed.SetSliders(cfg.brightness, cfg.contrast, cfg.saturation)
	ed.CommitTone()

	if cfg.filterID != "" {
		done := make(chan error, 1)
		ed.ApplyFilter(cfg.filterID, func(err error) { done <- err })
		if err := <-done; err != nil {
			return fmt.Errorf("filter %q: %w", cfg.filterID, err)
		}
	}
	return nil
}

func loadSource(path string, maxSize int) (*darkroom.Pixmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return darkroom.NewSource(img, darkroom.WithMaxSize(maxSize))
}

// parseRect parses "left,top,right,bottom".
func parseRect(s string) (darkroom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return darkroom.Rect{}, fmt.Errorf("crop %q: want left,top,right,bottom", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return darkroom.Rect{}, fmt.Errorf("crop %q: %w", s, err)
		}
		v[i] = f
	}
	return darkroom.Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil
}
