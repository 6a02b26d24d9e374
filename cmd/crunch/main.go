package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"colorcrunch"
	"golang.org/x/sync/errgroup"
)

func main() {
	outputDir := flag.String("output", "./results", "Directory to write quantized images and palettes")
	maxColors := flag.Int("colors", 16, "Maximum number of colors in the output")
	algorithm := flag.String("algorithm", "lloyd", "lloyd, hamerly, parallel-aggregates, parallel-assignments or parallel-centroids")
	initializer := flag.String("init", "kmeans++", "Centroid initializer: kmeans++ or random")
	sampleRate := flag.Int("sample-rate", 1, "Cluster every Nth pixel")
	maxIterations := flag.Int("max-iter", 100, "Maximum k-means iterations")
	tolerance := flag.Float64("tolerance", 1e-2, "Convergence tolerance on centroid movement")
	seed := flag.Int64("seed", -1, "Random seed, negative for a random start")
	maxWidth := flag.Int("max-width", 0, "Downscale images wider than this before quantizing, 0 keeps the size")
	paletteOnly := flag.Bool("palette", false, "Only extract the palette")
	jobs := flag.Int("jobs", 2, "Number of images processed concurrently")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one image path is required\n")
		flag.Usage()
		os.Exit(1)
	}

	alg, err := colorcrunch.ParseAlgorithm(*algorithm)
	if err != nil {
		log.Fatalf("Invalid algorithm: %v", err)
	}
	initKind, err := colorcrunch.ParseInitializer(*initializer)
	if err != nil {
		log.Fatalf("Invalid initializer: %v", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	opts := []colorcrunch.Option{
		colorcrunch.WithMaxColors(*maxColors),
		colorcrunch.WithChannels(4),
		colorcrunch.WithSampleRate(*sampleRate),
		colorcrunch.WithMaxIterations(*maxIterations),
		colorcrunch.WithTolerance(*tolerance),
		colorcrunch.WithAlgorithm(alg),
		colorcrunch.WithInitializer(initKind),
		colorcrunch.WithLogger(colorcrunch.NewTextLogger(level)),
	}
	if *seed >= 0 {
		opts = append(opts, colorcrunch.WithSeed(uint64(*seed)))
	}

	// Create a context that can be canceled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle termination signals
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Println("Received termination signal, shutting down...")
		cancel()
	}()

	q, err := colorcrunch.NewContext(ctx, opts...)
	if err != nil {
		log.Fatalf("Error creating quantizer: %v", err)
	}
	defer q.Close()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Error creating output directory: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*jobs, 1))
	for _, path := range flag.Args() {
		g.Go(func() error {
			if err := process(ctx, q, path, *outputDir, *maxWidth, *paletteOnly); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Error processing images: %v", err)
	}
	log.Printf("Processed %d images.", flag.NArg())
}

// process quantizes one image and writes the PNG and palette next to each other.
func process(ctx context.Context, q *colorcrunch.Quantizer, path, outputDir string, maxWidth int, paletteOnly bool) error {
	img, err := loadImage(path, maxWidth)
	if err != nil {
		return err
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if paletteOnly {
		palette, err := q.Palette(ctx, img.Pix)
		if err != nil {
			return err
		}
		log.Printf("%s: %dx%d, palette %s", path, w, h, strings.Join(palette.Hex(), " "))
		return savePalette(filepath.Join(outputDir, name+"_palette.json"), palette)
	}

	// One clustering feeds both outputs, so the palette matches the PNG.
	out, palette, err := q.QuantizeWithPalette(ctx, img.Pix)
	if err != nil {
		return err
	}
	log.Printf("%s: %dx%d, palette %s", path, w, h, strings.Join(palette.Hex(), " "))
	if err := savePalette(filepath.Join(outputDir, name+"_palette.json"), palette); err != nil {
		return err
	}
	return savePNG(filepath.Join(outputDir, name+"_crunched.png"), out, w, h)
}
