package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/imaging"
	"github.com/makzator/forward-model/optics"
	"github.com/makzator/forward-model/raytrace"
	"github.com/makzator/forward-model/volume"
)

type config struct {
	optics *string
	vol    *string
	preset *string
	deltaN *float64
	seed   *int64

	beam    *string
	workers *int
	tiles   *int

	out       *string
	format    *string
	composite *bool
	intensity *bool

	showHelp *bool
}

func defineFlags() config {
	return config{
		optics: flag.String("optics", "", "Optical config JSON path; empty uses built-in defaults"),
		vol:    flag.String("volume", "", "Volume container path; empty synthesizes -preset"),
		preset: flag.String("preset", "ellipsoid", "Synthetic volume when -volume is empty (zeros, single_voxel, random, n_planes, ellipsoid)"),
		deltaN: flag.Float64("delta-n", 0.01, "Birefringence of the synthetic volume"),
		seed:   flag.Int64("seed", 42, "Seed for the random preset"),

		beam:    flag.String("beam", "cone", "Illumination geometry: cone or parallel"),
		workers: flag.Int("workers", 0, "Ray workers per tile (0 uses all cores)"),
		tiles:   flag.Int("tile-workers", 1, "Micro-lens tiles rendered concurrently"),

		out:       flag.String("out", ".", "Output directory"),
		format:    flag.String("format", "tiff", "Image format: tiff or png"),
		composite: flag.Bool("composite", false, "Also write the azimuth/retardance color overlay"),
		intensity: flag.Bool("intensity", false, "Also simulate the five PolScope intensity frames"),

		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Birefringent Light-Field Renderer

Usage:
  %[1]s [options]

`, os.Args[0])

	printGroup("Input", []string{"optics", "volume", "preset", "delta-n", "seed"})
	printGroup("Tracing", []string{"beam", "workers", "tile-workers"})
	printGroup("Output", []string{"out", "format", "composite", "intensity"})
	printGroup("Misc", []string{"h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-12s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func main() {

	cfg := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *cfg.showHelp {
		printHelp()
		return
	}
	if *cfg.format != "tiff" && *cfg.format != "png" {
		log.Fatalf("Unsupported format: %s", *cfg.format)
	}

	oc, err := loadOptics(*cfg.optics)
	if err != nil {
		log.Fatalf("Invalid optical config: %v", err)
	}

	vol, err := loadVolume(*cfg.vol, *cfg.preset, *cfg.deltaN, *cfg.seed, oc.Shape())
	if err != nil {
		log.Fatalf("Could not prepare volume: %v", err)
	}

	eng, err := newEngine(oc, *cfg.beam)
	if err != nil {
		log.Fatal(err)
	}
	eng.Exec = raytrace.Parallel{Workers: *cfg.workers}

	fmt.Printf("Rendering %dx%d micro-lenses, %s beam\n", oc.NMicroLenses, oc.NMicroLenses, *cfg.beam)
	start := time.Now()
	res, err := eng.Render(vol, raytrace.Options{
		Intensity:   *cfg.intensity,
		TileWorkers: *cfg.tiles,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Traced in %v\n", time.Since(start).Round(time.Millisecond))

	if err := writeOutputs(*cfg.out, *cfg.format, *cfg.composite, res); err != nil {
		log.Fatalf("Failed to write images: %v", err)
	}
}

func loadOptics(path string) (optics.Config, error) {
	if path == "" {
		return optics.Default(), nil
	}
	return optics.Load(path)
}

func loadVolume(path, preset string, deltaN float64, seed int64, shape volume.Shape) (*volume.Volume, error) {
	if path != "" {
		return volume.Load(path, shape)
	}
	return volume.FromPreset(preset, shape, volume.Params{
		DeltaN:      deltaN,
		DeltaNRange: [2]float64{0, deltaN},
		Seed:        seed,
	})
}

func newEngine(oc optics.Config, beam string) (*raytrace.Engine, error) {
	switch beam {
	case "cone":
		return raytrace.New(oc)
	case "parallel":
		if err := oc.Validate(); err != nil {
			return nil, err
		}
		fan := geometry.Cached("parallel/"+oc.Fingerprint(), func() *geometry.RaySet {
			return geometry.Parallel(oc.FanSpec())
		})
		return raytrace.NewWithFan(oc, fan), nil
	default:
		return nil, fmt.Errorf("unknown beam geometry %q (want cone or parallel)", beam)
	}
}

func writeOutputs(dir, format string, composite bool, res *raytrace.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	write := func(name string, im *imaging.Image, lo, hi float64) error {
		path := filepath.Join(dir, name+"."+ext(format))
		fmt.Printf("-> %s\n", path)
		if format == "png" {
			return imaging.WritePNG16(path, im, lo, hi)
		}
		return imaging.WriteTIFF(path, im, lo, hi)
	}

	if err := write("retardance", res.Retardance, 0, math.Pi); err != nil {
		return err
	}
	if err := write("azimuth", res.Azimuth, 0, math.Pi); err != nil {
		return err
	}
	for _, frame := range res.Intensity {
		if err := write("intensity_"+frame.Name, frame.Image, 0, 1); err != nil {
			return err
		}
	}

	if composite {
		path := filepath.Join(dir, "composite.png")
		fmt.Printf("-> %s\n", path)
		_, hi := res.Retardance.Range()
		if hi == 0 {
			hi = 1
		}
		return imaging.WriteComposite(path, res.Retardance, res.Azimuth, hi)
	}
	return nil
}

func ext(format string) string {
	if format == "png" {
		return "png"
	}
	return "tif"
}
