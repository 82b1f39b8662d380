package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/volume"
)

type config struct {
	shape  *string
	preset *string

	deltaN *float64
	axis   *string
	offset *string
	planes *int
	radius *string
	shell  *float64
	seed   *int64

	out      *string
	compress *bool
	showHelp *bool
}

func defineFlags() config {
	return config{
		shape:  flag.String("shape", "11x11x11", "Grid extent as ZxYxX voxels"),
		preset: flag.String("preset", "ellipsoid", "Pattern: zeros, single_voxel, random, n_planes, ellipsoid"),

		deltaN: flag.Float64("delta-n", 0.01, "Birefringence (random draws from [0, delta-n])"),
		axis:   flag.String("axis", "1,0,0", "Optic axis x,y,z for single_voxel and n_planes"),
		offset: flag.String("offset", "0,0,0", "single_voxel offset from center as z,y,x"),
		planes: flag.Int("planes", 1, "Number of z-slabs for n_planes"),
		radius: flag.String("radius", "0,0,0", "Ellipsoid semi-axes in voxels as z,y,x (0 picks a quarter extent)"),
		shell:  flag.Float64("shell", 0.1, "Ellipsoid border half-thickness"),
		seed:   flag.Int64("seed", 42, "Seed for the random preset"),

		out:      flag.String("out", "volume.birvol", "Output container path"),
		compress: flag.Bool("compress", false, "Deflate the container payloads"),
		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Birefringent Volume Builder

Usage:
  %[1]s [options]

`, os.Args[0])

	printGroup("Grid", []string{"shape", "preset"})
	printGroup("Pattern", []string{"delta-n", "axis", "offset", "planes", "radius", "shell", "seed"})
	printGroup("Output", []string{"out", "compress"})
	printGroup("Misc", []string{"h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-8s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
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

	shape, err := parseShape(*cfg.shape)
	if err != nil {
		log.Fatalf("Invalid shape: %v", err)
	}
	axis, err := parseTriple(*cfg.axis)
	if err != nil {
		log.Fatalf("Invalid axis: %v", err)
	}
	offset, err := parseOffset(*cfg.offset)
	if err != nil {
		log.Fatalf("Invalid offset: %v", err)
	}
	radius, err := parseTriple(*cfg.radius)
	if err != nil {
		log.Fatalf("Invalid radius: %v", err)
	}

	v, err := volume.FromPreset(*cfg.preset, shape, volume.Params{
		DeltaN:      *cfg.deltaN,
		DeltaNRange: [2]float64{0, *cfg.deltaN},
		Axis:        r3.Vec{X: axis[0], Y: axis[1], Z: axis[2]},
		Offset:      offset,
		Planes:      *cfg.planes,
		Radius:      radius,
		Shell:       *cfg.shell,
		Seed:        *cfg.seed,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("-> creating %s (%s %s)\n", *cfg.out, shape, *cfg.preset)
	if err := volume.Save(*cfg.out, v, *cfg.compress); err != nil {
		log.Fatalf("Could not write %s: %v", *cfg.out, err)
	}
}

func parseShape(s string) (volume.Shape, error) {
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return volume.Shape{}, fmt.Errorf("%q (expected ZxYxX)", s)
	}
	dims := make([]int, 3)
	for i, p := range parts {
		d, err := strconv.Atoi(p)
		if err != nil || d < 1 {
			return volume.Shape{}, fmt.Errorf("dimension %q in %q", p, s)
		}
		dims[i] = d
	}
	return volume.Shape{Z: dims[0], Y: dims[1], X: dims[2]}, nil
}

func parseTriple(s string) ([3]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]float64{}, fmt.Errorf("%q (expected three comma-separated values)", s)
	}
	var out [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [3]float64{}, fmt.Errorf("component %q in %q", p, s)
		}
		out[i] = v
	}
	return out, nil
}

func parseOffset(s string) ([3]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]int{}, fmt.Errorf("%q (expected z,y,x)", s)
	}
	var out [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [3]int{}, fmt.Errorf("component %q in %q", p, s)
		}
		out[i] = v
	}
	return out, nil
}
