package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/volume"
)

// Segment is one voxel crossing: the flat voxel index and the chord
// length through it in µm.
type Segment struct {
	Voxel int32
	Len   float64
}

const segEps = 1e-9

// March walks the voxel grid from the ray's entry point to its exit,
// emitting one segment per crossed voxel in traversal order. The origin
// and direction live in voxel coordinates (the grid spans [0,X[×[0,Y[×[0,Z[
// with dir a unit vector); chord lengths are scaled by voxelSizeUm.
// A ray that misses the grid returns nil.
func March(origin, dir r3.Vec, shape volume.Shape, voxelSizeUm float64) []Segment {
	tMin, tMax, ok := clipToBox(origin, dir, shape)
	if !ok {
		return nil
	}
	if tMin < 0 {
		tMin = 0
	}

	// Nudge inside so the floor lands in the entry voxel even when the
	// entry point sits exactly on a face.
	p := r3.Add(origin, r3.Scale(tMin+segEps, dir))
	ix := clampInt(int(math.Floor(p.X)), 0, shape.X-1)
	iy := clampInt(int(math.Floor(p.Y)), 0, shape.Y-1)
	iz := clampInt(int(math.Floor(p.Z)), 0, shape.Z-1)

	stepX, tDeltaX, tNextX := axisStepper(origin.X, dir.X, ix)
	stepY, tDeltaY, tNextY := axisStepper(origin.Y, dir.Y, iy)
	stepZ, tDeltaZ, tNextZ := axisStepper(origin.Z, dir.Z, iz)

	var segs []Segment
	t := tMin
	for {
		tExit := math.Min(tNextX, math.Min(tNextY, tNextZ))
		if tExit > tMax {
			tExit = tMax
		}
		if l := tExit - t; l > segEps {
			idx := int32((iz*shape.Y+iy)*shape.X + ix)
			segs = append(segs, Segment{Voxel: idx, Len: l * voxelSizeUm})
		}
		if tExit >= tMax-segEps {
			return segs
		}
		t = tExit
		switch {
		case tNextX <= tNextY && tNextX <= tNextZ:
			ix += stepX
			if ix < 0 || ix >= shape.X {
				return segs
			}
			tNextX += tDeltaX
		case tNextY <= tNextZ:
			iy += stepY
			if iy < 0 || iy >= shape.Y {
				return segs
			}
			tNextY += tDeltaY
		default:
			iz += stepZ
			if iz < 0 || iz >= shape.Z {
				return segs
			}
			tNextZ += tDeltaZ
		}
	}
}

// axisStepper returns the voxel step, the t distance between face
// crossings and the t of the first crossing for one axis.
func axisStepper(o, d float64, i int) (step int, tDelta, tNext float64) {
	switch {
	case d > 0:
		return 1, 1 / d, (float64(i+1) - o) / d
	case d < 0:
		return -1, -1 / d, (float64(i) - o) / d
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

// clipToBox intersects origin + t*dir with the grid box and returns the
// parameter interval inside it.
func clipToBox(origin, dir r3.Vec, s volume.Shape) (tMin, tMax float64, ok bool) {
	tMin, tMax = math.Inf(-1), math.Inf(1)
	for _, ax := range [3]struct{ o, d, n float64 }{
		{origin.X, dir.X, float64(s.X)},
		{origin.Y, dir.Y, float64(s.Y)},
		{origin.Z, dir.Z, float64(s.Z)},
	} {
		if ax.d == 0 {
			if ax.o < 0 || ax.o > ax.n {
				return 0, 0, false
			}
			continue
		}
		t0 := (0 - ax.o) / ax.d
		t1 := (ax.n - ax.o) / ax.d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
	}
	if tMax <= tMin {
		return 0, 0, false
	}
	return tMin, tMax, true
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
