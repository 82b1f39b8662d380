package geometry

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/volume"
)

// RaySet holds the traversal data of one micro-lens tile in
// structure-of-arrays form. Segments of all rays share a single arena
// (VoxelIdx, SegLen) and ray r owns the range [Off[r], Off[r]+Cnt[r]).
//
// Rays are ordered by descending segment count, so the rays that still
// have a segment left at traversal step m always form a prefix of the
// arrays. Voxel indices are flat (z*Dy + y)*Dx + x offsets into the
// volume the set was traced against; shifting a whole tile sideways is
// then a constant added per ray segment.
type RaySet struct {
	// Shape is the voxel grid the set was traced against.
	Shape volume.Shape
	// TileSide is the sensor tile edge in pixels (pixels per micro-lens).
	TileSide int

	// Per ray.
	PixelI, PixelJ []int16
	Dir            []r3.Vec
	Frame          []Basis
	Off            []int32
	Cnt            []int32

	// Shared segment arena.
	VoxelIdx []int32
	SegLen   []float64 // chord length through the voxel, µm
}

// NumRays returns how many rays carry at least one segment.
func (rs *RaySet) NumRays() int { return len(rs.Off) }

// MaxSegments returns the longest segment chain in the set.
func (rs *RaySet) MaxSegments() int {
	if len(rs.Cnt) == 0 {
		return 0
	}
	return int(rs.Cnt[0])
}

// ActiveAt returns the number of rays that still have a segment at
// step m. Because rays are sorted by descending count this is also the
// length of the active prefix.
func (rs *RaySet) ActiveAt(m int) int {
	return sort.Search(len(rs.Cnt), func(i int) bool { return int(rs.Cnt[i]) <= m })
}

// Bounds returns the transverse voxel extent the segments touch before
// any tile shift. ok is false for an empty set.
func (rs *RaySet) Bounds() (minY, maxY, minX, maxX int, ok bool) {
	if len(rs.VoxelIdx) == 0 {
		return 0, 0, 0, 0, false
	}
	minY, minX = rs.Shape.Y, rs.Shape.X
	maxY, maxX = -1, -1
	for _, v := range rs.VoxelIdx {
		x := int(v) % rs.Shape.X
		y := (int(v) / rs.Shape.X) % rs.Shape.Y
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return minY, maxY, minX, maxX, true
}

// Builder accumulates rays and packs them into a RaySet.
type Builder struct {
	shape    volume.Shape
	tileSide int
	rays     []protoRay
	segs     int
}

type protoRay struct {
	i, j   int16
	dir    r3.Vec
	frame  Basis
	voxels []int32
	lens   []float64
}

func NewBuilder(shape volume.Shape, tileSide int) *Builder {
	return &Builder{shape: shape, tileSide: tileSide}
}

// Add records one ray. voxels and lens must have equal length and run in
// entry-to-exit order; both slices are retained. Rays without segments
// are dropped.
func (b *Builder) Add(i, j int, dir r3.Vec, frame Basis, voxels []int32, lens []float64) {
	if len(voxels) != len(lens) {
		panic("geometry: voxel and length counts differ")
	}
	if len(voxels) == 0 {
		return
	}
	b.rays = append(b.rays, protoRay{
		i: int16(i), j: int16(j),
		dir: dir, frame: frame,
		voxels: voxels, lens: lens,
	})
	b.segs += len(voxels)
}

// Build sorts the rays by descending segment count (ties keep insertion
// order, i.e. pixel order) and packs the shared arena.
func (b *Builder) Build() *RaySet {
	sort.SliceStable(b.rays, func(p, q int) bool {
		return len(b.rays[p].voxels) > len(b.rays[q].voxels)
	})

	n := len(b.rays)
	rs := &RaySet{
		Shape:    b.shape,
		TileSide: b.tileSide,
		PixelI:   make([]int16, n),
		PixelJ:   make([]int16, n),
		Dir:      make([]r3.Vec, n),
		Frame:    make([]Basis, n),
		Off:      make([]int32, n),
		Cnt:      make([]int32, n),
		VoxelIdx: make([]int32, 0, b.segs),
		SegLen:   make([]float64, 0, b.segs),
	}
	for r, ray := range b.rays {
		rs.PixelI[r] = ray.i
		rs.PixelJ[r] = ray.j
		rs.Dir[r] = ray.dir
		rs.Frame[r] = ray.frame
		rs.Off[r] = int32(len(rs.VoxelIdx))
		rs.Cnt[r] = int32(len(ray.voxels))
		rs.VoxelIdx = append(rs.VoxelIdx, ray.voxels...)
		rs.SegLen = append(rs.SegLen, ray.lens...)
	}
	return rs
}
