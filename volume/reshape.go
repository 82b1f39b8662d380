package volume

// Reshape returns a copy of v cropped or padded to target, centered on
// the grid middle. Cropping keeps the central region; padding surrounds
// the data with isotropic voxels. Because both directions split the size
// difference the same way, crop and pad are exact inverses on the
// overlapping region.
func Reshape(v *Volume, target Shape) *Volume {
	out := New(target)

	zo, zn := spanOffsets(v.shape.Z, target.Z)
	yo, yn := spanOffsets(v.shape.Y, target.Y)
	xo, xn := spanOffsets(v.shape.X, target.X)

	nz := min(v.shape.Z, target.Z)
	ny := min(v.shape.Y, target.Y)
	nx := min(v.shape.X, target.X)

	srcN := v.shape.Count()
	dstN := target.Count()
	for c := 0; c < 4; c++ {
		src := v.data[c*srcN : (c+1)*srcN]
		dst := out.data[c*dstN : (c+1)*dstN]
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				si := ((z+zo)*v.shape.Y+(y+yo))*v.shape.X + xo
				di := ((z+zn)*target.Y+(y+yn))*target.X + xn
				copy(dst[di:di+nx], src[si:si+nx])
			}
		}
	}
	return out
}

// spanOffsets returns the source and destination start indices for
// copying between extents src and dst, keeping the copy centered.
func spanOffsets(src, dst int) (srcOff, dstOff int) {
	if src > dst {
		return (src - dst) / 2, 0
	}
	return 0, (dst - src) / 2
}
