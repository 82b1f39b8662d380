package volume

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"golang.org/x/exp/mmap"
)

// Container layout, little-endian throughout:
//
//	offset 0   magic "BIRVOL01"
//	offset 8   uint32 section count
//	offset 12  section table, 56 bytes per entry:
//	           name [16]byte NUL-padded, uint32 ndim, [4]uint32 dims,
//	           uint32 codec (0 raw, 1 zlib), uint64 payload offset,
//	           uint64 payload byte length
//	payloads   float64 values, x fastest, one section after another
//
// A volume file carries the sections "delta_n" [Dz, Dy, Dx] and
// "optic_axis" [3, Dz, Dy, Dx].
const (
	containerMagic   = "BIRVOL01"
	sectionEntrySize = 56

	codecRaw  = 0
	codecZlib = 1

	sectionDeltaN    = "delta_n"
	sectionOpticAxis = "optic_axis"
)

type section struct {
	name   string
	dims   []uint32
	codec  uint32
	offset uint64
	length uint64
}

// Save writes v to path. With compress set the payloads are deflated;
// Load handles both layouts transparently.
func Save(path string, v *Volume, compress bool) error {
	n := v.shape.Count()
	dn := encodeFloats(v.data[:n])
	ax := encodeFloats(v.data[n:])

	codec := uint32(codecRaw)
	if compress {
		codec = codecZlib
		var err error
		if dn, err = deflate(dn); err != nil {
			return err
		}
		if ax, err = deflate(ax); err != nil {
			return err
		}
	}

	s := v.shape
	secs := []section{
		{name: sectionDeltaN, codec: codec, length: uint64(len(dn)),
			dims: []uint32{uint32(s.Z), uint32(s.Y), uint32(s.X)}},
		{name: sectionOpticAxis, codec: codec, length: uint64(len(ax)),
			dims: []uint32{3, uint32(s.Z), uint32(s.Y), uint32(s.X)}},
	}
	off := uint64(12 + len(secs)*sectionEntrySize)
	for i := range secs {
		secs[i].offset = off
		off += secs[i].length
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(containerMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(secs))); err != nil {
		return err
	}
	for _, sec := range secs {
		if err := writeSectionEntry(w, sec); err != nil {
			return err
		}
	}
	if _, err := w.Write(dn); err != nil {
		return err
	}
	if _, err := w.Write(ax); err != nil {
		return err
	}
	return w.Flush()
}

func writeSectionEntry(w io.Writer, sec section) error {
	var name [16]byte
	copy(name[:], sec.name)
	if _, err := w.Write(name[:]); err != nil {
		return err
	}
	var dims [4]uint32
	copy(dims[:], sec.dims)
	for _, field := range []any{uint32(len(sec.dims)), dims, sec.codec, sec.offset, sec.length} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a container written by Save. A non-zero target shape crops
// or pads the stored data around the center; the zero Shape keeps the
// stored extent.
func Load(path string, target Shape) (*Volume, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	secs, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	dnSec, ok := secs[sectionDeltaN]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s section", ErrInvalidContainer, sectionDeltaN)
	}
	axSec, ok := secs[sectionOpticAxis]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s section", ErrInvalidContainer, sectionOpticAxis)
	}
	if len(dnSec.dims) != 3 {
		return nil, fmt.Errorf("%w: %s has %d dims, want 3",
			ErrInvalidContainer, sectionDeltaN, len(dnSec.dims))
	}
	if len(axSec.dims) != 4 || axSec.dims[0] != 3 {
		return nil, fmt.Errorf("%w: %s dims %v, want [3 Dz Dy Dx]",
			ErrInvalidContainer, sectionOpticAxis, axSec.dims)
	}
	for d := 0; d < 3; d++ {
		if axSec.dims[d+1] != dnSec.dims[d] {
			return nil, fmt.Errorf("%w: delta_n %v vs optic_axis %v",
				ErrShapeMismatch, dnSec.dims, axSec.dims)
		}
	}
	shape := Shape{Z: int(dnSec.dims[0]), Y: int(dnSec.dims[1]), X: int(dnSec.dims[2])}

	dn, err := readSection(r, dnSec)
	if err != nil {
		return nil, err
	}
	ax, err := readSection(r, axSec)
	if err != nil {
		return nil, err
	}
	v, err := NewFromData(shape, dn, ax)
	if err != nil {
		return nil, err
	}
	sanitizeAxes(v)

	if target != (Shape{}) && target != shape {
		slog.Warn("reshaping loaded volume", "stored", shape, "target", target)
		v = Reshape(v, target)
	}
	return v, nil
}

func parseHeader(r io.ReaderAt) (map[string]section, error) {
	head := make([]byte, 12)
	if _, err := r.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrInvalidContainer)
	}
	if string(head[:8]) != containerMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidContainer, head[:8])
	}
	count := binary.LittleEndian.Uint32(head[8:12])
	if count == 0 || count > 64 {
		return nil, fmt.Errorf("%w: section count %d", ErrInvalidContainer, count)
	}

	raw := make([]byte, int(count)*sectionEntrySize)
	if _, err := r.ReadAt(raw, 12); err != nil {
		return nil, fmt.Errorf("%w: truncated section table", ErrInvalidContainer)
	}
	secs := make(map[string]section, count)
	for i := 0; i < int(count); i++ {
		e := raw[i*sectionEntrySize : (i+1)*sectionEntrySize]
		ndim := binary.LittleEndian.Uint32(e[16:20])
		if ndim == 0 || ndim > 4 {
			return nil, fmt.Errorf("%w: section with %d dims", ErrInvalidContainer, ndim)
		}
		dims := make([]uint32, ndim)
		for d := range dims {
			dims[d] = binary.LittleEndian.Uint32(e[20+4*d:])
		}
		name := string(bytes.TrimRight(e[:16], "\x00"))
		secs[name] = section{
			name:   name,
			dims:   dims,
			codec:  binary.LittleEndian.Uint32(e[36:40]),
			offset: binary.LittleEndian.Uint64(e[40:48]),
			length: binary.LittleEndian.Uint64(e[48:56]),
		}
	}
	return secs, nil
}

func readSection(r io.ReaderAt, sec section) ([]float64, error) {
	buf := make([]byte, sec.length)
	if _, err := r.ReadAt(buf, int64(sec.offset)); err != nil {
		return nil, fmt.Errorf("%w: truncated %s payload", ErrInvalidContainer, sec.name)
	}

	switch sec.codec {
	case codecRaw:
	case codecZlib:
		zr, err := zlib.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("%w: inflating %s: %v", ErrInvalidContainer, sec.name, err)
		}
		buf, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: inflating %s: %v", ErrInvalidContainer, sec.name, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrInvalidContainer, sec.codec)
	}

	want := 1
	for _, d := range sec.dims {
		want *= int(d)
	}
	if len(buf) != 8*want {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, want %d",
			ErrInvalidContainer, sec.name, len(buf), 8*want)
	}
	out := make([]float64, want)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

// sanitizeAxes enforces the unit-axis invariant on loaded data. Axes that
// drifted off unit length are renormalized; birefringent voxels whose
// axis vanished entirely become isotropic instead of propagating NaNs.
func sanitizeAxes(v *Volume) {
	n := v.shape.Count()
	renormalized, dropped := 0, 0
	for i := 0; i < n; i++ {
		if v.data[i] == 0 {
			continue
		}
		ax, ay, az := v.data[n+i], v.data[2*n+i], v.data[3*n+i]
		norm := math.Sqrt(ax*ax + ay*ay + az*az)
		if norm == 0 {
			v.data[i] = 0
			dropped++
			continue
		}
		if math.Abs(norm-1) > 1e-9 {
			v.data[n+i] /= norm
			v.data[2*n+i] /= norm
			v.data[3*n+i] /= norm
			renormalized++
		}
	}
	if renormalized > 0 {
		slog.Warn("renormalized optic axes on load", "count", renormalized)
	}
	if dropped > 0 {
		slog.Warn("dropped birefringent voxels with zero-length axis", "count", dropped)
	}
}

func encodeFloats(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, f := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
