// Package stl locates mesh files and probes their geometry.
//
// The pipeline needs three things from a mesh: where it is, how big
// it is, and which print cell it belongs to. Find discovers candidate
// files, Stat reads the bounding box and triangle count from binary
// or ASCII STL data, and Associate binds target cells to files by
// name stem. Nothing here interprets the mesh beyond its extent; the
// slicer owns the geometry.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
)

// Info is the probe result for one mesh file.
type Info struct {
	// Path is the absolute location of the file.
	Path string
	// Triangles is the facet count.
	Triangles int
	// Min and Max are the axis-aligned bounding box corners.
	Min [3]float64
	Max [3]float64
}

// Find returns every .stl file under the given directories, sorted.
// Each search directory must exist and be a directory.
func Find(dirs []string, recursive bool) ([]string, error) {
	var found []string
	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"%s does not exist or is not a directory", dir)
		}
		if recursive {
			walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && strings.HasSuffix(d.Name(), ".stl") {
					found = append(found, path)
				}
				return nil
			})
			if walkErr != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, walkErr, "scan %s", dir)
			}
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "scan %s", dir)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".stl") {
				found = append(found, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(found)
	return found, nil
}

// Stem returns the file name without directory or extension. Target
// cells associate with meshes through this stem.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Associate binds each target cell name to the mesh whose stem equals
// the cell name. Every cell must resolve to exactly one file: cells
// without a mesh are a resolution error listing all of them, a stem
// collision among needed files is an input error.
func Associate(cells []string, paths []string) (map[string]string, error) {
	byStem := make(map[string][]string)
	for _, p := range paths {
		byStem[Stem(p)] = append(byStem[Stem(p)], p)
	}

	matched := make(map[string]string, len(cells))
	var missing []string
	for _, cell := range cells {
		candidates := byStem[cell]
		switch len(candidates) {
		case 0:
			missing = append(missing, cell)
		case 1:
			matched[cell] = candidates[0]
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"cell %q matches %d mesh files (%s)", cell, len(candidates), strings.Join(candidates, ", "))
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeResolution,
			"no mesh file found for print cells: %s", strings.Join(missing, ", "))
	}
	return matched, nil
}

// Stat probes the STL file at path. Binary files are recognized by
// their size matching the declared triangle count; everything else
// starting with "solid" parses as ASCII.
func Stat(path string) (Info, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeNotFound, err, "open mesh %s", path)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeInternal, err, "stat mesh %s", path)
	}

	prefix := make([]byte, 84)
	n, err := io.ReadFull(f, prefix)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Info{}, errors.Wrap(errors.ErrCodeParse, err, "read mesh %s", path)
	}
	prefix = prefix[:n]

	asciiLooking := bytes.HasPrefix(bytes.TrimLeft(prefix, " \t\r\n"), []byte("solid"))
	if len(prefix) == 84 {
		count := binary.LittleEndian.Uint32(prefix[80:])
		if fi.Size() == 84+50*int64(count) {
			return statBinary(f, abs, int(count))
		}
		if !asciiLooking {
			return Info{}, errors.New(errors.ErrCodeParse,
				"binary STL %s: size %d does not match %d triangles", path, fi.Size(), count)
		}
	}
	if asciiLooking {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Info{}, errors.Wrap(errors.ErrCodeInternal, err, "rewind mesh %s", path)
		}
		return statASCII(f, abs)
	}
	return Info{}, errors.New(errors.ErrCodeParse, "%s is not an STL file", path)
}

// statBinary scans count 50-byte facets: a normal, three vertices and
// an attribute word, all little-endian float32.
func statBinary(r io.Reader, abs string, count int) (Info, error) {
	if count == 0 {
		return Info{}, errors.New(errors.ErrCodeParse, "mesh %s has no triangles", abs)
	}
	info := Info{Path: abs, Triangles: count}
	box := newBounds()

	var facet [50]byte
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, facet[:]); err != nil {
			return Info{}, errors.Wrap(errors.ErrCodeParse, err,
				"mesh %s: truncated at triangle %d of %d", abs, i+1, count)
		}
		// Skip the 12 normal bytes, take 3 vertices of 3 float32.
		for v := 0; v < 3; v++ {
			base := 12 + 12*v
			box.extend(
				float64(math.Float32frombits(binary.LittleEndian.Uint32(facet[base:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(facet[base+4:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(facet[base+8:]))),
			)
		}
	}
	info.Min, info.Max = box.min, box.max
	return info, nil
}

// statASCII scans "facet" and "vertex" lines of a text STL.
func statASCII(r io.Reader, abs string) (Info, error) {
	info := Info{Path: abs}
	box := newBounds()

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			info.Triangles++
		case "vertex":
			if len(fields) != 4 {
				return Info{}, errors.New(errors.ErrCodeParse,
					"mesh %s line %d: vertex wants 3 coordinates", abs, line)
			}
			var coord [3]float64
			for i, raw := range fields[1:] {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return Info{}, errors.New(errors.ErrCodeParse,
						"mesh %s line %d: bad coordinate %q", abs, line, raw)
				}
				coord[i] = v
			}
			box.extend(coord[0], coord[1], coord[2])
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeParse, err, "read mesh %s", abs)
	}
	if !box.any {
		return Info{}, errors.New(errors.ErrCodeParse, "mesh %s has no triangles", abs)
	}
	info.Min, info.Max = box.min, box.max
	return info, nil
}

type bounds struct {
	any      bool
	min, max [3]float64
}

func newBounds() *bounds {
	return &bounds{}
}

func (b *bounds) extend(x, y, z float64) {
	p := [3]float64{x, y, z}
	if !b.any {
		b.min, b.max = p, p
		b.any = true
		return
	}
	for i := range p {
		if p[i] < b.min[i] {
			b.min[i] = p[i]
		}
		if p[i] > b.max[i] {
			b.max[i] = p[i]
		}
	}
}
