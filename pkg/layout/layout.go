// Package layout models the hierarchical cell structure of a 2D layout and
// resolves it into a flat list of print targets.
//
// A Library holds named Cells. Cells contain geometry (polygons, text
// elements) and references to other cells, each reference carrying a
// placement Transform and an optional rectangular Repetition. The package
// provides top-cell lookup, a target labeling pre-pass, and the breadth-first
// Resolve traversal that composes nested placements into absolute ones.
//
// Geometry units are the library's user units throughout; unit conversion
// happens when the library is read, not here.
package layout

import (
	"strings"
	"unicode"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/transform"
)

// TopCellName is the canonical name used to disambiguate the top cell when a
// library has several top-level cells. Comparison strips every non-letter
// character and lowercases, so "Top_Cell_2" and "TOPCELL" both qualify.
const TopCellName = "topcell"

// Polygon is a closed shape on a layer. Points are in cell coordinates.
type Polygon struct {
	Layer    int
	Datatype int
	Points   []transform.Vec2
}

// Text is an annotation element. It carries no printable geometry but keeps
// layer information for matching and inspection.
type Text struct {
	Layer    int
	Texttype int
	Origin   transform.Vec2
	Value    string
}

// Repetition describes a rectangular array placement of a reference.
// Instance (col, row) sits at col*V1 + row*V2 relative to the reference
// origin, with both vectors in parent coordinates.
type Repetition struct {
	Columns int
	Rows    int
	V1      transform.Vec2
	V2      transform.Vec2
}

// Offsets expands the array into per-instance origin offsets. Instances are
// emitted row by row with columns varying fastest; this order is a contract
// because it determines print sequencing downstream.
func (r *Repetition) Offsets() []transform.Vec2 {
	cols, rows := r.Columns, r.Rows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	offsets := make([]transform.Vec2, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			offsets = append(offsets, r.V1.Scale(float64(col)).Add(r.V2.Scale(float64(row))))
		}
	}
	return offsets
}

// Ref places another cell inside its parent.
type Ref struct {
	Cell       *Cell
	Transform  transform.Transform
	Repetition *Repetition
}

// Placements expands the reference into one Transform per array instance.
// A reference without repetition yields exactly its own Transform. Offsets
// shift the origin in parent coordinates; the linear part is shared by all
// instances.
func (r Ref) Placements() []transform.Transform {
	if r.Repetition == nil {
		return []transform.Transform{r.Transform}
	}
	offsets := r.Repetition.Offsets()
	placements := make([]transform.Transform, 0, len(offsets))
	for _, off := range offsets {
		tr := r.Transform
		tr.Origin = tr.Origin.Add(off)
		placements = append(placements, tr)
	}
	return placements
}

// Cell is a named hierarchy node holding geometry and child references.
// Cells are constructed once when the library is read and are read-only
// during traversal.
type Cell struct {
	Name     string
	Polygons []Polygon
	Texts    []Text
	Refs     []Ref
}

// BoundingBox returns the cell extent in its own coordinates, including all
// referenced cells and array instances. ok is false when the cell tree
// contains no geometry at all.
func (c *Cell) BoundingBox() (min, max transform.Vec2, ok bool) {
	extend := func(p transform.Vec2) {
		if !ok {
			min, max = p, p
			ok = true
			return
		}
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}

	for _, poly := range c.Polygons {
		for _, p := range poly.Points {
			extend(p)
		}
	}
	for _, ref := range c.Refs {
		childMin, childMax, childOK := ref.Cell.BoundingBox()
		if !childOK {
			continue
		}
		corners := [4]transform.Vec2{
			{X: childMin.X, Y: childMin.Y},
			{X: childMax.X, Y: childMin.Y},
			{X: childMax.X, Y: childMax.Y},
			{X: childMin.X, Y: childMax.Y},
		}
		for _, placement := range ref.Placements() {
			for _, corner := range corners {
				extend(placement.Apply(corner))
			}
		}
	}
	return min, max, ok
}

// Library is an ordered collection of cells read from a layout file.
type Library struct {
	Name string
	// Unit is the size of one user unit in meters.
	Unit float64
	// Precision is the database resolution in meters.
	Precision float64
	Cells     []*Cell
}

// Cell returns the cell with the given name.
func (l *Library) Cell(name string) (*Cell, bool) {
	for _, c := range l.Cells {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// TopLevel returns the cells not referenced by any other cell, in library
// order.
func (l *Library) TopLevel() []*Cell {
	referenced := make(map[*Cell]bool)
	for _, c := range l.Cells {
		for _, ref := range c.Refs {
			referenced[ref.Cell] = true
		}
	}
	var tops []*Cell
	for _, c := range l.Cells {
		if !referenced[c] {
			tops = append(tops, c)
		}
	}
	return tops
}

// FindCell returns the named cell or a NOT_FOUND error listing the cells the
// library actually contains.
func FindCell(lib *Library, name string) (*Cell, error) {
	if c, found := lib.Cell(name); found {
		return c, nil
	}
	names := make([]string, 0, len(lib.Cells))
	for _, c := range lib.Cells {
		names = append(names, c.Name)
	}
	return nil, errors.New(errors.ErrCodeNotFound,
		"cell %q not found in library (available: %s)", name, strings.Join(names, ", "))
}

// FindTopCell determines the root cell for traversal. A library with exactly
// one top-level cell is unambiguous. With several, the cell whose canonical
// name equals TopCellName wins; anything else is a resolution error.
func FindTopCell(lib *Library) (*Cell, error) {
	tops := lib.TopLevel()
	switch len(tops) {
	case 0:
		return nil, errors.New(errors.ErrCodeResolution, "library %q has no top-level cells", lib.Name)
	case 1:
		return tops[0], nil
	}

	var candidates []*Cell
	for _, c := range tops {
		if canonicalName(c.Name) == TopCellName {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	names := make([]string, 0, len(tops))
	for _, c := range tops {
		names = append(names, c.Name)
	}
	return nil, errors.New(errors.ErrCodeResolution,
		"ambiguous top cell: %d top-level cells (%s) and no unique cell named %q",
		len(tops), strings.Join(names, ", "), TopCellName)
}

// canonicalName strips every non-letter rune and lowercases, so decorated
// names like "Top_Cell_01" compare equal to "topcell".
func canonicalName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
