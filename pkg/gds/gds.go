// Package gds reads binary GDSII stream files into layout libraries.
//
// The reader covers the records the print pipeline consumes: library
// and structure framing, BOUNDARY/PATH/TEXT geometry, and SREF/AREF
// placements with their transforms and array spacing. Elements the
// pipeline does not model (nodes, boxes, properties) are skipped.
// Coordinates are converted from database units to user units while
// reading, so downstream code never sees raw integers.
package gds

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/layout"
	"github.com/nanofab/descript/pkg/transform"
)

// ReadFile reads the GDSII file at path.
func ReadFile(path string) (*layout.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open layout %s", path)
	}
	defer f.Close()
	lib, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "layout %s", path)
	}
	return lib, nil
}

// Read parses a GDSII stream into a library.
func Read(r io.Reader) (*layout.Library, error) {
	rd := &reader{
		d:     &decoder{r: bufio.NewReader(r)},
		lib:   &layout.Library{},
		scale: 1,
	}
	if err := rd.readLibrary(); err != nil {
		return nil, err
	}
	return rd.lib, nil
}

// pendingRef is a reference recorded before its target structure is
// known. GDSII allows forward references, so names bind after ENDLIB.
type pendingRef struct {
	cell  *layout.Cell
	index int
	name  string
}

type reader struct {
	d   *decoder
	lib *layout.Library
	// scale converts database units to user units.
	scale   float64
	pending []pendingRef
}

func (r *reader) readLibrary() error {
	rec, err := r.d.next()
	if err == io.EOF {
		return errors.New(errors.ErrCodeParse, "empty stream")
	}
	if err != nil {
		return err
	}
	if rec.id != recHeader {
		return errors.New(errors.ErrCodeParse,
			"not a GDSII stream: leading record %s, want HEADER", rec.id)
	}

	for {
		rec, err := r.d.next()
		if err == io.EOF {
			return errors.New(errors.ErrCodeParse, "stream ends without ENDLIB")
		}
		if err != nil {
			return err
		}
		switch rec.id {
		case recLibName:
			r.lib.Name = rec.text()
		case recUnits:
			vals, err := rec.real64s()
			if err != nil {
				return err
			}
			if len(vals) != 2 || vals[0] <= 0 || vals[1] <= 0 {
				return errors.New(errors.ErrCodeParse,
					"record UNITS: want two positive reals, got %v", vals)
			}
			r.scale = vals[0]
			r.lib.Precision = vals[1]
			r.lib.Unit = vals[1] / vals[0]
		case recBgnStr:
			if err := r.readStructure(); err != nil {
				return err
			}
		case recEndLib:
			return r.resolve()
		default:
			// Library-level records the model does not keep
			// (REFLIBS, FONTS, GENERATIONS, ...).
		}
	}
}

func (r *reader) readStructure() error {
	rec, err := r.d.next()
	if err == io.EOF {
		return errors.New(errors.ErrCodeParse, "structure ends before STRNAME")
	}
	if err != nil {
		return err
	}
	if rec.id != recStrName {
		return errors.New(errors.ErrCodeParse,
			"record %s: want STRNAME after BGNSTR", rec.id)
	}
	cell := &layout.Cell{Name: rec.text()}
	r.lib.Cells = append(r.lib.Cells, cell)

	for {
		rec, err := r.d.next()
		if err == io.EOF {
			return errors.New(errors.ErrCodeParse, "structure %q ends without ENDSTR", cell.Name)
		}
		if err != nil {
			return err
		}
		switch rec.id {
		case recEndStr:
			return nil
		case recBoundary, recPath:
			poly, err := r.readShape(rec.id)
			if err != nil {
				return errors.Wrap(errors.ErrCodeParse, err, "structure %q", cell.Name)
			}
			cell.Polygons = append(cell.Polygons, poly)
		case recText:
			text, err := r.readText()
			if err != nil {
				return errors.Wrap(errors.ErrCodeParse, err, "structure %q", cell.Name)
			}
			cell.Texts = append(cell.Texts, text)
		case recSRef:
			if err := r.readRef(cell, false); err != nil {
				return errors.Wrap(errors.ErrCodeParse, err, "structure %q", cell.Name)
			}
		case recARef:
			if err := r.readRef(cell, true); err != nil {
				return errors.Wrap(errors.ErrCodeParse, err, "structure %q", cell.Name)
			}
		case recNode, recBox:
			if err := r.skipElement(); err != nil {
				return err
			}
		default:
			// Attribute records outside an element carry nothing the
			// model keeps.
		}
	}
}

// readShape consumes a BOUNDARY or PATH element. Paths are kept as
// open polygons; the layer is what target matching needs, not the
// stroked outline.
func (r *reader) readShape(kind recordID) (layout.Polygon, error) {
	var poly layout.Polygon
	for {
		rec, err := r.d.next()
		if err == io.EOF {
			return poly, errors.New(errors.ErrCodeParse, "element %s ends without ENDEL", kind)
		}
		if err != nil {
			return poly, err
		}
		switch rec.id {
		case recEndEl:
			if len(poly.Points) == 0 {
				return poly, errors.New(errors.ErrCodeParse, "element %s has no XY record", kind)
			}
			return poly, nil
		case recLayer:
			poly.Layer, err = rec.int16Value()
		case recDatatype:
			poly.Datatype, err = rec.int16Value()
		case recXY:
			var pts []transform.Vec2
			pts, err = r.points(rec)
			if err == nil {
				// A boundary closes by repeating its first point.
				if kind == recBoundary && len(pts) > 1 && pts[0] == pts[len(pts)-1] {
					pts = pts[:len(pts)-1]
				}
				poly.Points = pts
			}
		default:
			// WIDTH, PATHTYPE, ELFLAGS, properties.
		}
		if err != nil {
			return poly, err
		}
	}
}

func (r *reader) readText() (layout.Text, error) {
	var text layout.Text
	for {
		rec, err := r.d.next()
		if err == io.EOF {
			return text, errors.New(errors.ErrCodeParse, "element TEXT ends without ENDEL")
		}
		if err != nil {
			return text, err
		}
		switch rec.id {
		case recEndEl:
			return text, nil
		case recLayer:
			text.Layer, err = rec.int16Value()
		case recTextType:
			text.Texttype, err = rec.int16Value()
		case recXY:
			var pts []transform.Vec2
			pts, err = r.points(rec)
			if err == nil {
				text.Origin = pts[0]
			}
		case recString:
			text.Value = rec.text()
		default:
			// PRESENTATION and text transform records.
		}
		if err != nil {
			return text, err
		}
	}
}

// refState accumulates the records of one SREF or AREF element.
type refState struct {
	name    string
	reflect bool
	mag     float64
	angle   float64
	cols    int
	rows    int
	points  []transform.Vec2
}

func (r *reader) readRef(parent *layout.Cell, array bool) error {
	elem := recSRef
	if array {
		elem = recARef
	}
	st := refState{mag: 1}
	for {
		rec, err := r.d.next()
		if err == io.EOF {
			return errors.New(errors.ErrCodeParse, "element %s ends without ENDEL", elem)
		}
		if err != nil {
			return err
		}
		switch rec.id {
		case recEndEl:
			return r.buildRef(parent, elem, st, array)
		case recSName:
			st.name = rec.text()
		case recSTrans:
			var flags uint16
			flags, err = rec.flags()
			st.reflect = flags&stransReflect != 0
		case recMag:
			st.mag, err = rec.real64Value()
		case recAngle:
			var deg float64
			deg, err = rec.real64Value()
			st.angle = deg * math.Pi / 180
		case recColRow:
			var vals []int
			vals, err = rec.int16s()
			if err == nil && len(vals) != 2 {
				err = errors.New(errors.ErrCodeParse, "record COLROW: want 2 values, got %d", len(vals))
			}
			if err == nil {
				st.cols, st.rows = vals[0], vals[1]
			}
		case recXY:
			st.points, err = r.points(rec)
		default:
			// Properties and flags the model does not keep.
		}
		if err != nil {
			return err
		}
	}
}

// buildRef validates an accumulated reference and appends it to the
// parent. Array spacing vectors derive from the three AREF corner
// points: v1 = (p2-p1)/cols, v2 = (p3-p1)/rows.
func (r *reader) buildRef(parent *layout.Cell, elem recordID, st refState, array bool) error {
	if st.name == "" {
		return errors.New(errors.ErrCodeParse, "element %s has no SNAME", elem)
	}
	tr := transform.Transform{
		Magnification: st.mag,
		Rotation:      st.angle,
		XReflection:   st.reflect,
	}

	var rep *layout.Repetition
	if array {
		if st.cols < 1 || st.rows < 1 {
			return errors.New(errors.ErrCodeParse,
				"element AREF %s: bad COLROW %dx%d", st.name, st.cols, st.rows)
		}
		if len(st.points) != 3 {
			return errors.New(errors.ErrCodeParse,
				"element AREF %s: want 3 XY points, got %d", st.name, len(st.points))
		}
		origin := st.points[0]
		rep = &layout.Repetition{
			Columns: st.cols,
			Rows:    st.rows,
			V1:      st.points[1].Sub(origin).Scale(1 / float64(st.cols)),
			V2:      st.points[2].Sub(origin).Scale(1 / float64(st.rows)),
		}
		tr.Origin = origin
	} else {
		if len(st.points) != 1 {
			return errors.New(errors.ErrCodeParse,
				"element SREF %s: want 1 XY point, got %d", st.name, len(st.points))
		}
		tr.Origin = st.points[0]
	}

	parent.Refs = append(parent.Refs, layout.Ref{Transform: tr, Repetition: rep})
	r.pending = append(r.pending, pendingRef{cell: parent, index: len(parent.Refs) - 1, name: st.name})
	return nil
}

// skipElement consumes records up to the closing ENDEL.
func (r *reader) skipElement() error {
	for {
		rec, err := r.d.next()
		if err == io.EOF {
			return errors.New(errors.ErrCodeParse, "element ends without ENDEL")
		}
		if err != nil {
			return err
		}
		if rec.id == recEndEl {
			return nil
		}
	}
}

func (r *reader) points(rec record) ([]transform.Vec2, error) {
	raw, err := rec.int32s()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, errors.New(errors.ErrCodeParse,
			"record XY: odd coordinate count %d", len(raw))
	}
	pts := make([]transform.Vec2, len(raw)/2)
	for i := range pts {
		pts[i] = transform.Vec2{
			X: float64(raw[2*i]) * r.scale,
			Y: float64(raw[2*i+1]) * r.scale,
		}
	}
	return pts, nil
}

// resolve binds recorded reference names to their structures.
func (r *reader) resolve() error {
	byName := make(map[string]*layout.Cell, len(r.lib.Cells))
	for _, c := range r.lib.Cells {
		byName[c.Name] = c
	}
	for _, p := range r.pending {
		target, found := byName[p.name]
		if !found {
			return errors.New(errors.ErrCodeParse,
				"structure %q references undefined structure %q", p.cell.Name, p.name)
		}
		p.cell.Refs[p.index].Cell = target
	}
	return nil
}
