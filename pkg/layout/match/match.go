// Package match provides the pluggable strategies that decide which cells
// are print targets.
//
// A Matcher is selected by name, set up once against the full library, and
// then queried per cell during the labeling pre-pass. Three built-in
// strategies exist:
//
//   - "layer": a cell is a target when any of its polygons or texts sits
//     on a configured layer.
//   - "layerdatatype": like "layer" but the datatype (texttype for texts)
//     must match too.
//   - "printzone": a cell is a target when it directly references a
//     designated sentinel cell; nesting the sentinel deeper does not count.
package match

import (
	"sort"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/layout"
)

// Defaults used when no configuration overrides them.
const (
	DefaultLayer    = 66
	DefaultDatatype = 0
	DefaultSentinel = "nanoscribe_print_zone"
)

// Matcher decides whether a cell is a print target. Setup runs once before
// any Match call and may inspect the whole library; Match must be pure.
type Matcher interface {
	// Name returns the registry name of this strategy.
	Name() string
	// Setup prepares the matcher against the library about to be resolved.
	Setup(lib *layout.Library) error
	// Match reports whether the cell is a print target.
	Match(cell *layout.Cell) bool
}

// Options carries the tunables shared by the built-in strategies.
type Options struct {
	Layer    int
	Datatype int
	Sentinel string
}

// DefaultOptions returns the standard Nanoscribe conventions: layer 66,
// datatype 0, sentinel cell "nanoscribe_print_zone".
func DefaultOptions() Options {
	return Options{
		Layer:    DefaultLayer,
		Datatype: DefaultDatatype,
		Sentinel: DefaultSentinel,
	}
}

// Factory constructs a configured matcher instance.
type Factory func(Options) Matcher

var registry = map[string]Factory{
	"layer":         func(o Options) Matcher { return &Layer{Layer: o.Layer} },
	"layerdatatype": func(o Options) Matcher { return &LayerDatatype{Layer: o.Layer, Datatype: o.Datatype} },
	"printzone":     func(o Options) Matcher { return &PrintZone{Sentinel: o.Sentinel} },
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns a configured matcher for the given strategy name.
// Lookup is case-insensitive; unknown names are an input error listing the
// available strategies.
func ByName(name string, opts Options) (Matcher, error) {
	factory, found := registry[strings.ToLower(name)]
	if !found {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown matcher %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(opts), nil
}

// Layer matches cells carrying at least one polygon or text on a given
// layer.
type Layer struct {
	Layer int
}

// Name implements Matcher.
func (m *Layer) Name() string { return "layer" }

// Setup implements Matcher. A library where no cell carries the layer
// yields no print targets.
func (m *Layer) Setup(lib *layout.Library) error {
	for _, cell := range lib.Cells {
		if m.Match(cell) {
			return nil
		}
	}
	return errors.New(errors.ErrCodeNoTargets,
		"no cell in library %q carries layer %d", lib.Name, m.Layer)
}

// Match implements Matcher.
func (m *Layer) Match(cell *layout.Cell) bool {
	for _, poly := range cell.Polygons {
		if poly.Layer == m.Layer {
			return true
		}
	}
	for _, text := range cell.Texts {
		if text.Layer == m.Layer {
			return true
		}
	}
	return false
}

// LayerDatatype matches cells carrying at least one polygon on a given
// layer and datatype pair. Texts match on their texttype instead.
type LayerDatatype struct {
	Layer    int
	Datatype int
}

// Name implements Matcher.
func (m *LayerDatatype) Name() string { return "layerdatatype" }

// Setup implements Matcher. A library where no cell carries the pair
// yields no print targets.
func (m *LayerDatatype) Setup(lib *layout.Library) error {
	for _, cell := range lib.Cells {
		if m.Match(cell) {
			return nil
		}
	}
	return errors.New(errors.ErrCodeNoTargets,
		"no cell in library %q carries layer %d datatype %d", lib.Name, m.Layer, m.Datatype)
}

// Match implements Matcher.
func (m *LayerDatatype) Match(cell *layout.Cell) bool {
	for _, poly := range cell.Polygons {
		if poly.Layer == m.Layer && poly.Datatype == m.Datatype {
			return true
		}
	}
	for _, text := range cell.Texts {
		if text.Layer == m.Layer && text.Texttype == m.Datatype {
			return true
		}
	}
	return false
}

// PrintZone matches cells that directly reference a sentinel cell. The
// sentinel itself is looked up during Setup and must exist in the library.
type PrintZone struct {
	Sentinel string

	zone *layout.Cell
}

// Name implements Matcher.
func (m *PrintZone) Name() string { return "printzone" }

// Setup implements Matcher. It resolves the sentinel cell by name; a
// library without the sentinel cannot use this strategy.
func (m *PrintZone) Setup(lib *layout.Library) error {
	if len(lib.Cells) == 0 {
		return errors.New(errors.ErrCodeResolution, "library %q is empty", lib.Name)
	}
	zone, found := lib.Cell(m.Sentinel)
	if !found {
		return errors.New(errors.ErrCodeNotFound,
			"sentinel cell %q not found in library %q", m.Sentinel, lib.Name)
	}
	m.zone = zone
	return nil
}

// Match implements Matcher. Only direct references count; a cell whose
// grandchild contains the sentinel is not itself a target.
func (m *PrintZone) Match(cell *layout.Cell) bool {
	if m.zone == nil {
		return false
	}
	for _, ref := range cell.Refs {
		if ref.Cell == m.zone {
			return true
		}
	}
	return false
}
