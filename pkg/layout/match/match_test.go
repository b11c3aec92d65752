package match

import (
	"testing"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/layout"
	"github.com/nanofab/descript/pkg/transform"
)

func polyOn(layer, datatype int) layout.Polygon {
	return layout.Polygon{
		Layer:    layer,
		Datatype: datatype,
		Points:   []transform.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		lookup  string
		want    string
		wantErr bool
	}{
		{name: "layer", lookup: "layer", want: "layer"},
		{name: "layerdatatype", lookup: "layerdatatype", want: "layerdatatype"},
		{name: "printzone", lookup: "printzone", want: "printzone"},
		{name: "case insensitive", lookup: "PrintZone", want: "printzone"},
		{name: "unknown", lookup: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ByName(tt.lookup, DefaultOptions())
			if tt.wantErr {
				if err == nil {
					t.Fatal("ByName() error = nil, want error")
				}
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
				}
				return
			}
			if err != nil {
				t.Fatalf("ByName() error = %v", err)
			}
			if m.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", m.Name(), tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	want := []string{"layer", "layerdatatype", "printzone"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLayerMatch(t *testing.T) {
	m := &Layer{Layer: 66}

	tests := []struct {
		name string
		cell *layout.Cell
		want bool
	}{
		{
			name: "polygon on layer",
			cell: &layout.Cell{Name: "a", Polygons: []layout.Polygon{polyOn(66, 3)}},
			want: true,
		},
		{
			name: "polygon on other layer",
			cell: &layout.Cell{Name: "b", Polygons: []layout.Polygon{polyOn(1, 0)}},
			want: false,
		},
		{
			name: "mixed layers",
			cell: &layout.Cell{Name: "c", Polygons: []layout.Polygon{polyOn(1, 0), polyOn(66, 0)}},
			want: true,
		},
		{
			name: "no polygons",
			cell: &layout.Cell{Name: "d"},
			want: false,
		},
		{
			name: "text on layer",
			cell: &layout.Cell{Name: "e", Texts: []layout.Text{{Layer: 66, Value: "zone"}}},
			want: true,
		},
		{
			name: "text on other layer",
			cell: &layout.Cell{Name: "f", Texts: []layout.Text{{Layer: 2, Value: "note"}}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.cell); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayerSetup(t *testing.T) {
	withLayer := &layout.Library{Name: "lib", Cells: []*layout.Cell{
		{Name: "plain"},
		{Name: "marked", Polygons: []layout.Polygon{polyOn(66, 0)}},
	}}
	withoutLayer := &layout.Library{Name: "lib", Cells: []*layout.Cell{
		{Name: "plain", Polygons: []layout.Polygon{polyOn(1, 0)}},
	}}

	m := &Layer{Layer: 66}
	if err := m.Setup(withLayer); err != nil {
		t.Errorf("Setup() error = %v, want nil", err)
	}
	// A predicate that matches nothing is the no-targets condition, not a
	// missing-entity error.
	if err := m.Setup(withoutLayer); !errors.Is(err, errors.ErrCodeNoTargets) {
		t.Errorf("Setup() code = %v, want %v", errors.GetCode(err), errors.ErrCodeNoTargets)
	}

	md := &LayerDatatype{Layer: 66, Datatype: 5}
	if err := md.Setup(withLayer); !errors.Is(err, errors.ErrCodeNoTargets) {
		t.Errorf("Setup() with wrong datatype code = %v, want %v", errors.GetCode(err), errors.ErrCodeNoTargets)
	}
}

func TestLayerDatatypeMatch(t *testing.T) {
	m := &LayerDatatype{Layer: 66, Datatype: 0}

	tests := []struct {
		name string
		cell *layout.Cell
		want bool
	}{
		{
			name: "layer and datatype match",
			cell: &layout.Cell{Name: "a", Polygons: []layout.Polygon{polyOn(66, 0)}},
			want: true,
		},
		{
			name: "layer matches datatype differs",
			cell: &layout.Cell{Name: "b", Polygons: []layout.Polygon{polyOn(66, 5)}},
			want: false,
		},
		{
			name: "datatype matches layer differs",
			cell: &layout.Cell{Name: "c", Polygons: []layout.Polygon{polyOn(2, 0)}},
			want: false,
		},
		{
			name: "text texttype matches",
			cell: &layout.Cell{Name: "d", Texts: []layout.Text{{Layer: 66, Texttype: 0}}},
			want: true,
		},
		{
			name: "text texttype differs",
			cell: &layout.Cell{Name: "e", Texts: []layout.Text{{Layer: 66, Texttype: 9}}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.cell); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrintZoneMatch(t *testing.T) {
	zone := &layout.Cell{Name: "nanoscribe_print_zone"}
	direct := &layout.Cell{Name: "direct", Refs: []layout.Ref{
		{Cell: zone, Transform: transform.Identity()},
	}}
	indirect := &layout.Cell{Name: "indirect", Refs: []layout.Ref{
		{Cell: direct, Transform: transform.Identity()},
	}}
	lib := &layout.Library{Name: "lib", Cells: []*layout.Cell{indirect, direct, zone}}

	m := &PrintZone{Sentinel: "nanoscribe_print_zone"}
	if err := m.Setup(lib); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if !m.Match(direct) {
		t.Error("Match(direct) = false, want true")
	}
	if m.Match(indirect) {
		t.Error("Match(indirect) = true, want false (containment is non-recursive)")
	}
	if m.Match(zone) {
		t.Error("Match(zone) = true, want false")
	}
}

func TestPrintZoneSetupErrors(t *testing.T) {
	t.Run("missing sentinel", func(t *testing.T) {
		lib := &layout.Library{Name: "lib", Cells: []*layout.Cell{{Name: "other"}}}
		m := &PrintZone{Sentinel: "nanoscribe_print_zone"}

		err := m.Setup(lib)
		if err == nil {
			t.Fatal("Setup() error = nil, want not found")
		}
		if !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeNotFound)
		}
	})

	t.Run("empty library", func(t *testing.T) {
		m := &PrintZone{Sentinel: "nanoscribe_print_zone"}
		err := m.Setup(&layout.Library{Name: "empty"})
		if err == nil {
			t.Fatal("Setup() error = nil, want resolution error")
		}
		if !errors.Is(err, errors.ErrCodeResolution) {
			t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeResolution)
		}
	})
}
