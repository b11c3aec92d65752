package transform

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func mat3Close(a, b Mat3) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tolerance {
				return false
			}
		}
	}
	return true
}

func mat4Close(a, b Mat4) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tolerance {
				return false
			}
		}
	}
	return true
}

func transformClose(a, b Transform) bool {
	return math.Abs(a.Magnification-b.Magnification) <= tolerance &&
		math.Abs(a.Rotation-b.Rotation) <= tolerance &&
		a.XReflection == b.XReflection &&
		math.Abs(a.Origin.X-b.Origin.X) <= tolerance &&
		math.Abs(a.Origin.Y-b.Origin.Y) <= tolerance
}

func TestIdentity(t *testing.T) {
	id := Identity()

	if id.Magnification != 1.0 {
		t.Errorf("Magnification = %v, want 1.0", id.Magnification)
	}
	if id.Rotation != 0.0 {
		t.Errorf("Rotation = %v, want 0.0", id.Rotation)
	}
	if id.XReflection {
		t.Error("XReflection = true, want false")
	}

	want := Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if got := id.Linear(); !mat3Close(got, want) {
		t.Errorf("Linear() = %v, want %v", got, want)
	}
}

func TestLinear(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		want Mat3
	}{
		{
			name: "rotation 30 degrees",
			tr:   Transform{Magnification: 1.0, Rotation: math.Pi / 6},
			want: Mat3{
				{0.8660254037844387, -0.5, 0},
				{0.5, 0.8660254037844387, 0},
				{0, 0, 1},
			},
		},
		{
			name: "reflection only",
			tr:   Transform{Magnification: 1.0, XReflection: true},
			want: Mat3{
				{-1, 0, 0},
				{0, 1, 0},
				{0, 0, 1},
			},
		},
		{
			name: "magnification only",
			tr:   Transform{Magnification: 2.5},
			want: Mat3{
				{2.5, 0, 0},
				{0, 2.5, 0},
				{0, 0, 2.5},
			},
		},
		{
			name: "magnification reflection rotation",
			tr:   Transform{Magnification: 2.5, Rotation: math.Pi / 6, XReflection: true},
			want: Mat3{
				{-2.1650635094610968, -1.25, 0},
				{-1.25, 2.1650635094610968, 0},
				{0, 0, 2.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Linear(); !mat3Close(got, tt.want) {
				t.Errorf("Linear() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatrix(t *testing.T) {
	tr := Transform{
		Magnification: 2.5,
		Rotation:      math.Pi / 6,
		XReflection:   true,
		Origin:        Vec2{X: 20, Y: 30},
	}

	t.Run("with translation", func(t *testing.T) {
		want := Mat4{
			{-2.1650635094610968, -1.25, 0, 20},
			{-1.25, 2.1650635094610968, 0, 30},
			{0, 0, 2.5, 0},
			{0, 0, 0, 1},
		}
		if got := tr.Matrix(true); !mat4Close(got, want) {
			t.Errorf("Matrix(true) = %v, want %v", got, want)
		}
	})

	t.Run("without translation", func(t *testing.T) {
		want := Mat4{
			{-2.1650635094610968, -1.25, 0, 0},
			{-1.25, 2.1650635094610968, 0, 0},
			{0, 0, 2.5, 0},
			{0, 0, 0, 1},
		}
		if got := tr.Matrix(false); !mat4Close(got, want) {
			t.Errorf("Matrix(false) = %v, want %v", got, want)
		}
	})
}

func TestCompose(t *testing.T) {
	outer := Transform{
		Magnification: 2.5,
		Rotation:      math.Pi / 6,
		XReflection:   true,
		Origin:        Vec2{X: 30, Y: 20},
	}
	inner := Transform{
		Magnification: 0.4,
		Rotation:      math.Pi / 12,
	}

	got := Compose(outer, inner)

	if math.Abs(got.Magnification-1.0) > tolerance {
		t.Errorf("Magnification = %v, want 1.0", got.Magnification)
	}
	if math.Abs(got.Rotation-math.Pi/4) > tolerance {
		t.Errorf("Rotation = %v, want %v", got.Rotation, math.Pi/4)
	}
	if !got.XReflection {
		t.Error("XReflection = false, want true")
	}
	if math.Abs(got.Origin.X-30) > tolerance || math.Abs(got.Origin.Y-20) > tolerance {
		t.Errorf("Origin = %v, want (30, 20)", got.Origin)
	}

	half := math.Sqrt2 / 2
	want := Mat4{
		{-half, -half, 0, 30},
		{-half, half, 0, 20},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	if m := got.Matrix(true); !mat4Close(m, want) {
		t.Errorf("Matrix(true) = %v, want %v", m, want)
	}
}

func TestComposeOriginMapping(t *testing.T) {
	// The inner origin passes through the outer linear part before the
	// outer translation is added.
	outer := Transform{
		Magnification: 2.0,
		Rotation:      math.Pi / 2,
		Origin:        Vec2{X: 10, Y: 0},
	}
	inner := Transform{
		Magnification: 1.0,
		Origin:        Vec2{X: 5, Y: 0},
	}

	got := Compose(outer, inner)

	// (5,0) rotated 90 degrees is (0,5), scaled by 2 is (0,10),
	// translated by (10,0) is (10,10).
	if math.Abs(got.Origin.X-10) > tolerance || math.Abs(got.Origin.Y-10) > tolerance {
		t.Errorf("Origin = %v, want (10, 10)", got.Origin)
	}
}

func TestComposeIdentityNeutral(t *testing.T) {
	tr := Transform{
		Magnification: 3.0,
		Rotation:      1.2,
		XReflection:   true,
		Origin:        Vec2{X: -4, Y: 7},
	}

	if got := Compose(Identity(), tr); !transformClose(got, tr) {
		t.Errorf("Compose(Identity, T) = %v, want %v", got, tr)
	}
	if got := Compose(tr, Identity()); !transformClose(got, tr) {
		t.Errorf("Compose(T, Identity) = %v, want %v", got, tr)
	}
}

func TestComposeAssociative(t *testing.T) {
	a := Transform{Magnification: 2.0, Rotation: 0.3, Origin: Vec2{X: 1, Y: 2}}
	b := Transform{Magnification: 0.5, Rotation: -1.1, XReflection: true, Origin: Vec2{X: -3, Y: 4}}
	c := Transform{Magnification: 1.5, Rotation: 2.4, Origin: Vec2{X: 5, Y: -6}}

	left := Compose(Compose(a, b), c)
	right := Compose(a, Compose(b, c))

	if !transformClose(left, right) {
		t.Errorf("Compose(Compose(a,b),c) = %v, want %v", left, right)
	}
}

func TestComposeMagnificationMultiplies(t *testing.T) {
	a := Transform{Magnification: 2.0}
	b := Transform{Magnification: 0.25}

	if got := Compose(a, b).Magnification; math.Abs(got-0.5) > tolerance {
		t.Errorf("Magnification = %v, want 0.5", got)
	}

	// Deep chains stay multiplicative.
	acc := Identity()
	for i := 0; i < 10; i++ {
		acc = Compose(acc, Transform{Magnification: 2.0})
	}
	if math.Abs(acc.Magnification-1024) > tolerance {
		t.Errorf("Magnification after 10 compositions = %v, want 1024", acc.Magnification)
	}
}

func TestComposeReflectionXOR(t *testing.T) {
	mirrored := Transform{Magnification: 1.0, XReflection: true}
	plain := Transform{Magnification: 1.0}

	tests := []struct {
		name  string
		outer Transform
		inner Transform
		want  bool
	}{
		{"both mirrored", mirrored, mirrored, false},
		{"outer mirrored", mirrored, plain, true},
		{"inner mirrored", plain, mirrored, true},
		{"neither mirrored", plain, plain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compose(tt.outer, tt.inner).XReflection; got != tt.want {
				t.Errorf("XReflection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuaternion(t *testing.T) {
	half := math.Sqrt2 / 2

	tests := []struct {
		name     string
		rotation float64
		want     Quaternion
	}{
		{"zero rotation", 0, Quaternion{X: 0, Y: 0, Z: 0, W: 1}},
		{"quarter turn", math.Pi / 2, Quaternion{X: 0, Y: 0, Z: half, W: half}},
		{"half turn", math.Pi, Quaternion{X: 0, Y: 0, Z: 1, W: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transform{Magnification: 1.0, Rotation: tt.rotation}.Quaternion()
			if math.Abs(got.X-tt.want.X) > tolerance ||
				math.Abs(got.Y-tt.want.Y) > tolerance ||
				math.Abs(got.Z-tt.want.Z) > tolerance ||
				math.Abs(got.W-tt.want.W) > tolerance {
				t.Errorf("Quaternion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		p    Vec2
		want Vec2
	}{
		{
			name: "identity",
			tr:   Identity(),
			p:    Vec2{X: 3, Y: 4},
			want: Vec2{X: 3, Y: 4},
		},
		{
			name: "translation only",
			tr:   Transform{Magnification: 1.0, Origin: Vec2{X: 10, Y: -2}},
			p:    Vec2{X: 3, Y: 4},
			want: Vec2{X: 13, Y: 2},
		},
		{
			name: "quarter turn",
			tr:   Transform{Magnification: 1.0, Rotation: math.Pi / 2},
			p:    Vec2{X: 1, Y: 0},
			want: Vec2{X: 0, Y: 1},
		},
		{
			name: "reflection",
			tr:   Transform{Magnification: 1.0, XReflection: true},
			p:    Vec2{X: 1, Y: 2},
			want: Vec2{X: -1, Y: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tr.Apply(tt.p)
			if math.Abs(got.X-tt.want.X) > tolerance || math.Abs(got.Y-tt.want.Y) > tolerance {
				t.Errorf("Apply(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
