package recipe

import (
	"math"
	"strings"
	"testing"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/transform"
)

func TestDefaults(t *testing.T) {
	r := New()

	if got := len(Keys()); got != 42 {
		t.Fatalf("len(Keys()) = %d, want 42", got)
	}
	if got := r.Float(KeyVersion); got != 1.3 {
		t.Errorf("Version = %v, want 1.3", got)
	}
	if got := r.Text(KeyOutputScanMode); got != ScanModeGalvo {
		t.Errorf("Output.ScanMode = %q, want %q", got, ScanModeGalvo)
	}
	if got := r.Int(KeyExposureShellLaserPower); got != 36 {
		t.Errorf("Exposure.ShellLaserPower = %d, want 36", got)
	}
	if got := r.Bool(KeyOutputInvertZAxis); got != true {
		t.Errorf("Output.InvertZAxis = %v, want true", got)
	}
	if got := r.Bool(KeySplittingGroupBlocks); got != false {
		t.Errorf("Splitting.GroupBlocks = %v, want false", got)
	}
	if got := r.Float(KeyExposureGalvoAcceleration); got != 1.0 {
		t.Errorf("Exposure.GalvoAcceleration = %v, want 1.0", got)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if keys[0] != "Version" {
		t.Errorf("Keys()[0] = %q, want Version", keys[0])
	}
	if last := keys[len(keys)-1]; last != "Exposure.CoreScanSpeed" {
		t.Errorf("Keys() last = %q, want Exposure.CoreScanSpeed", last)
	}
	if !IsKey("Output.ScanMode") {
		t.Error("IsKey(Output.ScanMode) = false, want true")
	}
	if IsKey("Output.scanmode") {
		t.Error("IsKey(Output.scanmode) = true, want false")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name string
		key  string
		raw  string
		want Value
	}{
		{"int", KeyExposureShellScanSpeed, "15000", IntValue(15000)},
		{"float", KeySlicingDistanceMax, "0.2", FloatValue(0.2)},
		{"float from integer text", KeyExposureFindInterfaceAt, "1", FloatValue(1)},
		{"string", KeyFillingMode, "Shell", StringValue("Shell")},
		{"bool one", KeySplittingGroupBlocks, "1", BoolValue(true)},
		{"bool true lower", KeySplittingGroupBlocks, "true", BoolValue(true)},
		{"bool true mixed case", KeySplittingGroupBlocks, "True", BoolValue(true)},
		{"bool zero", KeyOutputInvertZAxis, "0", BoolValue(false)},
		{"bool false upper", KeyOutputInvertZAxis, "FALSE", BoolValue(false)},
		{"padded value", KeyExposureCoreLaserPower, " 42 ", IntValue(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			if err := r.Set(tt.key, tt.raw); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.raw, err)
			}
			got, err := r.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		raw  string
	}{
		{"unknown key", "Output.Nonsense", "1"},
		{"unknown section", "Lens.Power", "10"},
		{"case sensitive key", "output.scanmode", "Galvo"},
		{"int from text", KeyExposureShellLaserPower, "soft"},
		{"int from decimal", KeyExposureShellLaserPower, "1.5"},
		{"float from text", KeySlicingDistanceMax, "thin"},
		{"bool from yes", KeyOutputInvertZAxis, "yes"},
		{"bool from empty", KeyOutputInvertZAxis, ""},
		{"bool from two", KeyOutputInvertZAxis, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := r.Set(tt.key, tt.raw)
			if err == nil {
				t.Fatalf("Set(%q, %q) expected error, got nil", tt.key, tt.raw)
			}
			if !errors.Is(err, errors.ErrCodeInvalidRecipe) {
				t.Errorf("Set(%q, %q) code = %v, want INVALID_RECIPE", tt.key, tt.raw, errors.GetCode(err))
			}
		})
	}

	// The key must appear in the message so a config override typo is
	// traceable.
	err := New().Set("Output.Nonsense", "1")
	if err == nil || !strings.Contains(err.Error(), "Output.Nonsense") {
		t.Errorf("unknown key error = %v, want it to name the key", err)
	}
}

func TestScanMode(t *testing.T) {
	r := New()
	mode, err := r.ScanMode()
	if err != nil {
		t.Fatalf("ScanMode() error: %v", err)
	}
	if mode != ScanModeGalvo {
		t.Errorf("ScanMode() = %q, want Galvo", mode)
	}

	if err := r.Set(KeyOutputScanMode, "Piezo"); err != nil {
		t.Fatalf("Set scan mode: %v", err)
	}
	if mode, _ := r.ScanMode(); mode != ScanModePiezo {
		t.Errorf("ScanMode() = %q, want Piezo", mode)
	}

	if err := r.Set(KeyOutputScanMode, "Resonant"); err != nil {
		t.Fatalf("Set scan mode: %v", err)
	}
	if _, err := r.ScanMode(); !errors.Is(err, errors.ErrCodeInvalidRecipe) {
		t.Errorf("ScanMode() with Resonant: code = %v, want INVALID_RECIPE", errors.GetCode(err))
	}
}

func TestWriteFormat(t *testing.T) {
	var b strings.Builder
	if err := New().Write(&b); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := b.String()

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 42 {
		t.Fatalf("Write() produced %d lines, want 42", len(lines))
	}
	for i, line := range lines {
		if !strings.HasSuffix(line, " ") {
			t.Errorf("line %d = %q, want trailing space", i+1, line)
		}
	}

	wantLines := []string{
		"Version = 1.3 \n",
		"Model.Type = Mesh \n",
		"Slicing.DistanceMax = 0.1 \n",
		"Slicing.FixSelfIntersections = True \n",
		"Splitting.GroupBlocks = False \n",
		"Splitting.BlockWidth = X:100.00 Y:100.0 Z:10 \n",
		"Output.ScanMode = Galvo \n",
		"Exposure.ShellScanSpeed = 20000 \n",
		"Exposure.FindInterfaceAt = 0.5 \n",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("Write() output missing %q", want)
		}
	}
	if !strings.HasPrefix(out, "Version = 1.3 \n") {
		t.Errorf("Write() output starts %q, want Version first", out[:min(len(out), 20)])
	}
}

func TestRoundTrip(t *testing.T) {
	r := New()
	sets := map[string]string{
		KeyExposureCoreScanSpeed: "18000",
		KeySlicingDistanceMax:    "0.3",
		KeyOutputInvertZAxis:     "0",
		KeyFillingMode:           "Shell",
		KeyOutputScanMode:        "Piezo",
	}
	for k, v := range sets {
		if err := r.Set(k, v); err != nil {
			t.Fatalf("Set(%q, %q) error: %v", k, v, err)
		}
	}

	var b strings.Builder
	if err := r.Write(&b); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	back, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !r.Equal(back) {
		t.Error("Parse(Write(r)) != r")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSub string
	}{
		{"unknown key", "Nope.Key = 5 \n", "Nope.Key"},
		{"missing separator", "Slicing.DistanceMax 0.1\n", "missing '='"},
		{"bad cast", "Exposure.ShellLaserPower = soft \n", "ShellLaserPower"},
		{"line number counts blanks", "\n\nNope.Key = 5 \n", "line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got nil", tt.input)
			}
			if !errors.Is(err, errors.ErrCodeInvalidRecipe) {
				t.Errorf("Parse(%q) code = %v, want INVALID_RECIPE", tt.input, errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Parse(%q) error = %v, want substring %q", tt.input, err, tt.wantSub)
			}
		})
	}

	// Blank lines alone are not an error.
	r, err := Parse(strings.NewReader("\n\nOutput.ScanMode = Piezo \n\n"))
	if err != nil {
		t.Fatalf("Parse with blanks error: %v", err)
	}
	if got := r.Text(KeyOutputScanMode); got != "Piezo" {
		t.Errorf("Output.ScanMode = %q, want Piezo", got)
	}
}

func TestStampIdentity(t *testing.T) {
	r := New()
	r.Stamp("/meshes/pillar.stl", [3]float64{0, 0, 0}, [3]float64{95, 95, 9}, transform.Identity())

	tests := []struct {
		key  string
		want string
	}{
		{KeyModelType, "Mesh"},
		{KeyModelFilePath, "/meshes/pillar.stl"},
		{KeyModelBoundingBox, "Minimum:X:0.000 Y:0.000 Z:0.000 Maximum:X:95.000 Y:95.000 Z:9.000"},
		{KeyModelTransformation,
			"[M11:1.000 M12:0.000 M13:0.000 M14:0.000] " +
				"[M21:0.000 M22:1.000 M23:0.000 M24:0.000] " +
				"[M31:0.000 M32:0.000 M33:1.000 M34:0.000] " +
				"[M41:0.000 M42:0.000 M43:0.000 M44:1.000]"},
		{KeyModelRotation, "X:0.000 Y:0.000 Z:0.000 W:1.000"},
		{KeyModelScaling, "X:1.000 Y:1.000 Z:1.000"},
		{KeyModelTranslation, "X:0 Y:0 Z:0"},
	}
	for _, tt := range tests {
		if got := r.Text(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestStampTransformed(t *testing.T) {
	r := New()
	tr := transform.Transform{
		Magnification: 2,
		Rotation:      math.Pi / 2,
		Origin:        transform.Vec2{X: 40, Y: -10},
	}
	r.Stamp("/meshes/cross.stl", [3]float64{-1, -1, 0}, [3]float64{1, 1, 5}, tr)

	wantMatrix := "[M11:0.000 M12:-2.000 M13:0.000 M14:0.000] " +
		"[M21:2.000 M22:0.000 M23:0.000 M24:0.000] " +
		"[M31:0.000 M32:0.000 M33:2.000 M34:0.000] " +
		"[M41:0.000 M42:0.000 M43:0.000 M44:1.000]"
	if got := r.Text(KeyModelTransformation); got != wantMatrix {
		t.Errorf("Model.Transformation = %q, want %q", got, wantMatrix)
	}
	// Stage moves carry the placement origin, never the matrix.
	if got := r.Text(KeyModelTranslation); got != "X:0 Y:0 Z:0" {
		t.Errorf("Model.Translation = %q, want X:0 Y:0 Z:0", got)
	}
	if got := r.Text(KeyModelRotation); got != "X:0.000 Y:0.000 Z:0.707 W:0.707" {
		t.Errorf("Model.Rotation = %q, want X:0.000 Y:0.000 Z:0.707 W:0.707", got)
	}
	if got := r.Text(KeyModelScaling); got != "X:2.000 Y:2.000 Z:2.000" {
		t.Errorf("Model.Scaling = %q, want X:2.000 Y:2.000 Z:2.000", got)
	}
}

func TestStampReflected(t *testing.T) {
	r := New()
	tr := transform.Transform{Magnification: 2, XReflection: true}
	r.Stamp("/meshes/wing.stl", [3]float64{0, 0, 0}, [3]float64{10, 10, 1}, tr)

	wantMatrix := "[M11:-2.000 M12:0.000 M13:0.000 M14:0.000] " +
		"[M21:0.000 M22:2.000 M23:0.000 M24:0.000] " +
		"[M31:0.000 M32:0.000 M33:2.000 M34:0.000] " +
		"[M41:0.000 M42:0.000 M43:0.000 M44:1.000]"
	if got := r.Text(KeyModelTransformation); got != wantMatrix {
		t.Errorf("Model.Transformation = %q, want %q", got, wantMatrix)
	}
}

func TestBoundingBox(t *testing.T) {
	r := New()
	r.Stamp("/meshes/pillar.stl", [3]float64{0, 0, 0}, [3]float64{95, 95, 9}, transform.Identity())

	min, max, err := r.BoundingBox()
	if err != nil {
		t.Fatalf("BoundingBox() error: %v", err)
	}
	if min != [3]float64{0, 0, 0} {
		t.Errorf("min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{95, 95, 9} {
		t.Errorf("max = %v, want [95 95 9]", max)
	}

	// Negative zero from stamping a mesh whose corner sits at -0.0.
	if err := r.Set(KeyModelBoundingBox,
		"Minimum:X:-0.000 Y:0.000 Z:0.000 Maximum:X:95.000 Y:95.000 Z:9.000"); err != nil {
		t.Fatalf("Set bounding box: %v", err)
	}
	min, _, err = r.BoundingBox()
	if err != nil {
		t.Fatalf("BoundingBox() error: %v", err)
	}
	if min[0] != 0 {
		t.Errorf("min[0] = %v, want 0", min[0])
	}
}

func TestBoundingBoxErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated", "Minimum:X:0 Y:0"},
		{"empty", ""},
		{"bad token", "Minimum:X:zero Y:0 Z:0 Maximum:X:1 Y:1 Z:1"},
		{"extra coordinate", "Minimum:X:0 Y:0 Z:0 Maximum:X:1 Y:1 Z:1 W:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			if err := r.Set(KeyModelBoundingBox, tt.raw); err != nil {
				t.Fatalf("Set bounding box: %v", err)
			}
			if _, _, err := r.BoundingBox(); !errors.Is(err, errors.ErrCodeInvalidRecipe) {
				t.Errorf("BoundingBox(%q) code = %v, want INVALID_RECIPE", tt.raw, errors.GetCode(err))
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := New()
	b := New()
	if !a.Equal(b) {
		t.Error("New().Equal(New()) = false, want true")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) = true, want false")
	}

	if err := b.Set(KeyExposureCoreScanSpeed, "18000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if a.Equal(b) {
		t.Error("recipes with different scan speeds compare equal")
	}

	c := b.Clone()
	if !b.Equal(c) {
		t.Error("Clone() not Equal to original")
	}
	if err := c.Set(KeyExposureCoreScanSpeed, "20000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Equal(c) {
		t.Error("mutating a clone leaked into the original")
	}
}

func TestFingerprint(t *testing.T) {
	a := New()
	b := New()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal recipes produced different fingerprints")
	}
	if err := b.Set(KeyFillingMode, "Shell"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("distinct recipes share a fingerprint")
	}
	if got := len(a.Fingerprint()); got != 64 {
		t.Errorf("Fingerprint() length = %d, want 64 hex chars", got)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"int", IntValue(20000), "20000"},
		{"negative int", IntValue(-3), "-3"},
		{"float", FloatValue(0.5), "0.5"},
		{"integral float", FloatValue(20000), "20000.0"},
		{"bool true", BoolValue(true), "True"},
		{"bool false", BoolValue(false), "False"},
		{"string", StringValue("X:0 Y:0 Z:0"), "X:0 Y:0 Z:0"},
		{"empty string", StringValue(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.val.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/job.recipe"
	r := New()
	if err := r.Set(KeyExposureShellScanSpeed, "12345"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !r.Equal(back) {
		t.Error("Load(WriteFile(r)) != r")
	}

	if _, err := Load(path + ".missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load missing file code = %v, want NOT_FOUND", errors.GetCode(err))
	}
}
