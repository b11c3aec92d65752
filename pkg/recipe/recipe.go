// Package recipe models DeScribe slicing recipes.
//
// A recipe is the flat "key = value" parameter file consumed by the
// DeScribe slicer. The key set is closed: the 42 entries of the
// DeScribe default recipe, each typed by its default value (string,
// int, float or bool). Set casts incoming text to the declared type
// and rejects unknown keys, so a recipe never carries a parameter the
// slicer would silently ignore.
//
// Recipes are also the memoization unit of a print run: two targets
// whose stamped recipes compare Equal share one slicer invocation.
package recipe

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/transform"
)

// Canonical recipe keys, grouped by section.
const (
	KeyVersion = "Version"

	KeyModelType           = "Model.Type"
	KeyModelFilePath       = "Model.FilePath"
	KeyModelTransformation = "Model.Transformation"
	KeyModelBoundingBox    = "Model.BoundingBox"
	KeyModelRotation       = "Model.Rotation"
	KeyModelScaling        = "Model.Scaling"
	KeyModelTranslation    = "Model.Translation"

	KeySlicingMode                    = "Slicing.Mode"
	KeySlicingDistanceMax             = "Slicing.DistanceMax"
	KeySlicingSimplificationTolerance = "Slicing.SimplificationTolerance"
	KeySlicingFixSelfIntersections    = "Slicing.FixSelfIntersections"

	KeyFillingMode                 = "Filling.Mode"
	KeyFillingSolidContourCount    = "Filling.SolidContourCount"
	KeyFillingSolidContourDistance = "Filling.SolidContourDistance"
	KeyFillingConcaveCornerMode    = "Filling.ConcaveCornerMode"
	KeyFillingHatchingDistance     = "Filling.HatchingDistance"
	KeyFillingHatchingAngle        = "Filling.HatchingAngle"
	KeyFillingHatchingAngleOffset  = "Filling.HatchingAngleOffset"

	KeySplittingMode                  = "Splitting.Mode"
	KeySplittingBlockSize             = "Splitting.BlockSize"
	KeySplittingBlockOffset           = "Splitting.BlockOffset"
	KeySplittingBlockShearAngle       = "Splitting.BlockShearAngle"
	KeySplittingBlockOverlap          = "Splitting.BlockOverlap"
	KeySplittingLayerOverlap          = "Splitting.LayerOverlap"
	KeySplittingBlockWidth            = "Splitting.BlockWidth"
	KeySplittingBlockOrderMode        = "Splitting.BlockOrderMode"
	KeySplittingAvoidFlyingBlocks     = "Splitting.AvoidFlyingBlocks"
	KeySplittingGroupBlocks           = "Splitting.GroupBlocks"
	KeySplittingUseBacklashCorrection = "Splitting.UseBacklashCorrection"

	KeyOutputScanMode         = "Output.ScanMode"
	KeyOutputZAxis            = "Output.ZAxis"
	KeyOutputExposure         = "Output.Exposure"
	KeyOutputInvertZAxis      = "Output.InvertZAxis"
	KeyOutputWritingDirection = "Output.WritingDirection"
	KeyOutputHatchLineMode    = "Output.HatchLineMode"

	KeyExposureGalvoAcceleration = "Exposure.GalvoAcceleration"
	KeyExposureFindInterfaceAt   = "Exposure.FindInterfaceAt"
	KeyExposureShellLaserPower   = "Exposure.ShellLaserPower"
	KeyExposureShellScanSpeed    = "Exposure.ShellScanSpeed"
	KeyExposureCoreLaserPower    = "Exposure.CoreLaserPower"
	KeyExposureCoreScanSpeed     = "Exposure.CoreScanSpeed"
)

// Supported values for Output.ScanMode.
const (
	ScanModeGalvo = "Galvo"
	ScanModePiezo = "Piezo"
)

// Type identifies the declared type of a recipe entry.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	}
	return "unknown"
}

// Value is one typed recipe entry.
type Value struct {
	Type  Type
	Str   string
	Int   int
	Float float64
	Bool  bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }

// IntValue returns an integer Value.
func IntValue(i int) Value { return Value{Type: TypeInt, Int: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Float: f} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{Type: TypeBool, Bool: b} }

// String renders the value the way a recipe file stores it: bools as
// True/False, floats in shortest decimal form with a trailing .0 when
// the value is integral.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.Itoa(v.Int)
	case TypeFloat:
		return formatFloat(v.Float)
	case TypeBool:
		if v.Bool {
			return "True"
		}
		return "False"
	default:
		return v.Str
	}
}

// AsFloat widens an int entry to float64. Float entries return their
// value, other types 0.
func (v Value) AsFloat() float64 {
	switch v.Type {
	case TypeInt:
		return float64(v.Int)
	case TypeFloat:
		return v.Float
	}
	return 0
}

type field struct {
	key string
	def Value
}

// fields lists the canonical entries in file order. The defaults
// mirror the DeScribe default recipe; each entry's type is fixed by
// its default.
var fields = []field{
	{KeyVersion, FloatValue(1.3)},
	{KeyModelType, StringValue("Mesh")},
	{KeyModelFilePath, StringValue("")},
	{KeyModelTransformation, StringValue(
		"[M11:1 M12:0 M13:0 M14:0] " +
			"[M21:0 M22:1 M23:0 M24:0] " +
			"[M31:0 M32:0 M33:1 M34:0] " +
			"[M41:0 M42:0 M43:0 M44:1]")},
	{KeyModelBoundingBox, StringValue("Minimum:X:0 Y:0 Z:0 Maximum:X:0 Y:0 Z:0")},
	{KeyModelRotation, StringValue("X:0 Y:0 Z:0 W:1")},
	{KeyModelScaling, StringValue("X:1 Y:1 Z:1")},
	{KeyModelTranslation, StringValue("X:0 Y:0 Z:0")},
	{KeySlicingMode, StringValue("Fixed")},
	{KeySlicingDistanceMax, FloatValue(0.1)},
	{KeySlicingSimplificationTolerance, IntValue(0)},
	{KeySlicingFixSelfIntersections, BoolValue(true)},
	{KeyFillingMode, StringValue("Solid")},
	{KeyFillingSolidContourCount, IntValue(2)},
	{KeyFillingSolidContourDistance, FloatValue(0.1)},
	{KeyFillingConcaveCornerMode, StringValue("Sharp")},
	{KeyFillingHatchingDistance, FloatValue(0.1)},
	{KeyFillingHatchingAngle, IntValue(0)},
	{KeyFillingHatchingAngleOffset, IntValue(30)},
	{KeySplittingMode, StringValue("None")},
	{KeySplittingBlockSize, StringValue("X:100 Y:100 Z:10")},
	{KeySplittingBlockOffset, StringValue("X:0 Y:0 Z:0")},
	{KeySplittingBlockShearAngle, IntValue(0)},
	{KeySplittingBlockOverlap, IntValue(0)},
	{KeySplittingLayerOverlap, IntValue(0)},
	{KeySplittingBlockWidth, StringValue("X:100.00 Y:100.0 Z:10")},
	{KeySplittingBlockOrderMode, StringValue("Meander")},
	{KeySplittingAvoidFlyingBlocks, BoolValue(true)},
	{KeySplittingGroupBlocks, BoolValue(false)},
	{KeySplittingUseBacklashCorrection, BoolValue(true)},
	{KeyOutputScanMode, StringValue(ScanModeGalvo)},
	{KeyOutputZAxis, StringValue("Piezo")},
	{KeyOutputExposure, StringValue("Variable")},
	{KeyOutputInvertZAxis, BoolValue(true)},
	{KeyOutputWritingDirection, StringValue("Up")},
	{KeyOutputHatchLineMode, StringValue("Alternate")},
	{KeyExposureGalvoAcceleration, IntValue(1)},
	{KeyExposureFindInterfaceAt, FloatValue(0.5)},
	{KeyExposureShellLaserPower, IntValue(36)},
	{KeyExposureShellScanSpeed, IntValue(20000)},
	{KeyExposureCoreLaserPower, IntValue(40)},
	{KeyExposureCoreScanSpeed, IntValue(20000)},
}

var fieldIndex = make(map[string]int, len(fields))

func init() {
	for i, f := range fields {
		if _, ok := fieldIndex[f.key]; ok {
			panic("recipe: duplicate key " + f.key)
		}
		fieldIndex[f.key] = i
	}
}

// Keys returns the canonical key names in file order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// IsKey reports whether key is a canonical recipe key.
func IsKey(key string) bool {
	_, ok := fieldIndex[key]
	return ok
}

// Recipe is one parameter set for the slicer. The zero value is not
// usable; construct with New, Parse or Load.
type Recipe struct {
	values []Value
}

// New returns a recipe holding the DeScribe defaults.
func New() *Recipe {
	r := &Recipe{values: make([]Value, len(fields))}
	for i, f := range fields {
		r.values[i] = f.def
	}
	return r
}

// Clone returns an independent copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	return &Recipe{values: slices.Clone(r.values)}
}

// Set casts raw to the declared type of key and stores it. Unknown
// keys and failed casts return an INVALID_RECIPE error naming the
// key.
func (r *Recipe) Set(key, raw string) error {
	i, ok := fieldIndex[key]
	if !ok {
		return errors.New(errors.ErrCodeInvalidRecipe, "unknown recipe key %q", key)
	}
	v, err := cast(fields[i].def.Type, raw)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidRecipe, "recipe key %s: %v", key, err)
	}
	r.values[i] = v
	return nil
}

// Get returns the value stored under key.
func (r *Recipe) Get(key string) (Value, error) {
	i, ok := fieldIndex[key]
	if !ok {
		return Value{}, errors.New(errors.ErrCodeInvalidRecipe, "unknown recipe key %q", key)
	}
	return r.values[i], nil
}

// Text returns a string entry. It panics when key is not canonical or
// not declared as a string.
func (r *Recipe) Text(key string) string { return r.mustGet(key, TypeString).Str }

// Int returns an integer entry. It panics when key is not canonical
// or not declared as an int.
func (r *Recipe) Int(key string) int { return r.mustGet(key, TypeInt).Int }

// Bool returns a boolean entry. It panics when key is not canonical
// or not declared as a bool.
func (r *Recipe) Bool(key string) bool { return r.mustGet(key, TypeBool).Bool }

// Float returns a numeric entry widened to float64. It panics when
// key is not canonical or not numeric.
func (r *Recipe) Float(key string) float64 {
	i, ok := fieldIndex[key]
	if !ok {
		panic("recipe: unknown key " + key)
	}
	v := r.values[i]
	if v.Type != TypeInt && v.Type != TypeFloat {
		panic(fmt.Sprintf("recipe: key %s is %s, not numeric", key, v.Type))
	}
	return v.AsFloat()
}

func (r *Recipe) mustGet(key string, typ Type) Value {
	i, ok := fieldIndex[key]
	if !ok {
		panic("recipe: unknown key " + key)
	}
	v := r.values[i]
	if v.Type != typ {
		panic(fmt.Sprintf("recipe: key %s is %s, not %s", key, v.Type, typ))
	}
	return v
}

func (r *Recipe) setString(key, s string) {
	r.values[fieldIndex[key]] = StringValue(s)
}

// ScanMode returns the configured scan mode after validating it is
// one of Galvo or Piezo.
func (r *Recipe) ScanMode() (string, error) {
	mode := r.Text(KeyOutputScanMode)
	switch mode {
	case ScanModeGalvo, ScanModePiezo:
		return mode, nil
	}
	return "", errors.New(errors.ErrCodeInvalidRecipe,
		"unsupported scan mode %q, expected %s or %s", mode, ScanModeGalvo, ScanModePiezo)
}

// Stamp fills the Model entries for one mesh placement: the mesh path
// and bounding box, and the placement transform split into the
// matrix, quaternion and scaling forms DeScribe expects. The matrix
// carries no translation; stage moves handle positioning. All floats
// are written with three decimals.
func (r *Recipe) Stamp(stlPath string, min, max [3]float64, t transform.Transform) {
	r.setString(KeyModelType, "Mesh")
	r.setString(KeyModelFilePath, stlPath)
	r.setString(KeyModelBoundingBox, fmt.Sprintf(
		"Minimum:X:%.3f Y:%.3f Z:%.3f Maximum:X:%.3f Y:%.3f Z:%.3f",
		min[0], min[1], min[2], max[0], max[1], max[2]))

	m := t.Matrix(false)
	r.setString(KeyModelTransformation, fmt.Sprintf(
		"[M11:%.3f M12:%.3f M13:%.3f M14:%.3f] "+
			"[M21:%.3f M22:%.3f M23:%.3f M24:%.3f] "+
			"[M31:%.3f M32:%.3f M33:%.3f M34:%.3f] "+
			"[M41:%.3f M42:%.3f M43:%.3f M44:%.3f]",
		m[0][0], m[0][1], m[0][2], m[0][3],
		m[1][0], m[1][1], m[1][2], m[1][3],
		m[2][0], m[2][1], m[2][2], m[2][3],
		m[3][0], m[3][1], m[3][2], m[3][3]))

	q := t.Quaternion()
	r.setString(KeyModelRotation, fmt.Sprintf("X:%.3f Y:%.3f Z:%.3f W:%.3f", q.X, q.Y, q.Z, q.W))
	s := t.Magnification
	r.setString(KeyModelScaling, fmt.Sprintf("X:%.3f Y:%.3f Z:%.3f", s, s, s))
	r.setString(KeyModelTranslation, "X:0 Y:0 Z:0")
}

// BoundingBox parses the Model.BoundingBox entry back into min and
// max corners. Truncated or malformed entries are INVALID_RECIPE
// errors.
func (r *Recipe) BoundingBox() (min, max [3]float64, err error) {
	raw := r.Text(KeyModelBoundingBox)
	var coords []float64
	for _, tok := range strings.FieldsFunc(raw, func(c rune) bool { return c == ':' || c == ' ' }) {
		switch tok {
		case "Minimum", "Maximum", "X", "Y", "Z":
			continue
		}
		f, perr := strconv.ParseFloat(tok, 64)
		if perr != nil {
			return min, max, errors.New(errors.ErrCodeInvalidRecipe,
				"bounding box %q: bad coordinate %q", raw, tok)
		}
		coords = append(coords, f)
	}
	if len(coords) != 6 {
		return min, max, errors.New(errors.ErrCodeInvalidRecipe,
			"bounding box %q: want 6 coordinates, got %d", raw, len(coords))
	}
	min = [3]float64{coords[0], coords[1], coords[2]}
	max = [3]float64{coords[3], coords[4], coords[5]}
	return min, max, nil
}

// Equal reports whether two recipes hold identical values for every
// entry. Equality is the slicer memoization key: equal recipes share
// one DeScribe invocation.
func (r *Recipe) Equal(other *Recipe) bool {
	if other == nil {
		return false
	}
	return slices.Equal(r.values, other.values)
}

// Fingerprint returns a stable hex digest of the rendered recipe,
// usable as a cache key. Equal recipes share a fingerprint.
func (r *Recipe) Fingerprint() string {
	var b strings.Builder
	_ = r.Write(&b)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Write renders the recipe in slicer file form, one "key = value "
// line per entry. The trailing space before each newline matches the
// files DeScribe itself writes.
func (r *Recipe) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, f := range fields {
		fmt.Fprintf(bw, "%s = %s \n", f.key, r.values[i])
	}
	return bw.Flush()
}

// WriteFile writes the recipe to path, creating or truncating it.
func (r *Recipe) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create recipe file %s", path)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write recipe file %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write recipe file %s", path)
	}
	return nil
}

// Parse reads a flat "key = value" recipe stream. Parsed values
// overlay the defaults; blank lines are skipped. Unknown keys,
// missing separators and failed casts are reported with their line
// number.
func Parse(rd io.Reader) (*Recipe, error) {
	r := New()
	sc := bufio.NewScanner(rd)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		key, val, ok := strings.Cut(text, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidRecipe, "line %d: missing '=' in %q", line, text)
		}
		if err := r.Set(strings.TrimSpace(key), strings.TrimSpace(val)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "line %d", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "read recipe")
	}
	return r, nil
}

// Load reads a recipe file from path.
func Load(path string) (*Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open recipe %s", path)
	}
	defer f.Close()
	r, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "recipe %s", path)
	}
	return r, nil
}

func cast(typ Type, raw string) (Value, error) {
	switch typ {
	case TypeInt:
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("cannot cast %q to int", raw)
		}
		return IntValue(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot cast %q to float", raw)
		}
		return FloatValue(f), nil
	case TypeBool:
		b, err := parseBool(raw)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	default:
		return StringValue(raw), nil
	}
}

// parseBool converts recipe text to a bool. Accepted tokens are
// "1"/"true" and "0"/"false", case-insensitive.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("cannot cast %q to bool", raw)
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
