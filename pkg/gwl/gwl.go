// Package gwl models the line-oriented GWL machine-control language used by
// Nanoscribe printers.
//
// Every instruction kind in the catalog declares a canonical keyword, an
// argument shape and a default payload. The catalog is closed: it is built
// at static initialization, validated once (duplicate keywords, prefix
// shadowing, multi-field kinds without custom decoders all panic at init)
// and never extended at runtime.
//
// # Instructions
//
// Instruction is a value type; equality is field-wise. Construct known kinds
// with the helpers and render them with String:
//
//	gwl.Float(gwl.KindScanSpeed, 20000).String()   // "ScanSpeed 20000.0"
//	gwl.New(gwl.KindGalvoScanMode).String()        // "GalvoScanMode"
//	gwl.Comment("hello").String()                  // "% hello"
//
// # Parsing
//
// Parser turns text lines back into instructions. For every catalog kind the
// round trip Parse(in.String()) == in holds; comment and unknown lines keep
// their text verbatim instead.
package gwl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
)

// CommentChar marks comment lines.
const CommentChar = "%"

// Arg describes the argument shape of an instruction kind.
type Arg int

const (
	// ArgNone takes no argument.
	ArgNone Arg = iota
	// ArgInt takes a single integer.
	ArgInt
	// ArgFloat takes a single decimal number.
	ArgFloat
	// ArgRaw takes free text (conditions, loop headers, profile names).
	ArgRaw
	// ArgQuoted takes a double-quoted string.
	ArgQuoted
	// ArgVarName takes a $-prefixed variable reference.
	ArgVarName
	// ArgPath takes a GWL file path (include).
	ArgPath
	// ArgAssign takes a variable name and a typed value (var, local, set).
	ArgAssign
)

// Spec describes one instruction kind in the catalog: its keyword, argument
// shape, default payload and, for multi-field kinds, a custom decoder.
type Spec struct {
	Keyword  string
	Arg      Arg
	DefInt   int
	DefFloat float64
	DefText  string

	// decode parses the text after the keyword. Installed at init for the
	// ArgPath and ArgAssign kinds; all other shapes use the default
	// single-field cast.
	decode func(kind Kind, rest string) (Instruction, error)
}

// ValueKind discriminates assignment literal types.
type ValueKind int

const (
	// ValueInt is an integer literal.
	ValueInt ValueKind = iota
	// ValueFloat is a decimal literal.
	ValueFloat
	// ValueString is a single-quoted string literal.
	ValueString
)

// Value is a typed literal in a variable assignment. Parsing tries integer
// first, then decimal; everything else is a string. String values render
// single-quoted.
type Value struct {
	Kind  ValueKind
	Int   int
	Float float64
	Str   string
}

// IntValue returns an integer literal.
func IntValue(v int) Value { return Value{Kind: ValueInt, Int: v} }

// FloatValue returns a decimal literal.
func FloatValue(v float64) Value { return Value{Kind: ValueFloat, Float: v} }

// StringValue returns a string literal. The text is stored bare and rendered
// single-quoted.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// String renders the literal in GWL notation.
func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.Itoa(v.Int)
	case ValueFloat:
		return formatFloat(v.Float)
	default:
		return "'" + v.Str + "'"
	}
}

// ParseValue reads an assignment literal: integer, then decimal, then
// string. Single quotes around a string are stripped.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f)
	}
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		s = s[1 : len(s)-1]
	}
	return StringValue(s)
}

// Instruction is one line of a GWL document. Which payload field applies
// depends on the kind's argument shape; unused fields stay zero so that
// instruction equality is plain field equality.
type Instruction struct {
	Kind Kind
	// Int holds the ArgInt payload.
	Int int
	// Float holds the ArgFloat payload.
	Float float64
	// Text holds raw, quoted, variable-name and path payloads, and the
	// verbatim text of comment and unknown lines.
	Text string
	// Name and Value hold assignment payloads (var, local, set).
	Name  string
	Value Value
}

// New returns an instruction of the given kind with its catalog default
// payload.
func New(kind Kind) Instruction {
	spec := specs[kind]
	in := Instruction{Kind: kind}
	switch spec.Arg {
	case ArgInt:
		in.Int = spec.DefInt
	case ArgFloat:
		in.Float = spec.DefFloat
	case ArgRaw, ArgQuoted, ArgVarName, ArgPath:
		in.Text = spec.DefText
	case ArgAssign:
		in.Name = spec.DefText
		in.Value = FloatValue(0)
	}
	return in
}

// Int returns an integer-argument instruction.
func Int(kind Kind, v int) Instruction {
	return Instruction{Kind: kind, Int: v}
}

// Float returns a decimal-argument instruction.
func Float(kind Kind, v float64) Instruction {
	return Instruction{Kind: kind, Float: v}
}

// Text returns a text-argument instruction (raw, quoted or variable-name
// kinds). The payload is stored without surrounding quotes.
func Text(kind Kind, s string) Instruction {
	return Instruction{Kind: kind, Text: s}
}

// Comment returns a comment line. The text is authoritative; it never parses
// into further structure.
func Comment(text string) Instruction {
	return Instruction{Kind: KindComment, Text: text}
}

// Empty returns a blank line.
func Empty() Instruction {
	return Instruction{Kind: KindEmpty}
}

// Unknown returns an unrecognized line preserved verbatim.
func Unknown(line string) Instruction {
	return Instruction{Kind: KindUnknown, Text: line}
}

// Include returns an include directive. The path must reference a .gwl or
// .gwlb file.
func Include(path string) (Instruction, error) {
	if err := checkIncludePath(path); err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: KindInclude, Text: path}, nil
}

// Assign returns a variable assignment for KindVar, KindLocal or KindSet.
// The name must carry the $ sigil followed by word characters.
func Assign(kind Kind, name string, value Value) (Instruction, error) {
	if kind != KindVar && kind != KindLocal && kind != KindSet {
		return Instruction{}, errors.New(errors.ErrCodeInternal,
			"kind %s is not an assignment", kind)
	}
	if err := CheckVarName(name); err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: kind, Name: name, Value: value}, nil
}

var varNameRe = regexp.MustCompile(`^\$\w+$`)

// CheckVarName validates a GWL variable name: a $ sigil followed by
// alphanumeric characters or underscores.
func CheckVarName(name string) error {
	if !strings.HasPrefix(name, "$") {
		return errors.New(errors.ErrCodeInvalidInput,
			"variable name %q must start with $", name)
	}
	if !varNameRe.MatchString(name) {
		return errors.New(errors.ErrCodeInvalidInput,
			"variable name %q may only contain alphanumeric characters and underscores", name)
	}
	return nil
}

func checkIncludePath(path string) error {
	if !strings.HasSuffix(path, ".gwl") && !strings.HasSuffix(path, ".gwlb") {
		return errors.New(errors.ErrCodeInvalidInput,
			"include path %q does not reference a .gwl or .gwlb file", path)
	}
	return nil
}

// String renders the instruction as its canonical GWL line, without a
// trailing line break.
func (in Instruction) String() string {
	spec := specs[in.Kind]
	switch in.Kind {
	case KindInvalid:
		return ""
	case KindUnknown:
		return in.Text
	case KindEmpty:
		return ""
	case KindComment:
		if in.Text == "" {
			return CommentChar
		}
		return CommentChar + " " + in.Text
	}

	switch spec.Arg {
	case ArgNone:
		return spec.Keyword
	case ArgInt:
		return spec.Keyword + " " + strconv.Itoa(in.Int)
	case ArgFloat:
		return spec.Keyword + " " + formatFloat(in.Float)
	case ArgRaw, ArgVarName, ArgPath:
		if in.Text == "" {
			return spec.Keyword
		}
		return spec.Keyword + " " + in.Text
	case ArgQuoted:
		// Plain quotes, not Go escaping: the parser strips the outer
		// quote pair verbatim, so escaped payloads would not round-trip.
		return spec.Keyword + ` "` + in.Text + `"`
	case ArgAssign:
		return fmt.Sprintf("%s %s = %s", spec.Keyword, in.Name, in.Value)
	}
	return spec.Keyword
}

// Keyword returns the canonical keyword of the kind; the comment kind
// reports the comment character, structural kinds report an empty string.
func (k Kind) Keyword() string {
	return specs[k].Keyword
}

// String implements fmt.Stringer for diagnostics: the keyword when one
// exists, a descriptive placeholder otherwise.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "<invalid>"
	case KindUnknown:
		return "<unknown>"
	case KindEmpty:
		return "<empty>"
	}
	return specs[k].Keyword
}

// formatFloat renders a decimal argument. Whole numbers keep a trailing .0
// so that decimal-argument lines stay visually distinct from integer ones.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
