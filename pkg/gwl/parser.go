package gwl

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
)

// Parser converts GWL text lines into instructions.
//
// Matching walks the keyword table longest keyword first and requires a word
// boundary after the keyword, so "PerfectShape 2" and "PerfectShapeOff"
// resolve to different kinds. A line whose keyword matches but whose
// argument is malformed is always a parse error; AllowUnknown only governs
// lines that match no keyword at all.
type Parser struct {
	// AllowUnknown preserves unmatched lines verbatim instead of failing.
	AllowUnknown bool
}

// Parse converts a single line (without trailing line break) into an
// instruction.
func (p Parser) Parse(line string) (Instruction, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return Empty(), nil
	}
	if strings.HasPrefix(s, CommentChar) {
		return Comment(strings.TrimPrefix(strings.TrimPrefix(s, CommentChar), " ")), nil
	}

	for _, kind := range matchOrder {
		keyword := specs[kind].Keyword
		if !matchKeyword(s, keyword) {
			continue
		}
		return decode(kind, strings.TrimSpace(s[len(keyword):]))
	}

	if p.AllowUnknown {
		return Unknown(line), nil
	}
	return Instruction{}, errors.New(errors.ErrCodeParse, "unrecognized instruction %q", line)
}

// ParseAll reads a whole document, one instruction per line. Errors carry
// the one-based line number and the offending text.
func (p Parser) ParseAll(r io.Reader) (*Document, error) {
	doc := NewDocument()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		in, err := p.Parse(scanner.Text())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "line %d", lineno)
		}
		doc.Append(in)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "reading document")
	}
	return doc, nil
}

// decode parses the text after a matched keyword according to the kind's
// argument shape.
func decode(kind Kind, rest string) (Instruction, error) {
	spec := specs[kind]
	if spec.decode != nil {
		return spec.decode(kind, rest)
	}

	switch spec.Arg {
	case ArgNone:
		if rest != "" {
			return Instruction{}, errors.New(errors.ErrCodeParse,
				"%s takes no argument, got %q", spec.Keyword, rest)
		}
		return Instruction{Kind: kind}, nil

	case ArgInt:
		v, err := strconv.Atoi(rest)
		if err != nil {
			return Instruction{}, errors.New(errors.ErrCodeParse,
				"%s expects an integer, got %q", spec.Keyword, rest)
		}
		return Int(kind, v), nil

	case ArgFloat:
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return Instruction{}, errors.New(errors.ErrCodeParse,
				"%s expects a number, got %q", spec.Keyword, rest)
		}
		return Float(kind, v), nil

	case ArgRaw:
		// An empty payload is tolerated: bare "if" or "PsLoadPowerProfiles"
		// lines carry the keyword alone.
		return Text(kind, rest), nil

	case ArgQuoted:
		if len(rest) < 2 || !strings.HasPrefix(rest, `"`) || !strings.HasSuffix(rest, `"`) {
			return Instruction{}, errors.New(errors.ErrCodeParse,
				"%s expects a double-quoted string, got %q", spec.Keyword, rest)
		}
		return Text(kind, rest[1:len(rest)-1]), nil

	case ArgVarName:
		if err := CheckVarName(rest); err != nil {
			return Instruction{}, errors.Wrap(errors.ErrCodeParse, err,
				"%s expects a variable name", spec.Keyword)
		}
		return Text(kind, rest), nil
	}

	return Instruction{}, errors.New(errors.ErrCodeInternal,
		"kind %s has no decoder", kind)
}

// decodeInclude parses an include path: optional surrounding quotes are
// stripped, the path must reference a .gwl or .gwlb file.
func decodeInclude(kind Kind, rest string) (Instruction, error) {
	path := strings.Trim(rest, " '\"\t")
	if path == "" {
		return Instruction{}, errors.New(errors.ErrCodeParse, "include expects a file path")
	}
	if err := checkIncludePath(path); err != nil {
		return Instruction{}, errors.Wrap(errors.ErrCodeParse, err, "include")
	}
	return Instruction{Kind: kind, Text: path}, nil
}

// decodeAssign parses "$name = value" for the var, local and set kinds.
func decodeAssign(kind Kind, rest string) (Instruction, error) {
	name, valstr, found := strings.Cut(rest, "=")
	if !found {
		return Instruction{}, errors.New(errors.ErrCodeParse,
			"%s expects \"$name = value\", got %q", specs[kind].Keyword, rest)
	}
	name = strings.TrimSpace(name)
	valstr = strings.TrimSpace(valstr)

	if err := CheckVarName(name); err != nil {
		return Instruction{}, errors.Wrap(errors.ErrCodeParse, err,
			"%s variable name", specs[kind].Keyword)
	}
	if valstr == "" {
		return Instruction{}, errors.New(errors.ErrCodeParse,
			"%s %s has no value", specs[kind].Keyword, name)
	}

	return Instruction{Kind: kind, Name: name, Value: ParseValue(valstr)}, nil
}
