package gwl

import (
	"strings"
	"testing"

	"github.com/nanofab/descript/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Instruction
	}{
		{name: "no argument", line: "GalvoScanMode", want: New(KindGalvoScanMode)},
		{name: "integer", line: "InvertZAxis 1", want: Int(KindInvertZAxis, 1)},
		{name: "float", line: "MoveStageX -40.0", want: Float(KindMoveStageX, -40)},
		{name: "float without decimal", line: "ScanSpeed 20000", want: Float(KindScanSpeed, 20000)},
		{name: "tab separator", line: "LaserPower\t75.0", want: Float(KindLaserPower, 75)},
		{name: "surrounding whitespace", line: "  Write  ", want: New(KindWrite)},
		{name: "comment", line: "% a note", want: Comment("a note")},
		{name: "comment no space", line: "%note", want: Comment("note")},
		{name: "blank", line: "", want: Empty()},
		{name: "whitespace only", line: "   \t ", want: Empty()},
		{name: "quoted", line: `MessageOut "done"`, want: Text(KindMessageOut, "done")},
		{name: "quoted embedded quote", line: `MessageOut "say "hi""`, want: Text(KindMessageOut, `say "hi"`)},
		{name: "quoted backslash kept verbatim", line: `WriteText "C:\jobs"`, want: Text(KindWriteText, `C:\jobs`)},
		{name: "variable reference", line: "ShowVar $i", want: Text(KindShowVar, "$i")},
		{name: "if condition", line: "if $i <= 10", want: Text(KindIf, "$i <= 10")},
		{name: "bare raw keyword", line: "PsLoadPowerProfiles", want: Text(KindPsLoadPowerProfiles, "")},
		{name: "assignment", line: "var $i = 5", want: Instruction{Kind: KindVar, Name: "$i", Value: IntValue(5)}},
		{name: "assignment tight", line: "set $i=2.5", want: Instruction{Kind: KindSet, Name: "$i", Value: FloatValue(2.5)}},
		{name: "include", line: "include parts/cross.gwl", want: Instruction{Kind: KindInclude, Text: "parts/cross.gwl"}},
		{name: "include quoted path", line: `include "cross.gwl"`, want: Instruction{Kind: KindInclude, Text: "cross.gwl"}},
	}

	p := Parser{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseWordBoundary(t *testing.T) {
	// A keyword must not swallow lines belonging to a longer keyword.
	tests := []struct {
		line string
		want Kind
	}{
		{line: "PerfectShape 3", want: KindPerfectShape},
		{line: "PerfectShapeOff", want: KindPerfectShapeOff},
		{line: "PerfectShapeQuality", want: KindPerfectShapeQuality},
		{line: "PowerValues", want: KindPowerValues},
		{line: "PowerValuesOn", want: KindPowerValuesOn},
		{line: "Write", want: KindWrite},
		{line: `WriteText "a"`, want: KindWriteText},
		{line: "Acceleration 2.0", want: KindAcceleration},
		{line: "AccelerationTime 3.0", want: KindAccelerationTime},
		{line: "end", want: KindEnd},
		{line: "else", want: KindElse},
	}

	p := Parser{}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := p.Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.line, err)
			}
			if got.Kind != tt.want {
				t.Errorf("Parse(%q).Kind = %s, want %s", tt.line, got.Kind, tt.want)
			}
		})
	}
}

func TestParseUnknown(t *testing.T) {
	t.Run("tolerated", func(t *testing.T) {
		p := Parser{AllowUnknown: true}
		got, err := p.Parse("FrobnicateLaser 3")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got.Kind != KindUnknown || got.Text != "FrobnicateLaser 3" {
			t.Errorf("Parse() = %#v, want verbatim unknown", got)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		p := Parser{}
		_, err := p.Parse("FrobnicateLaser 3")
		if err == nil {
			t.Fatal("Parse() error = nil, want parse error")
		}
		if !errors.Is(err, errors.ErrCodeParse) {
			t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeParse)
		}
		if !strings.Contains(err.Error(), "FrobnicateLaser 3") {
			t.Errorf("error %q does not carry the offending line", err)
		}
	})

	t.Run("keywords are case sensitive", func(t *testing.T) {
		p := Parser{AllowUnknown: true}
		got, err := p.Parse("scanspeed 100")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got.Kind != KindUnknown {
			t.Errorf("Parse(\"scanspeed 100\").Kind = %s, want %s", got.Kind, KindUnknown)
		}
	})
}

func TestParseMalformedArgument(t *testing.T) {
	// A matched keyword with a bad payload fails even when unknown lines
	// are tolerated.
	tests := []struct {
		name string
		line string
	}{
		{name: "integer garbage", line: "UpdateRate fast"},
		{name: "float garbage", line: "ScanSpeed fast"},
		{name: "trailing text on no-argument kind", line: "Write now"},
		{name: "missing quotes", line: "MessageOut done"},
		{name: "half quoted", line: `MessageOut "done`},
		{name: "assignment without equals", line: "var $i 5"},
		{name: "assignment without value", line: "var $i ="},
		{name: "assignment bad name", line: "var i = 5"},
		{name: "include wrong extension", line: "include cross.stl"},
		{name: "include empty", line: "include"},
		{name: "variable reference bad name", line: "ShowVar count"},
	}

	p := Parser{AllowUnknown: true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.line)
			if err == nil {
				t.Fatalf("Parse(%q) error = nil, want parse error", tt.line)
			}
			if !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeParse)
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	text := strings.Join([]string{
		"% job header",
		"InvertZAxis 0",
		"",
		"GalvoScanMode",
		"ScanSpeed 20000.0",
		"include zone/cross.gwl",
	}, "\n")

	doc, err := Parser{}.ParseAll(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseAll() error = %v", err)
	}
	if doc.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", doc.Len())
	}

	wantKinds := []Kind{KindComment, KindInvertZAxis, KindEmpty, KindGalvoScanMode, KindScanSpeed, KindInclude}
	for i, want := range wantKinds {
		if got := doc.At(i).Kind; got != want {
			t.Errorf("At(%d).Kind = %s, want %s", i, got, want)
		}
	}

	// Rendering the parsed document reproduces the input.
	if got := strings.TrimSuffix(doc.String(), "\n"); got != text {
		t.Errorf("round trip = %q, want %q", got, text)
	}
}

func TestParseAllLineNumbers(t *testing.T) {
	text := "GalvoScanMode\nUpdateRate fast\n"

	_, err := Parser{AllowUnknown: true}.ParseAll(strings.NewReader(text))
	if err == nil {
		t.Fatal("ParseAll() error = nil, want parse error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not carry the line number", err)
	}
}
