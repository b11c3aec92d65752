package errors

import (
	"testing"
)

func TestValidateJobName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty means derived", "", false},
		{"simple", "chip_job.gwl", false},
		{"with dash", "run-3.gwl", false},
		{"with dot", "chip.v2.gwl", false},

		{"too long", string(make([]byte, 200)) + ".gwl", true},
		{"missing suffix", "chip_job", true},
		{"wrong suffix", "chip_job.recipe", true},
		{"path separator", "out/chip_job.gwl", true},
		{"backslash", `out\chip_job.gwl`, true},
		{"traversal", "../chip_job.gwl", true},
		{"control char", "chip\x01.gwl", true},
		{"newline", "chip\n.gwl", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJobName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJobName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateJobName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateRunRelPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "chip_job.gwl", false},
		{"valid nested", "1_pillar/1_pillar.recipe", false},
		{"valid with dots", "chip.v2_job.gwl", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunRelPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunRelPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateRunRelPath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidRecipe,
		ErrCodeNotFound,
		ErrCodeNoTargets,
		ErrCodeResolution,
		ErrCodeParse,
		ErrCodeSlicer,
		ErrCodeCache,
		ErrCodeInternal,
		ErrCodeCanceled,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
