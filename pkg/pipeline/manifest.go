package pipeline

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nanofab/descript/pkg/errors"
)

// Manifest records one compilation run next to its outputs. The preview
// server reads it to describe a run without re-running the pipeline.
type Manifest struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Layout     string `json:"layout"`
	LayoutHash string `json:"layout_hash,omitempty"`
	Library    string `json:"library"`
	Topcell    string `json:"topcell"`
	Matcher    string `json:"matcher"`
	Recipe     string `json:"recipe,omitempty"` // base recipe file, "" when defaults were used

	// JobFile is the job script name relative to the run directory.
	JobFile string `json:"job_file"`

	Targets []ManifestTarget `json:"targets"`
	Stats   Stats            `json:"stats"`
}

// ManifestTarget is one print zone as recorded in the manifest. Positions
// are in layout units, rotation in degrees for readability.
type ManifestTarget struct {
	Cell          string  `json:"cell"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	RotationDeg   float64 `json:"rotation_deg"`
	Magnification float64 `json:"magnification"`
	Mirror        bool    `json:"mirror,omitempty"`
	Mesh          string  `json:"mesh,omitempty"`
	RecipeHash    string  `json:"recipe_hash,omitempty"`
	// Include is the sliced data fragment relative to the run directory.
	Include string `json:"include,omitempty"`
}

// buildManifest assembles the manifest for a completed (non dry) run.
func buildManifest(opts Options, res Resolution, result *Result) Manifest {
	m := Manifest{
		RunID:      result.RunID,
		CreatedAt:  time.Now().UTC(),
		Layout:     opts.LayoutPath,
		LayoutHash: res.LayoutHash,
		Library:    res.Library,
		Topcell:    res.Topcell,
		Matcher:    strings.ToLower(opts.Matcher),
		Recipe:     opts.RecipePath,
		JobFile:    filepath.Base(result.JobPath),
		Targets:    make([]ManifestTarget, 0, len(result.Targets)),
		Stats:      result.Stats,
	}
	for _, p := range result.Targets {
		target := ManifestTarget{
			Cell:          p.Cell,
			X:             p.Transform.Origin.X,
			Y:             p.Transform.Origin.Y,
			RotationDeg:   p.Transform.Rotation * 180 / math.Pi,
			Magnification: p.Transform.Magnification,
			Mirror:        p.Transform.XReflection,
			Mesh:          p.Mesh,
			Include:       relTo(opts.OutDir, p.Include),
		}
		if p.Recipe != nil {
			target.RecipeHash = p.Recipe.Fingerprint()
		}
		m.Targets = append(m.Targets, target)
	}
	return m
}

// relTo shortens path relative to dir when it lies inside it, so the
// manifest stays valid if the run directory moves.
func relTo(dir, path string) string {
	if dir == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// WriteManifest writes the manifest as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write manifest %s", path)
	}
	return nil
}

// ReadManifest loads a run manifest from path.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeNotFound, err, "read manifest %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse manifest %s", path)
	}
	return m, nil
}
