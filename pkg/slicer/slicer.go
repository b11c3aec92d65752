// Package slicer drives the DeScribe slicer and collects the artifact
// set it leaves behind.
//
// DeScribe is invoked once per distinct recipe value. Its exit code is
// not a reliable success signal, so the contract is the artifact set:
// after a run, the data GWL, job GWL, job recipe and files directory
// must all exist next to the recipe. The data GWL is what the print
// job includes.
package slicer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/recipe"
	"github.com/nanofab/descript/pkg/stl"
)

// Artifacts names the outputs of one DeScribe run.
type Artifacts struct {
	// Dir is the <recipe stem>_output directory holding the rest.
	Dir string
	// DataGWL is the writing-data script the print job includes.
	DataGWL string
	// JobGWL is DeScribe's own single-mesh job script.
	JobGWL string
	// JobRecipe is the recipe echo DeScribe writes back.
	JobRecipe string
	// FilesDir holds DeScribe's auxiliary output files.
	FilesDir string
}

// Runner abstracts the slicer invocation for the memo layer.
type Runner interface {
	Run(ctx context.Context, rcp *recipe.Recipe, recipePath string) (Artifacts, error)
}

// Slicer invokes the DeScribe executable.
type Slicer struct {
	// Path is the DeScribe executable.
	Path string
	// Logger receives invocation logs. Nil uses the default logger.
	Logger *log.Logger
}

// Run writes rcp to recipePath, invokes DeScribe on it and verifies
// the artifact set. The path must end in .recipe or carry no
// extension, in which case .recipe is appended.
func (s *Slicer) Run(ctx context.Context, rcp *recipe.Recipe, recipePath string) (Artifacts, error) {
	logger := s.logger()

	if fi, err := os.Stat(recipePath); err == nil && fi.IsDir() {
		return Artifacts{}, errors.New(errors.ErrCodeInvalidInput,
			"expected a recipe file name, got a directory: %s", recipePath)
	}
	switch ext := filepath.Ext(recipePath); ext {
	case "":
		recipePath += ".recipe"
	case ".recipe":
	default:
		return Artifacts{}, errors.New(errors.ErrCodeInvalidInput,
			"recipe path wants a .recipe or no extension, got %q", ext)
	}

	meshPath := rcp.Text(recipe.KeyModelFilePath)
	if meshPath == "" {
		return Artifacts{}, errors.New(errors.ErrCodeInvalidRecipe,
			"recipe carries no Model.FilePath, stamp a mesh first")
	}

	if _, err := os.Stat(recipePath); err == nil {
		logger.Debug("overwriting existing recipe", "path", recipePath)
	}
	if err := os.MkdirAll(filepath.Dir(recipePath), 0o755); err != nil {
		return Artifacts{}, errors.Wrap(errors.ErrCodeInternal, err, "create recipe directory")
	}
	if err := rcp.WriteFile(recipePath); err != nil {
		return Artifacts{}, err
	}

	cmd := exec.CommandContext(ctx, s.Path, "-p", recipePath)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	logger.Debug("running slicer", "slicer", s.Path, "recipe", recipePath)
	start := time.Now()
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Artifacts{}, errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "slicing canceled")
	}
	if runErr != nil {
		// DeScribe exit codes are unreliable. The artifact check
		// below is the real success signal.
		logger.Debug("slicer exited abnormally", "err", runErr)
	}

	arts := artifactPaths(recipePath, stl.Stem(meshPath))
	if missing := missingArtifacts(arts); len(missing) > 0 {
		msg := "slicer left an incomplete artifact set (missing %s); expected files %s, %s, %s and directory %s"
		args := []any{strings.Join(missing, ", "), arts.DataGWL, arts.JobGWL, arts.JobRecipe, arts.FilesDir}
		if out := tail(output.String(), 400); out != "" {
			msg += "; slicer output: %s"
			args = append(args, out)
		}
		return Artifacts{}, errors.New(errors.ErrCodeSlicer, msg, args...)
	}

	logger.Debug("slicing done", "recipe", recipePath, "duration", time.Since(start))
	return arts, nil
}

func (s *Slicer) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// artifactPaths derives the expected artifact locations for a recipe.
// DeScribe writes into <recipe stem>_output next to the recipe, naming
// files after the mesh stem.
func artifactPaths(recipePath, meshStem string) Artifacts {
	base := strings.TrimSuffix(filepath.Base(recipePath), ".recipe")
	dir := filepath.Join(filepath.Dir(recipePath), base+"_output")
	return Artifacts{
		Dir:       dir,
		DataGWL:   filepath.Join(dir, meshStem+"_data.gwl"),
		JobGWL:    filepath.Join(dir, meshStem+"_job.gwl"),
		JobRecipe: filepath.Join(dir, meshStem+"_job.recipe"),
		FilesDir:  filepath.Join(dir, meshStem+"_files"),
	}
}

// missingArtifacts reports which artifacts are absent or of the wrong
// kind (a directory where a file belongs, or the other way around).
func missingArtifacts(a Artifacts) []string {
	var missing []string
	for _, p := range []string{a.DataGWL, a.JobGWL, a.JobRecipe} {
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			missing = append(missing, p)
		}
	}
	if fi, err := os.Stat(a.FilesDir); err != nil || !fi.IsDir() {
		missing = append(missing, a.FilesDir)
	}
	return missing
}

// tail returns the last at most n bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

var _ Runner = (*Slicer)(nil)
