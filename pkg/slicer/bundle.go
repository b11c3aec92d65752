package slicer

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
)

// Bundles are the cross-run cache payload: one zip holding the recipe
// and the artifact directory under canonical names ("recipe" and
// "output/..."), so a bundle sliced as recipe #3 of one run can be
// restored as recipe #1 of another.

// packArtifacts zips the recipe file and artifact directory into a
// relocatable blob.
func packArtifacts(recipePath string, arts Artifacts) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := packFile(zw, "recipe", recipePath); err != nil {
		return nil, err
	}

	err := filepath.WalkDir(arts.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(arts.Dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := path.Join("output", filepath.ToSlash(rel))
		if d.IsDir() {
			// Explicit dir entries keep empty directories, the
			// files dir is often one.
			_, err := zw.Create(name + "/")
			return err
		}
		return packFile(zw, name, p)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "pack artifacts %s", arts.Dir)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "pack artifacts %s", arts.Dir)
	}
	return buf.Bytes(), nil
}

func packFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// unpackArtifacts restores a packed blob into recipeDir under the
// given recipe base name and verifies the restored artifact set.
func unpackArtifacts(blob []byte, recipeDir, base, meshStem string) (Artifacts, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return Artifacts{}, errors.Wrap(errors.ErrCodeCache, err, "read artifact bundle")
	}

	recipePath := filepath.Join(recipeDir, base+".recipe")
	outDir := filepath.Join(recipeDir, base+"_output")

	for _, f := range zr.File {
		dst, err := bundlePath(f.Name, recipePath, outDir)
		if err != nil {
			return Artifacts{}, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return Artifacts{}, errors.Wrap(errors.ErrCodeCache, err, "restore %s", f.Name)
			}
			continue
		}
		if err := unpackFile(f, dst); err != nil {
			return Artifacts{}, errors.Wrap(errors.ErrCodeCache, err, "restore %s", f.Name)
		}
	}

	arts := artifactPaths(recipePath, meshStem)
	if missing := missingArtifacts(arts); len(missing) > 0 {
		return Artifacts{}, errors.New(errors.ErrCodeCache,
			"artifact bundle is incomplete, missing %s", strings.Join(missing, ", "))
	}
	return arts, nil
}

// bundlePath maps a canonical zip entry name to its on-disk location,
// rejecting names that would escape the target directories.
func bundlePath(name, recipePath, outDir string) (string, error) {
	clean := path.Clean(name)
	if clean == "recipe" {
		return recipePath, nil
	}
	rest, ok := strings.CutPrefix(clean, "output/")
	if !ok || rest == ".." || strings.HasPrefix(rest, "../") || path.IsAbs(rest) {
		return "", errors.New(errors.ErrCodeCache, "artifact bundle has unexpected entry %q", name)
	}
	return filepath.Join(outDir, filepath.FromSlash(rest)), nil
}

func unpackFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
