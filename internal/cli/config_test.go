package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nanofab/descript/pkg/errors"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descript.toml")

	c := New(io.Discard, LogInfo)
	c.configPath = path

	cmd := c.configInitCommand()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init should write %s: %v", path, err)
	}

	err := cmd.RunE(cmd, nil)
	if err == nil {
		t.Fatal("config init should refuse to overwrite without --force")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}

	if err := cmd.Flags().Set("force", "true"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Errorf("config init --force should overwrite: %v", err)
	}
}
