package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// forEachTerraformFile applies fn to every .tf file under root, writing the
// returned text back when fn reports a change. Paths passed to fn are
// relative to root. The .git and .terraform trees are never visited.
func forEachTerraformFile(root string, fn func(relPath, src string) (string, bool, error)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".terraform" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".tf") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		out, changed, err := fn(rel, string(data))
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		info, err := d.Info()
		mode := fs.FileMode(0o644)
		if err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, []byte(out), mode); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	})
}
