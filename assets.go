package memorial

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AssetStore answers whether an asset reference from the dataset exists.
type AssetStore interface {
	Exists(ref string) (bool, error)
}

// DirAssets resolves asset references relative to a base directory, normally
// the directory holding the dataset.
type DirAssets string

// Path returns the filesystem path for ref.
func (d DirAssets) Path(ref string) string {
	p := filepath.FromSlash(ref)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(string(d), p)
}

// Exists reports whether ref names an existing regular file. Blank references
// and directories never exist as assets.
func (d DirAssets) Exists(ref string) (bool, error) {
	if strings.TrimSpace(ref) == "" {
		return false, nil
	}
	info, err := os.Stat(d.Path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
