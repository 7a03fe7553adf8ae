package memorial

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadDataset reads and decodes the dataset at path. It does not validate
// the content; run ValidateFile first.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("file not found: %s", path)}
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var ds Dataset
	if err := json.NewDecoder(f).Decode(&ds); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid JSON syntax: %w", err)}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	ds.Path = abs
	ds.BaseDir = filepath.Dir(abs)
	return &ds, nil
}

// Assets returns the asset store rooted at the dataset's directory.
func (d *Dataset) Assets() DirAssets {
	return DirAssets(d.BaseDir)
}
