package memorial

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is returned when the dataset cannot be read or parsed.
	ErrLoad = errors.New("memorial: load dataset")
	// ErrInvalidDataset is the kind of every validation failure.
	ErrInvalidDataset = errors.New("memorial: invalid dataset")
	// ErrRender is returned when markup generation or rasterization fails.
	ErrRender = errors.New("memorial: render")
)

// ValidationError locates the first check a dataset failed.
type ValidationError struct {
	Path   string // e.g. "comments[3].height"; empty for document-level failures
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDataset }

func invalidf(path, format string, args ...any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// LoadError reports a dataset that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrLoad, e.Err} }
