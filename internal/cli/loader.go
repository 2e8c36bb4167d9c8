package cli

import (
	"fmt"
	"os"

	"github.com/roach88/sqlcomp/internal/querydoc"
	"github.com/roach88/sqlcomp/internal/queryir"
)

// LoadError represents an error that occurred while loading a query document.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadDocument reads the query document at path. The format follows the
// file extension: .cue is CUE, .json is JSON, anything else YAML.
func LoadDocument(path string) (*queryir.Spec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing document: %v", err), Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("is a directory: %s", path)}
	}

	spec, err := querydoc.LoadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDocument, Message: err.Error(), Err: err}
	}
	return spec, nil
}
