package querydoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// Format identifies the encoding of a query document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions are treated as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".cue":
		return FormatCUE
	default:
		return FormatYAML
	}
}

// Parse decodes one query document.
func Parse(data []byte, format Format) (*queryir.Spec, error) {
	switch format {
	case FormatYAML, FormatJSON, "":
		// JSON is a subset of YAML 1.2.
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", format, err)
		}
		if doc == nil {
			return nil, &DocError{Message: "empty document"}
		}
		return Decode(doc)
	case FormatCUE:
		ctx := cuecontext.New()
		return FromCUE(ctx.CompileBytes(data))
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*queryir.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format := FormatFromPath(path)
	if format == FormatCUE {
		ctx := cuecontext.New()
		return FromCUE(ctx.CompileBytes(data, cue.Filename(path)))
	}

	spec, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// FromCUE decodes a concrete CUE struct into a Spec.
func FromCUE(v cue.Value) (*queryir.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc map[string]any
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}
	return Decode(doc)
}

// formatCUEError prefixes the first CUE error with its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if pos := cueerrors.Positions(first); len(pos) > 0 && pos[0].IsValid() {
		return &DocError{
			Path:    fmt.Sprintf("%s:%d:%d", pos[0].Filename(), pos[0].Line(), pos[0].Column()),
			Message: first.Error(),
		}
	}
	return &DocError{Message: first.Error()}
}
