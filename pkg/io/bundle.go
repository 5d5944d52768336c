package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Format is a bundle encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath selects the bundle format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidFormat, "unsupported bundle format: %s", path)
}

// ReadBundle decodes an input bundle in the given format from r.
//
// A bundle is one document with the keys units, dependencies, loops and
// reduction_vars. Only units is required. ReadBundle does not validate
// ids; that happens when the graph is built.
func ReadBundle(r io.Reader, format Format) (*pet.Input, error) {
	var in pet.Input
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&in)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&in)
		if err == io.EOF {
			err = nil
		}
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&in)
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidFormat, "unsupported bundle format: %q", format)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode %s bundle", format)
	}
	return &in, nil
}

// ImportBundle reads the bundle file at path, picking the format from
// its extension.
func ImportBundle(path string) (*pet.Input, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadBundle(f, format)
}

// WriteBundle encodes in as a bundle in the given format.
// Output written by WriteBundle can be re-read with [ReadBundle].
func WriteBundle(in *pet.Input, w io.Writer, format Format) error {
	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(in)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(in); err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		var buf bytes.Buffer
		if err = toml.NewEncoder(&buf).Encode(in); err == nil {
			_, err = w.Write(buf.Bytes())
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidFormat, "unsupported bundle format: %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportBundle writes in to path, picking the format from its extension.
func ExportBundle(in *pet.Input, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteBundle(in, f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
