package io

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/viant/afs"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet"
)

// Loader reads inputs through an afs.Service, so any scheme afs knows
// (local paths, file://, mem://, s3://, gs://) can be used.
type Loader struct {
	fs afs.Service
}

// NewLoader creates a loader. A nil service selects afs.New().
func NewLoader(fs afs.Service) *Loader {
	if fs == nil {
		fs = afs.New()
	}
	return &Loader{fs: fs}
}

// Load reads the input at location. A directory is read as a native
// output set (see [Loader.LoadNative]); anything else is a bundle whose
// format follows from the extension.
func Load(ctx context.Context, location string) (*pet.Input, error) {
	return NewLoader(nil).Load(ctx, location)
}

// Load is the method form of the package-level [Load].
func (l *Loader) Load(ctx context.Context, location string) (*pet.Input, error) {
	obj, err := l.fs.Object(ctx, location)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "stat %s", location)
	}
	if obj.IsDir() {
		return l.LoadNative(ctx, location)
	}
	format, err := FormatFromPath(location)
	if err != nil {
		return nil, err
	}
	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "download %s", location)
	}
	return ReadBundle(bytes.NewReader(data), format)
}

// LoadNative reads Data.xml and, when present, the dependency list, loop
// counters and reduction list from the directory at location. The first
// file ending in "_dep.txt" is the dependency list.
func (l *Loader) LoadNative(ctx context.Context, location string) (*pet.Input, error) {
	objects, err := l.fs.List(ctx, location)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "list %s", location)
	}
	found := make(map[string]string)
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		name := obj.Name()
		switch {
		case name == DataFile, name == LoopCounterFile, name == ReductionFile:
			found[name] = obj.URL()
		case strings.HasSuffix(name, DepSuffix):
			if _, ok := found[DepSuffix]; !ok {
				found[DepSuffix] = obj.URL()
			}
		}
	}
	if _, ok := found[DataFile]; !ok {
		return nil, perrors.New(perrors.ErrCodeFileNotFound, "no %s in %s", DataFile, location)
	}

	var files NativeFiles
	for _, f := range []struct {
		key string
		dst *io.Reader
	}{
		{DataFile, &files.Data},
		{DepSuffix, &files.Dependencies},
		{LoopCounterFile, &files.LoopCounters},
		{ReductionFile, &files.Reductions},
	} {
		u, ok := found[f.key]
		if !ok {
			continue
		}
		data, err := l.fs.DownloadWithURL(ctx, u)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "download %s", u)
		}
		*f.dst = bytes.NewReader(data)
	}
	return ReadNative(files)
}
