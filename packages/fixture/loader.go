package fixture

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// ErrResourceNotFound is returned when a fixture, schema or suite resource
// does not exist in the loader's file system.
var ErrResourceNotFound = errors.New("resource not found")

// Format identifies how a tabular resource is decoded.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	default:
		return "csv"
	}
}

// FormatOf returns the table format for a resource name, based on its extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return 0, errors.Errorf("unsupported fixture format %q (use .csv or .xlsx)", path.Ext(name))
	}
}

type Loader struct {
	fsys fs.FS
}

func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Table resolves a tabular resource. The resource must exist; its rows are
// only read when iterated.
func (l *Loader) Table(name string) (*Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	if err := l.exists(name); err != nil {
		return nil, err
	}
	return &Table{fsys: l.fsys, name: name, format: format}, nil
}

// Schema returns the raw text of a JSON schema resource.
func (l *Loader) Schema(name string) ([]byte, error) {
	return l.read(name)
}

// Suite returns the raw text of a suite definition resource.
func (l *Loader) Suite(name string) ([]byte, error) {
	return l.read(name)
}

func (l *Loader) read(name string) ([]byte, error) {
	if err := l.exists(name); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return data, nil
}

func (l *Loader) exists(name string) error {
	info, err := fs.Stat(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return errors.Wrap(ErrResourceNotFound, name)
	}
	if err != nil {
		return errors.Wrapf(err, "stat %s", name)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrResourceNotFound, "%s is a directory", name)
	}
	return nil
}
