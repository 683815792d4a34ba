package document

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// DefaultLocation is the directory searched when no location is configured.
const DefaultLocation = "graphql-documents"

// DefaultExtensions are tried in order after the bare document name.
var DefaultExtensions = []string{".graphql", ".gql"}

// FileSource looks documents up as <location>/<name><extension> on an afero
// filesystem. Locations and extensions are tried in order and the first
// existing file wins.
type FileSource struct {
	fs         afero.Fs
	locations  []string
	extensions []string
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) FileOption { return func(s *FileSource) { s.fs = fsys } }

// WithLocations replaces the directories searched.
func WithLocations(locations ...string) FileOption {
	return func(s *FileSource) { s.locations = locations }
}

// WithExtensions replaces the file extensions tried.
func WithExtensions(exts ...string) FileOption {
	return func(s *FileSource) { s.extensions = exts }
}

func NewFileSource(opts ...FileOption) *FileSource {
	s := &FileSource{
		fs:         afero.NewOsFs(),
		locations:  []string{DefaultLocation},
		extensions: slices.Clone(DefaultExtensions),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *FileSource) Document(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, loc := range s.locations {
		for _, ext := range s.extensions {
			b, err := afero.ReadFile(s.fs, path.Join(loc, name+ext))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
	}
	return "", &NotFoundError{Name: name, Locations: slices.Clone(s.locations)}
}

// Names lists every document name reachable through the source, sorted and
// without duplicates. Names of nested files contain forward slashes.
func (s *FileSource) Names() ([]string, error) {
	var names []string
	for _, loc := range s.locations {
		if ok, err := afero.DirExists(s.fs, loc); err != nil {
			return nil, err
		} else if !ok {
			continue
		}
		err := afero.Walk(s.fs, loc, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			ext := path.Ext(p)
			if !slices.Contains(s.extensions, ext) {
				return nil
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(filepathToSlash(p), path.Clean(loc)), "/")
			names = append(names, strings.TrimSuffix(rel, ext))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func filepathToSlash(p string) string { return strings.ReplaceAll(p, "\\", "/") }
