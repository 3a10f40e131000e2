// Package localstore maps artifact names to files in a directory.
// The name "a.b.C" is stored in the file "a/b/C<extension>".
package localstore

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const DefaultExtension = ".bin"

var ErrNotFound = errors.New("artifact not found in the local store")

type Store struct {
	fs        afero.Fs
	extension string
}

// New creates the store on top of any afero filesystem, for example afero.NewMemMapFs() in tests.
func New(fs afero.Fs, extension string) *Store {
	if extension == "" {
		extension = DefaultExtension
	}
	return &Store{fs: fs, extension: extension}
}

// NewDir creates a writable store rooted in the directory.
func NewDir(dir, extension string) (*Store, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), extension), nil
}

// NewReadOnlyDir creates a read-only store rooted in the directory.
func NewReadOnlyDir(dir, extension string) (*Store, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	return New(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), extension), nil
}

// Path returns the relative file path of the artifact.
func (s *Store) Path(name artifact.Name) (string, error) {
	if err := name.Validate(); err != nil {
		return "", err
	}
	return path.Join(name.Segments()...) + s.extension, nil
}

// Read returns the artifact content or ErrNotFound.
func (s *Store) Read(name artifact.Name) ([]byte, error) {
	filePath, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.PrefixErrorf(err, `cannot read artifact "%s"`, name)
	}
	return data, nil
}

// Write stores the artifact, an existing file is replaced atomically.
func (s *Store) Write(name artifact.Name, data []byte) error {
	filePath, err := s.Path(name)
	if err != nil {
		return err
	}

	if dir := path.Dir(filePath); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.PrefixErrorf(err, `cannot create directory for artifact "%s"`, name)
		}
	}

	tmpPath := filePath + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0o644); err != nil {
		return errors.PrefixErrorf(err, `cannot write artifact "%s"`, name)
	}
	if err := s.fs.Rename(tmpPath, filePath); err != nil {
		return errors.PrefixErrorf(err, `cannot write artifact "%s"`, name)
	}
	return nil
}

// List returns sorted names of all stored artifacts.
func (s *Store) List() ([]artifact.Name, error) {
	var names []artifact.Name
	err := afero.Walk(s.fs, ".", func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(filePath, s.extension) {
			return nil
		}
		relPath := strings.TrimSuffix(filepath.ToSlash(filePath), s.extension)
		relPath = strings.TrimPrefix(relPath, "./")
		relPath = strings.TrimPrefix(relPath, "/")
		names = append(names, artifact.Name(strings.ReplaceAll(relPath, "/", ".")))
		return nil
	})
	if err != nil {
		return nil, errors.PrefixError(err, "cannot list artifacts")
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names, nil
}

func checkDir(dir string) error {
	if dir == "" {
		return errors.New("store directory is not set")
	}
	stat, err := os.Stat(dir)
	if err != nil {
		return errors.PrefixErrorf(err, `cannot open store directory "%s"`, dir)
	}
	if !stat.IsDir() {
		return errors.Errorf(`path "%s" is not a directory`, dir)
	}
	return nil
}
