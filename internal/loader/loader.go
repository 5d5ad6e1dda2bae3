// Package loader resolves script names for run() against a list of search
// directories on an afero filesystem.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no search path holds the script.
var ErrNotFound = errors.New("script not found")

// Loader reads scripts from a filesystem.
type Loader struct {
	fs    afero.Fs
	paths []string
	log   *zap.Logger
}

// New returns a Loader searching paths in order. An empty path list means
// the current directory.
func New(fs afero.Fs, paths []string, log *zap.Logger) *Loader {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{fs: fs, paths: paths, log: log}
}

// NewOS returns a Loader over the real filesystem.
func NewOS(paths []string, log *zap.Logger) *Loader {
	return New(afero.NewOsFs(), paths, log)
}

// Resolve returns the path of the first search directory entry that exists.
// Absolute names are used as they are.
func (l *Loader) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := l.fs.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}

	for _, dir := range l.paths {
		path := filepath.Join(dir, name)
		info, err := l.fs.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrNotFound, name, strings.Join(l.paths, ", "))
}

// Load returns the text of the named script.
func (l *Loader) Load(name string) (string, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return "", err
	}
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	l.log.Debug("loaded script", zap.String("name", name), zap.String("path", path), zap.Int("bytes", len(data)))
	return string(data), nil
}
