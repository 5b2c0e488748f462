// Package file serves documents from a local directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"patrimonio/internal/core"
	"patrimonio/internal/sources"
)

type Store struct {
	dir string
}

var (
	_ sources.DocumentSource = (*Store)(nil)
	_ sources.DocumentLister = (*Store)(nil)
)

func New(dir string) *Store {
	return &Store{dir: dir}
}

// FetchDocument reads dir/name. Names that would escape dir are absent.
func (s *Store) FetchDocument(_ context.Context, name string) ([]byte, bool, error) {
	if !validName(name) {
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case errors.Is(err, fs.ErrPermission):
		return nil, false, fmt.Errorf("read %s: %w", name, core.ErrUnauthorized)
	case err != nil:
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, true, nil
}

func (s *Store) ListNames(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *Store) ListAvailable(ctx context.Context) ([]core.Entry, error) {
	names, err := s.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	return core.EntriesFromNames(names), nil
}

func validName(name string) bool {
	return name != "" && name == filepath.Base(name) && name != "." && name != ".."
}
