// Package memory keeps documents in process for tests.
package memory

import (
	"context"
	"sync"

	"patrimonio/internal/core"
	"patrimonio/internal/sources"
)

type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
	errs map[string]error
}

var (
	_ sources.DocumentSource = (*Store)(nil)
	_ sources.DocumentLister = (*Store)(nil)
)

func New() *Store {
	return &Store{docs: map[string][]byte{}, errs: map[string]error{}}
}

// Put stores raw under name, replacing any previous body.
func (s *Store) Put(name string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = append([]byte(nil), raw...)
}

// FailOn makes every fetch of name return err. A nil err clears it.
func (s *Store) FailOn(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, name)
		return
	}
	s.errs[name] = err
}

func (s *Store) FetchDocument(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[name]; err != nil {
		return nil, false, err
	}
	raw, ok := s.docs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (s *Store) ListNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.docs))
	for n := range s.docs {
		names = append(names, n)
	}
	return names, nil
}

func (s *Store) ListAvailable(ctx context.Context) ([]core.Entry, error) {
	names, _ := s.ListNames(ctx)
	return core.EntriesFromNames(names), nil
}
