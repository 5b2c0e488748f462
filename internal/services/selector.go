package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
)

// Loader produces a month view.
type Loader interface {
	Load(ctx context.Context, m core.Month) (*MonthView, error)
}

// Selection is the state of the current month selection.
type Selection struct {
	Month core.Month `json:"month"`
	Token string     `json:"token"`
	Ready bool       `json:"ready"`
	View  *MonthView `json:"view,omitempty"`
	Err   error      `json:"-"`
}

// Selector tracks the month the user is looking at. Every selection starts
// a background load tagged with a fresh token; a load that completes after
// a newer selection is discarded instead of replacing the current view.
type Selector struct {
	loader  Loader
	baseCtx context.Context
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	current Selection
	active  bool
	wg      sync.WaitGroup
}

// NewSelector runs loads under ctx, each bounded by timeout when positive.
func NewSelector(ctx context.Context, loader Loader, timeout time.Duration, logger *log.Logger) *Selector {
	return &Selector{
		loader:  loader,
		baseCtx: ctx,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentEngine),
	}
}

// Select makes m the current month and starts loading it. It returns the
// token identifying this load.
func (s *Selector) Select(m core.Month) string {
	token := uuid.NewString()

	s.mu.Lock()
	s.current = Selection{Month: m, Token: token}
	s.active = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := s.baseCtx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		view, err := s.loader.Load(ctx, m)
		s.complete(m, token, view, err)
	}()
	return token
}

// complete stores a finished load if it still belongs to the current
// selection and reports whether it did.
func (s *Selector) complete(m core.Month, token string, view *MonthView, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.current.Token != token || s.current.Month != m {
		s.logger.Debug("Dropping stale month load", log.FieldMonth, m.String(), log.FieldLoadToken, token)
		return false
	}
	s.current.Ready = true
	s.current.View = view
	s.current.Err = err
	return true
}

// Current returns the current selection. ok is false before the first
// Select.
func (s *Selector) Current() (sel Selection, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.active
}

// Wait blocks until every started load has finished.
func (s *Selector) Wait() {
	s.wg.Wait()
}
