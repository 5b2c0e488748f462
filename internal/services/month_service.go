package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"patrimonio/internal/core"
	"patrimonio/internal/engine"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
)

// MonthView is everything computed for one month load. Each load builds a
// new one; nothing in it is shared with other loads.
type MonthView struct {
	Month    core.Month  `json:"month"`
	Label    string      `json:"label"`
	Found    bool        `json:"found"`
	Previous *core.Month `json:"previous,omitempty"`

	Document          *core.Document  `json:"-"`
	Transfers         []core.Transfer `json:"transfers"`
	PreviousTransfers []core.Transfer `json:"-"`
	Merged            *core.Document  `json:"merged"`

	Snapshot         engine.Snapshot                     `json:"snapshot"`
	PreviousSnapshot *engine.Snapshot                    `json:"-"`
	Adjustments      map[core.AssetKey]engine.Adjustment `json:"adjustments"`
	HasComparison    bool                                `json:"hasComparison"`
	Comparison       *engine.Comparison                  `json:"comparison,omitempty"`
	Performance      engine.Performance                  `json:"performance"`
	Audit            []engine.AuditLine                  `json:"audit"`
}

// MonthService loads a month and runs the engine over it.
type MonthService struct {
	source sources.DocumentSource
	logger *log.Logger
}

func NewMonthService(source sources.DocumentSource, logger *log.Logger) *MonthService {
	return &MonthService{source: source, logger: logger.WithComponent(log.ComponentEngine)}
}

// Months lists the months the source has documents for, oldest first.
func (s *MonthService) Months(ctx context.Context) ([]core.Entry, error) {
	entries, err := s.source.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	return entries, nil
}

// PreviousMonth returns the latest listed month strictly before m.
func PreviousMonth(entries []core.Entry, m core.Month) (core.Month, bool) {
	var (
		prev  core.Month
		found bool
	)
	for _, e := range entries {
		em, err := core.ParseMonth(e.ID)
		if err != nil || !em.Before(m) {
			continue
		}
		if !found || prev.Before(em) {
			prev, found = em, true
		}
	}
	return prev, found
}

// Load fetches the month and its predecessor concurrently and computes the
// view once every fetch succeeded. Any fetch error aborts the load.
func (s *MonthService) Load(ctx context.Context, m core.Month) (*MonthView, error) {
	entries, err := s.Months(ctx)
	if err != nil {
		return nil, err
	}
	view := &MonthView{Month: m, Label: m.Label()}
	prev, hasPrev := PreviousMonth(entries, m)
	if hasPrev {
		view.Previous = &prev
	}

	var prevDoc *core.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := sources.ReadDocument(gctx, s.source, m)
		view.Document = doc
		return err
	})
	g.Go(func() error {
		ts, err := sources.ReadTransfers(gctx, s.source, m)
		view.Transfers = ts
		return err
	})
	if hasPrev {
		g.Go(func() error {
			doc, err := sources.ReadDocument(gctx, s.source, prev)
			prevDoc = doc
			return err
		})
		g.Go(func() error {
			ts, err := sources.ReadTransfers(gctx, s.source, prev)
			view.PreviousTransfers = ts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Month load failed",
			log.NewFields().WithMonth(m.String()).WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return nil, err
	}

	compute(view, prevDoc, hasPrev)
	s.logger.DebugContext(ctx, "Month loaded",
		log.FieldMonth, m.String(), "has_comparison", view.HasComparison, "transfers", len(view.Transfers))
	return view, nil
}

func compute(view *MonthView, prevDoc *core.Document, hasPrev bool) {
	view.Found = view.Document != nil
	view.Merged = engine.MergeTransfers(view.Document, view.Transfers)
	view.Snapshot = engine.BuildSnapshot(view.Merged)
	view.Adjustments = engine.AggregateAdjustments(view.Transfers)
	view.Audit = engine.AuditTrail(view.Merged)

	if !hasPrev {
		view.Performance = engine.CalculatePerformance(decimal.Zero, view.Snapshot.Total, view.Transfers, true)
		return
	}
	prevSnap := engine.BuildSnapshot(engine.MergeTransfers(prevDoc, view.PreviousTransfers))
	cmp := engine.Compare(view.Snapshot, &prevSnap, view.Adjustments)
	view.PreviousSnapshot = &prevSnap
	view.Comparison = &cmp
	view.HasComparison = true
	view.Performance = engine.CalculatePerformance(prevSnap.Total, view.Snapshot.Total, view.Transfers, false)
}
