package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"patrimonio/internal/core"
	"patrimonio/internal/engine"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
)

type ForecastService struct {
	source sources.DocumentSource
	logger *log.Logger
}

func NewForecastService(source sources.DocumentSource, logger *log.Logger) *ForecastService {
	return &ForecastService{source: source, logger: logger.WithComponent(log.ComponentEngine)}
}

// Forecast fetches every month from January to m concurrently, then reduces
// them into the yield chain in calendar order.
func (s *ForecastService) Forecast(ctx context.Context, m core.Month) (engine.Forecast, error) {
	months := m.YearToDate()
	inputs := make([]engine.MonthInput, len(months))

	g, gctx := errgroup.WithContext(ctx)
	for i, month := range months {
		inputs[i].Month = month
		g.Go(func() error {
			doc, err := sources.ReadDocument(gctx, s.source, month)
			inputs[i].Document = doc
			return err
		})
		g.Go(func() error {
			ts, err := sources.ReadTransfers(gctx, s.source, month)
			inputs[i].Transfers = ts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Forecast failed",
			log.NewFields().WithMonth(m.String()).WithOperation(log.OpForecast).WithError(err).ToSlice()...)
		return engine.Forecast{}, err
	}

	f := engine.BuildForecast(inputs)
	s.logger.DebugContext(ctx, "Forecast built",
		log.FieldMonth, m.String(), "ytd_return", f.YTDReturn, "months", f.MonthsPassed)
	return f, nil
}
