package usecase

import (
	"context"
	"errors"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
	applogger "MarketPulse/pkg/logger"
)

// GroupPipeline runs resolve, derive and score for one group. It holds no per-group state.
type GroupPipeline struct {
	source     domsvc.SeriesSource
	indicators domsvc.IndicatorEngine
	decisions  domsvc.DecisionEngine
	l          *applogger.Logger
}

func NewGroupPipeline(source domsvc.SeriesSource, indicators domsvc.IndicatorEngine, decisions domsvc.DecisionEngine, l *applogger.Logger) *GroupPipeline {
	return &GroupPipeline{source: source, indicators: indicators, decisions: decisions, l: l}
}

func (p *GroupPipeline) Run(ctx context.Context, group models.Group) models.GroupResult {
	series := p.source.Resolve(ctx, group.Tickers)
	table := p.indicators.Derive(series)

	pred, err := p.decisions.Score(table)
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientData) {
			p.l.Error("score group", applogger.String("group", group.Name), applogger.Error(err))
		}
		p.l.Debug("group without prediction",
			applogger.String("group", group.Name),
			applogger.String("symbol", series.Symbol),
			applogger.Int("points", series.Len()),
			applogger.Int("rows", len(table)),
		)
		return models.GroupResult{Name: group.Name, Err: models.ErrInsufficientData}
	}

	p.l.Debug("group scored",
		applogger.String("group", group.Name),
		applogger.String("symbol", series.Symbol),
		applogger.String("decision", string(pred.Decision)),
		applogger.Float64("probability", pred.Probability),
	)
	return models.GroupResult{Name: group.Name, Prediction: &pred}
}
