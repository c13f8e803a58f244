package report

import (
	"context"

	"go.uber.org/zap"

	"spreadSpy/internal/model"
)

// LogSink writes cycle reports as structured log entries.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Report(_ context.Context, r model.CycleReport) error {
	fields := []zap.Field{
		zap.Time("observed_at", r.Timestamp),
		zap.Uint64("cycle", r.Cycle),
		zap.String("outcome", r.Outcome),
	}

	switch r.Outcome {
	case OutcomeAlertRaised:
		s.logger.Warn("arbitrage opportunity", append(fields,
			zap.String("spread_percent", r.SpreadPercent),
			zap.String("direction", r.Direction),
			zap.String("price_a", r.PriceA),
			zap.String("price_b", r.PriceB),
			zap.String("threshold_percent", r.Threshold),
		)...)
	case OutcomeBelowThreshold:
		s.logger.Info("spread below threshold", append(fields,
			zap.String("spread_percent", r.SpreadPercent),
			zap.String("threshold_percent", r.Threshold),
		)...)
	case OutcomeRetrievalIncomplete:
		s.logger.Warn("reserve retrieval incomplete", append(fields,
			zap.String("error", r.Error),
		)...)
	default:
		s.logger.Error("unexpected cycle error", append(fields,
			zap.String("error", r.Error),
		)...)
	}
	return nil
}
