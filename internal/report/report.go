package report

import (
	"context"
	"errors"

	"spreadSpy/internal/model"
)

// Outcome labels carried in CycleReport.Outcome.
const (
	OutcomeAlertRaised         = "alert_raised"
	OutcomeBelowThreshold      = "below_threshold"
	OutcomeRetrievalIncomplete = "retrieval_incomplete"
	OutcomeUnexpectedError     = "unexpected_error"
)

// Sink receives one report per poll cycle.
type Sink interface {
	Report(ctx context.Context, r model.CycleReport) error
}

// Multi fans a report out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Report(ctx context.Context, r model.CycleReport) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
