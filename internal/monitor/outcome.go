package monitor

import (
	"fmt"

	"spreadSpy/internal/report"
)

// Outcome classifies a finished poll cycle.
type Outcome int

const (
	OutcomeAlertRaised Outcome = iota + 1
	OutcomeBelowThreshold
	OutcomeRetrievalIncomplete
	OutcomeUnexpectedError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlertRaised:
		return report.OutcomeAlertRaised
	case OutcomeBelowThreshold:
		return report.OutcomeBelowThreshold
	case OutcomeRetrievalIncomplete:
		return report.OutcomeRetrievalIncomplete
	case OutcomeUnexpectedError:
		return report.OutcomeUnexpectedError
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// UnexpectedCycleError wraps a failure that is neither a retrieval error
// nor an unpriceable pool. It never escapes the cycle.
type UnexpectedCycleError struct {
	Err error
}

func (e *UnexpectedCycleError) Error() string {
	return fmt.Sprintf("unexpected cycle error: %v", e.Err)
}

func (e *UnexpectedCycleError) Unwrap() error {
	return e.Err
}
