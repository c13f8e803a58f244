package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spreadSpy/internal/metrics"
	"spreadSpy/internal/model"
	"spreadSpy/internal/report"
	"spreadSpy/internal/spread"
)

// ReserveFetcher reads current reserves for a pool. Failures are expected
// to be *model.RetrievalError; anything else is treated as unexpected.
type ReserveFetcher interface {
	FetchReserves(ctx context.Context, pool model.PoolRef) (model.ReserveSnapshot, error)
}

// Config holds runtime settings for the controller.
type Config struct {
	PoolA         model.PoolRef
	PoolB         model.PoolRef
	Threshold     *big.Rat
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	TokenDecimals uint8
	// MaxCycles stops Run after that many cycles. Zero runs until ctx is done.
	MaxCycles uint64
}

// CycleResult is the classified result of one poll cycle.
type CycleResult struct {
	Cycle     uint64
	Outcome   Outcome
	SnapshotA *model.ReserveSnapshot
	SnapshotB *model.ReserveSnapshot
	// Spread is set for AlertRaised and BelowThreshold.
	Spread *spread.Result
	// Err holds retrieval errors for RetrievalIncomplete (nil when a pool
	// was merely unpriceable) and *UnexpectedCycleError for UnexpectedError.
	Err    error
	Report model.CycleReport
}

// Controller polls both pools at a fixed interval and reports the spread.
type Controller struct {
	cfg     Config
	fetcher ReserveFetcher
	sink    report.Sink
	metrics *metrics.Metrics
	logger  *zap.Logger

	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	cycles uint64
}

// NewController builds a Controller with its dependencies. sink and m may be nil.
func NewController(cfg Config, fetcher ReserveFetcher, sink report.Sink, m *metrics.Metrics, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Threshold == nil {
		cfg.Threshold = new(big.Rat)
	}
	return &Controller{
		cfg:     cfg,
		fetcher: fetcher,
		sink:    sink,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Run executes cycles until ctx is cancelled during the sleep between
// cycles, or until MaxCycles have completed. Cycle outcomes never stop it.
func (c *Controller) Run(ctx context.Context) error {
	if c.fetcher == nil {
		return fmt.Errorf("reserve fetcher is nil")
	}
	if c.cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.cfg.Threshold.Sign() < 0 {
		return fmt.Errorf("threshold must not be negative")
	}

	for {
		c.RunCycle(ctx)

		if c.cfg.MaxCycles > 0 && c.cycles >= c.cfg.MaxCycles {
			return nil
		}
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			c.logger.Info("monitor stopped", zap.Uint64("cycles", c.cycles), zap.Error(err))
			return err
		}
	}
}

// RunCycle performs one fetch/derive/evaluate pass and reports it.
// Cancellation of ctx does not interrupt an active cycle.
func (c *Controller) RunCycle(ctx context.Context) (result CycleResult) {
	c.cycles++
	started := c.now()
	result.Cycle = c.cycles

	cycleCtx := context.WithoutCancel(ctx)
	if c.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(cycleCtx, c.cfg.FetchTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result = CycleResult{
				Cycle:   result.Cycle,
				Outcome: OutcomeUnexpectedError,
				Err:     &UnexpectedCycleError{Err: fmt.Errorf("panic: %v", r)},
			}
		}
		c.finish(ctx, &result, started)
	}()

	c.evaluate(cycleCtx, &result)
	return result
}

func (c *Controller) evaluate(ctx context.Context, result *CycleResult) {
	snapA, errA, snapB, errB := c.fetchBoth(ctx)

	var retrievalErrs, unexpectedErrs []error
	for _, f := range []struct {
		pool model.PoolRef
		snap model.ReserveSnapshot
		err  error
		dst  **model.ReserveSnapshot
	}{
		{c.cfg.PoolA, snapA, errA, &result.SnapshotA},
		{c.cfg.PoolB, snapB, errB, &result.SnapshotB},
	} {
		if f.err == nil {
			snap := f.snap
			*f.dst = &snap
			continue
		}
		c.metrics.ObserveFetchError(f.pool.Label)
		var retrievalErr *model.RetrievalError
		if errors.As(f.err, &retrievalErr) {
			retrievalErrs = append(retrievalErrs, f.err)
		} else {
			unexpectedErrs = append(unexpectedErrs, f.err)
		}
	}

	if len(unexpectedErrs) > 0 {
		result.Outcome = OutcomeUnexpectedError
		result.Err = &UnexpectedCycleError{Err: errors.Join(unexpectedErrs...)}
		return
	}
	if len(retrievalErrs) > 0 {
		result.Outcome = OutcomeRetrievalIncomplete
		result.Err = errors.Join(retrievalErrs...)
		return
	}

	priceA := spread.DerivePrice(*result.SnapshotA)
	priceB := spread.DerivePrice(*result.SnapshotB)

	res, err := spread.Evaluate(priceA, priceB)
	switch {
	case errors.Is(err, spread.ErrMissingPrice):
		result.Outcome = OutcomeRetrievalIncomplete
		return
	case err != nil:
		result.Outcome = OutcomeUnexpectedError
		result.Err = &UnexpectedCycleError{Err: err}
		return
	}

	result.Spread = &res
	if res.Exceeds(c.cfg.Threshold) {
		result.Outcome = OutcomeAlertRaised
	} else {
		result.Outcome = OutcomeBelowThreshold
	}
}

// fetchBoth issues both fetches concurrently and waits for both.
func (c *Controller) fetchBoth(ctx context.Context) (model.ReserveSnapshot, error, model.ReserveSnapshot, error) {
	var (
		g            errgroup.Group
		snapA, snapB model.ReserveSnapshot
		errA, errB   error
	)
	g.Go(func() error {
		snapA, errA = c.fetch(ctx, c.cfg.PoolA)
		return nil
	})
	g.Go(func() error {
		snapB, errB = c.fetch(ctx, c.cfg.PoolB)
		return nil
	})
	_ = g.Wait()
	return snapA, errA, snapB, errB
}

func (c *Controller) fetch(ctx context.Context, pool model.PoolRef) (snap model.ReserveSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &UnexpectedCycleError{Err: fmt.Errorf("fetch %s panic: %v", pool, r)}
		}
	}()
	return c.fetcher.FetchReserves(ctx, pool)
}

// finish reports the cycle and records metrics. A panic here is logged
// and stays inside the cycle.
func (c *Controller) finish(ctx context.Context, result *CycleResult, started time.Time) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cycle finish panic", zap.Uint64("cycle", result.Cycle), zap.Any("panic", r))
		}
	}()

	result.Report = c.buildReport(result, started)

	if err := c.emit(ctx, result.Report); err != nil {
		c.logger.Warn("report sink failed", zap.Uint64("cycle", result.Cycle), zap.Error(err))
	}

	c.observeSpread(result.Spread)
	elapsed := c.now().Sub(started)
	c.metrics.ObserveCycle(result.Outcome.String(), elapsed)
	c.logger.Debug("cycle complete",
		zap.Uint64("cycle", result.Cycle),
		zap.Stringer("outcome", result.Outcome),
		zap.Duration("elapsed", elapsed),
	)
}

func (c *Controller) emit(ctx context.Context, r model.CycleReport) (err error) {
	if c.sink == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panic: %v", p)
		}
	}()
	return c.sink.Report(ctx, r)
}

// observeSpread publishes the gauges of a priced cycle and clears them
// otherwise.
func (c *Controller) observeSpread(res *spread.Result) {
	if res == nil {
		c.metrics.ResetSpread()
		return
	}
	priceA, _ := res.PriceA.Float64()
	priceB, _ := res.PriceB.Float64()
	percent, _ := res.Percent.Float64()
	c.metrics.ObservePrice(c.cfg.PoolA.Label, priceA)
	c.metrics.ObservePrice(c.cfg.PoolB.Label, priceB)
	c.metrics.ObserveSpread(percent)
}

func (c *Controller) buildReport(result *CycleResult, started time.Time) model.CycleReport {
	r := model.CycleReport{
		Timestamp: started.UTC(),
		Cycle:     result.Cycle,
		Outcome:   result.Outcome.String(),
		PoolA:     c.cfg.PoolA.Address.Hex(),
		PoolB:     c.cfg.PoolB.Address.Hex(),
		Threshold: trimZeros(formatRat(c.cfg.Threshold, ratioScale)),
		ReservesA: formatReserves(result.SnapshotA, c.cfg.TokenDecimals),
		ReservesB: formatReserves(result.SnapshotB, c.cfg.TokenDecimals),
	}

	if result.Spread != nil {
		r.PriceA = formatRat(result.Spread.PriceA, priceScale)
		r.PriceB = formatRat(result.Spread.PriceB, priceScale)
		r.SpreadPercent = formatRat(result.Spread.Percent, spreadScale)
		r.Direction = string(result.Spread.Direction)
	}

	switch {
	case result.Err != nil:
		r.Error = result.Err.Error()
	case result.Outcome == OutcomeRetrievalIncomplete:
		r.Error = c.unpriceableReason(result)
	}
	return r
}

func (c *Controller) unpriceableReason(result *CycleResult) string {
	var pools []string
	if result.SnapshotA != nil && spread.DerivePrice(*result.SnapshotA) == nil {
		pools = append(pools, c.cfg.PoolA.Label)
	}
	if result.SnapshotB != nil && spread.DerivePrice(*result.SnapshotB) == nil {
		pools = append(pools, c.cfg.PoolB.Label)
	}
	return fmt.Sprintf("pool %v unpriceable: reserve1 is zero", pools)
}
