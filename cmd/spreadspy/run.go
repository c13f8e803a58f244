package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spreadSpy/internal/chain"
	"spreadSpy/internal/config"
	"spreadSpy/internal/dex"
	"spreadSpy/internal/metrics"
	"spreadSpy/internal/model"
	"spreadSpy/internal/monitor"
	"spreadSpy/internal/report"
)

func runMonitor(cmd *cobra.Command, _ []string) error {
	return execute(cmd, 0)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	return execute(cmd, 1)
}

func execute(cmd *cobra.Command, maxCycles uint64) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{RateLimit: cfg.RPCRateLimit})
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	probeCtx, cancel := context.WithTimeout(ctx, cfg.RPCTimeout)
	chainID, err := chainClient.Probe(probeCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}

	poolA := model.PoolRef{Label: "A", Address: cfg.PairA}
	poolB := model.PoolRef{Label: "B", Address: cfg.PairB}
	reader := dex.NewPairReader(chainClient)
	checkPairTokens(ctx, reader, poolA, poolB, cfg, logger)

	sinks := report.Multi{report.NewLogSink(logger)}
	if cfg.ReportOut != "" {
		jsonl, err := report.NewJSONLSink(cfg.ReportOut)
		if err != nil {
			return err
		}
		defer jsonl.Close()
		sinks = append(sinks, jsonl)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		if err := serveMetrics(ctx, cfg.MetricsAddr, reg, logger); err != nil {
			return err
		}
	}

	controller := monitor.NewController(monitor.Config{
		PoolA:         poolA,
		PoolB:         poolB,
		Threshold:     cfg.Threshold(),
		PollInterval:  cfg.PollInterval,
		FetchTimeout:  cfg.RPCTimeout,
		TokenDecimals: cfg.TokenDecimals,
		MaxCycles:     maxCycles,
	}, reader, sinks, m, logger)

	logger.Info("monitor start",
		zap.String("rpc", redactURL(cfg.RPCURL)),
		zap.String("chain_id", chainID.String()),
		zap.String("pair_a", cfg.PairA.Hex()),
		zap.String("pair_b", cfg.PairB.Hex()),
		zap.Uint8("token_decimals", cfg.TokenDecimals),
		zap.String("check_amount", cfg.CheckAmount.String()),
		zap.String("threshold_percent", cfg.ThresholdPercent.String()),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("rpc_timeout", cfg.RPCTimeout),
		zap.Float64("rpc_rate_limit", cfg.RPCRateLimit),
		zap.String("report_out", cfg.ReportOut),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.Uint64("max_cycles", maxCycles),
	)

	err = controller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// redactURL hides credentials and API keys embedded in RPC URLs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	redacted := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		redacted += "/***"
	}
	return redacted
}

// checkPairTokens warns when the pools do not quote the same token pair.
// Lookup failures are logged and do not block startup.
func checkPairTokens(ctx context.Context, reader *dex.PairReader, poolA, poolB model.PoolRef, cfg config.Config, logger *zap.Logger) {
	lookupCtx, cancel := context.WithTimeout(ctx, cfg.RPCTimeout)
	defer cancel()

	a0, a1, errA := reader.Tokens(lookupCtx, poolA)
	b0, b1, errB := reader.Tokens(lookupCtx, poolB)
	if err := errors.Join(errA, errB); err != nil {
		logger.Warn("pair token lookup failed", zap.Error(err))
		return
	}
	if a0 != b0 || a1 != b1 {
		logger.Warn("pools do not share token0/token1 order",
			zap.String("pair_a_token0", a0.Hex()),
			zap.String("pair_a_token1", a1.Hex()),
			zap.String("pair_b_token0", b0.Hex()),
			zap.String("pair_b_token1", b1.Hex()),
		)
		return
	}
	logger.Debug("pair tokens", zap.String("token0", a0.Hex()), zap.String("token1", a1.Hex()))
}
