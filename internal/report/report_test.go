package report

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"spreadSpy/internal/model"
)

func sampleReport(outcome string) model.CycleReport {
	return model.CycleReport{
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Cycle:         3,
		Outcome:       outcome,
		PoolA:         "0x1111111111111111111111111111111111111111",
		PoolB:         "0x2222222222222222222222222222222222222222",
		PriceA:        "2.00000000",
		PriceB:        "2.50000000",
		SpreadPercent: "25.0000",
		Direction:     "A→B",
		Threshold:     "1",
	}
}

func TestJSONLSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reports.jsonl")

	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Report(context.Background(), sampleReport(OutcomeAlertRaised)))
	require.NoError(t, sink.Report(context.Background(), sampleReport(OutcomeBelowThreshold)))
	require.NoError(t, sink.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var outcomes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded model.CycleReport
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
		outcomes = append(outcomes, decoded.Outcome)
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, []string{OutcomeAlertRaised, OutcomeBelowThreshold}, outcomes)
}

func TestJSONLWriterOmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLWriter(&buf)

	r := model.CycleReport{Outcome: OutcomeRetrievalIncomplete, Threshold: "1", Error: "boom"}
	require.NoError(t, sink.Report(context.Background(), r))

	line := buf.String()
	require.Contains(t, line, `"outcome":"retrieval_incomplete"`)
	require.NotContains(t, line, "spread_percent")
	require.NotContains(t, line, "reserves_a")
}

func TestLogSinkLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLogSink(zap.New(core))

	for _, outcome := range []string{OutcomeAlertRaised, OutcomeBelowThreshold, OutcomeRetrievalIncomplete, OutcomeUnexpectedError} {
		require.NoError(t, sink.Report(context.Background(), sampleReport(outcome)))
	}

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, "arbitrage opportunity", entries[0].Message)
	require.Equal(t, "A→B", entries[0].ContextMap()["direction"])
	require.Equal(t, zapcore.InfoLevel, entries[1].Level)
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

type failingSink struct{ err error }

func (f failingSink) Report(context.Context, model.CycleReport) error { return f.err }

func TestMultiJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	var buf bytes.Buffer

	multi := Multi{failingSink{err: errA}, nil, NewJSONLWriter(&buf)}
	err := multi.Report(context.Background(), sampleReport(OutcomeAlertRaised))

	require.ErrorIs(t, err, errA)
	require.NotEmpty(t, buf.String())
}
