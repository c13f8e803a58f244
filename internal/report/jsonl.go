package report

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"spreadSpy/internal/model"
)

// JSONLSink writes each cycle report as one JSON line.
type JSONLSink struct {
	mu     sync.Mutex
	closer io.Closer
	writer *bufio.Writer
}

// NewJSONLSink opens path for appending. "-" writes to stdout.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if path == "-" {
		return NewJSONLWriter(os.Stdout), nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}

	return &JSONLSink{closer: file, writer: bufio.NewWriter(file)}, nil
}

// NewJSONLWriter wraps an arbitrary writer. Close does not close w.
func NewJSONLWriter(w io.Writer) *JSONLSink {
	return &JSONLSink{writer: bufio.NewWriter(w)}
}

func (s *JSONLSink) Report(_ context.Context, r model.CycleReport) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writer.Write(line); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
