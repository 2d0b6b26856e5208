package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink defines a destination for reports.
type Sink interface {
	Write(r *Report) error
	Close() error
}

// Manager coordinates writing a report to multiple sinks.
type Manager struct {
	sinks []Sink
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Write(r *Report) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(r); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}

// WriterSink encodes reports to an io.Writer it does not own (stdout).
type WriterSink struct {
	writer io.Writer
	format string
}

func NewWriterSink(w io.Writer, format string) (*WriterSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	if !knownFormat(format) {
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}
	return &WriterSink{writer: w, format: format}, nil
}

func (s *WriterSink) Write(r *Report) error { return Encode(s.writer, s.format, r) }
func (s *WriterSink) Close() error          { return nil }

// FileSink encodes reports to a file it creates, along with missing parent directories.
type FileSink struct {
	path   string
	format string
	file   *os.File
}

func NewFileSink(path, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if !knownFormat(format) || format == "text" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &FileSink{path: path, format: format, file: f}, nil
}

func (s *FileSink) Write(r *Report) error { return Encode(s.file, s.format, r) }

func (s *FileSink) Close() error {
	return s.file.Close()
}

func knownFormat(format string) bool {
	switch format {
	case "text", "json", "ndjson", "yaml", "toml":
		return true
	default:
		return false
	}
}
