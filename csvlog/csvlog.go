package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"

	"grdiag/sampler"
)

// Logger appends snapshots to a CSV file. The header row is written once,
// when the file doesn't exist yet (or is empty); every call after that
// appends exactly one row. Single-process exclusive access is assumed.
type Logger struct {
	path   string
	file   *os.File
	writer *csv.Writer
	header bool
}

func New(path string) *Logger {
	return &Logger{path: path}
}

// Append writes one snapshot row, creating the file with a header first if
// needed.
func (l *Logger) Append(snapshot *sampler.Snapshot) error {
	if l.file == nil {
		if err := l.open(); err != nil {
			return err
		}
	}

	if !l.header {
		if err := l.writer.Write(snapshot.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		l.header = true
	}

	if err := l.writer.Write(snapshot.Row()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	l.writer.Flush()
	return l.writer.Error()
}

func (l *Logger) Close() error {
	if l.writer != nil {
		l.writer.Flush()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) open() error {
	info, err := os.Stat(l.path)
	exists := err == nil && info.Size() > 0

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open csv %s: %w", l.path, err)
	}

	l.file = file
	l.writer = csv.NewWriter(file)
	l.header = exists
	return nil
}
