package sampler

import (
	"encoding/json"
	"strconv"
	"time"
)

const TimeFormat = "2006-01-02 15:04:05"

// Reading is a decoded value or a defined absence, never an error.
type Reading struct {
	Value float64
	Valid bool
}

// Snapshot is one sampling cycle: a timestamp plus one reading per
// registered parameter. Field order is fixed at creation and drives the
// CSV column order.
type Snapshot struct {
	Timestamp time.Time
	fields    []string
	readings  map[string]Reading
}

func NewSnapshot(timestamp time.Time, fields []string) *Snapshot {
	return &Snapshot{
		Timestamp: timestamp,
		fields:    fields,
		readings:  make(map[string]Reading, len(fields)),
	}
}

func (s *Snapshot) Set(name string, value float64) {
	s.readings[name] = Reading{Value: value, Valid: true}
}

func (s *Snapshot) Get(name string) Reading {
	return s.readings[name]
}

// Empty reports whether no parameter produced a value this cycle.
func (s *Snapshot) Empty() bool {
	return len(s.readings) == 0
}

// Header returns the CSV column names, timestamp first.
func (s *Snapshot) Header() []string {
	return append([]string{"timestamp"}, s.fields...)
}

// Row returns one CSV record in header order. Absent readings are empty
// cells.
func (s *Snapshot) Row() []string {
	row := make([]string, 0, len(s.fields)+1)
	row = append(row, s.Timestamp.Format(TimeFormat))
	for _, name := range s.fields {
		r := s.readings[name]
		if !r.Valid {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(r.Value, 'f', -1, 64))
	}
	return row
}

// ToJSON serializes the snapshot for publishing; absent readings become
// nulls so consumers can tell "missing" from zero.
func (s *Snapshot) ToJSON() ([]byte, error) {
	out := make(map[string]any, len(s.fields)+1)
	out["timestamp"] = s.Timestamp.Format(TimeFormat)
	for _, name := range s.fields {
		if r := s.readings[name]; r.Valid {
			out[name] = r.Value
		} else {
			out[name] = nil
		}
	}
	return json.Marshal(out)
}
