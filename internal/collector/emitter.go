package collector

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vinted/sensors-csv/internal/sensors"
)

const timeColumn = "time"

// Emitter writes samples as CSV rows: an optional header of metric keys
// and one `<unix seconds>,<value>,...` row per poll.
type Emitter struct {
	writer *csv.Writer
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: csv.NewWriter(w)}
}

func (e *Emitter) WriteHeader(sample sensors.Sample) error {
	return e.writeRow(headerRow(sample))
}

func (e *Emitter) WriteSample(t time.Time, sample sensors.Sample) error {
	return e.writeRow(valueRow(t, sample))
}

func (e *Emitter) writeRow(row []string) error {
	if err := e.writer.Write(row); err != nil {
		return err
	}
	e.writer.Flush()
	return e.writer.Error()
}

// FormatRow renders the data row of a sample without a trailing newline.
func FormatRow(t time.Time, sample sensors.Sample) (string, error) {
	var buf bytes.Buffer
	if err := NewEmitter(&buf).WriteSample(t, sample); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// FormatValue prints the shortest decimal that round-trips, always with a
// fractional part: 45 prints as 45.0.
func FormatValue(value float64) string {
	formatted := strconv.FormatFloat(value, 'f', -1, 64)
	if math.IsNaN(value) || math.IsInf(value, 0) || strings.Contains(formatted, ".") {
		return formatted
	}
	return formatted + ".0"
}

func headerRow(sample sensors.Sample) []string {
	return append([]string{timeColumn}, sample.Keys()...)
}

func valueRow(t time.Time, sample sensors.Sample) []string {
	row := make([]string, 0, len(sample)+1)
	row = append(row, strconv.FormatInt(t.UTC().Unix(), 10))
	for _, metric := range sample {
		row = append(row, FormatValue(metric.Value))
	}
	return row
}
