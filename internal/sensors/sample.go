package sensors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const inputSuffix = "_input"

// Metric is one column of a sample.
type Metric struct {
	Key   string
	Value float64
}

// Sample is the ordered result of one poll: chips, then sensors, then
// readings, in the order the tool printed them.
type Sample []Metric

func (s Sample) Keys() []string {
	keys := make([]string, len(s))
	for i, metric := range s {
		keys[i] = metric.Key
	}
	return keys
}

func (s Sample) Values() []float64 {
	values := make([]float64, len(s))
	for i, metric := range s {
		values[i] = metric.Value
	}
	return values
}

// BuildSample keeps the *_input readings of every chip and parses their
// values. A chip with a value that is not a number contributes nothing; the
// failure is joined into the returned error. Keys that would repeat get a
// _2, _3, ... suffix in traversal order so every column stays unique.
func (r *Registry) BuildSample(chips []SensorChip) (Sample, error) {
	var (
		sample Sample
		errs   []error
		seen   = map[string]int{}
	)

	for _, chip := range chips {
		metrics, err := r.chipMetrics(chip)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		for _, metric := range metrics {
			seen[metric.Key]++
			if count := seen[metric.Key]; count > 1 {
				metric.Key = uniqueKey(seen, metric.Key, count)
			}
			sample = append(sample, metric)
		}
	}

	return sample, errors.Join(errs...)
}

// Extract runs the whole pipeline over raw command output.
func (r *Registry) Extract(raw string) (Sample, error) {
	chips, parseErr := r.ParseOutput(raw)
	sample, buildErr := r.BuildSample(chips)
	return sample, errors.Join(parseErr, buildErr)
}

func (r *Registry) chipMetrics(chip SensorChip) ([]Metric, error) {
	var metrics []Metric

	for _, sensor := range chip.Sensors {
		for _, reading := range sensor.Readings {
			if !strings.HasSuffix(reading.Name, inputSuffix) {
				continue
			}

			value, err := strconv.ParseFloat(reading.RawValue, 64)
			if err != nil {
				return nil, &ChipError{
					Chip: chip.RawName,
					Err:  fmt.Errorf("sensor %q reading %s: %w", sensor.Name, reading.Name, err),
				}
			}

			metrics = append(metrics, Metric{
				Key:   r.MetricKey(chip.RawName, sensor.Name, reading.Name),
				Value: value,
			})
		}
	}

	return metrics, nil
}

func uniqueKey(seen map[string]int, key string, count int) string {
	for {
		candidate := key + "_" + strconv.Itoa(count)
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = 1
			return candidate
		}
		count++
	}
}
