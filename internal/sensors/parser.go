package sensors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingAdapter      = errors.New("block has no adapter line")
	ErrReadingBeforeSensor = errors.New("reading encountered before any sensor name")
	ErrMalformedReading    = errors.New("reading line has no label separator")
)

// SensorReading is one `label: value` line of a sensor. The value is kept
// as text until the reading is selected for a sample.
type SensorReading struct {
	Name     string
	RawValue string
}

type Sensor struct {
	Name     string
	Readings []SensorReading
}

// SensorChip is one parsed chip block.
type SensorChip struct {
	RawName string
	Adapter string
	Sensors []Sensor
}

// ChipError reports why a chip was left out of a poll. Block holds the
// offending block text when the failure was structural.
type ChipError struct {
	Chip  string
	Line  int
	Block string
	Err   error
}

func (e *ChipError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("chip %s: %v", e.Chip, e.Err)
	}
	return fmt.Sprintf("bad data block for chip %s at line %d: %v:\n%s", e.Chip, e.Line, e.Err, e.Block)
}

func (e *ChipError) Unwrap() error {
	return e.Err
}

type parserState int

const (
	outsideSensor parserState = iota
	insideSensor
)

// ParseChipBlock converts the lines of one chip block into a SensorChip.
// Line 0 is the chip name, line 1 the adapter description. Unindented
// lines open a sensor, indented lines are readings of the open sensor.
func ParseChipBlock(lines []string) (SensorChip, error) {
	if len(lines) == 0 {
		return SensorChip{}, &ChipError{Err: ErrMissingAdapter}
	}

	chip := SensorChip{RawName: lines[0]}
	if len(lines) < 2 {
		return SensorChip{}, blockError(lines, 1, ErrMissingAdapter)
	}
	chip.Adapter = lines[1]

	state := outsideSensor
	current := Sensor{}

	for i := 2; i < len(lines); {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}

		indented := hasLeadingWhitespace(line)

		switch {
		case !indented && state == outsideSensor:
			current = Sensor{Name: strings.TrimSuffix(line, ":")}
			state = insideSensor
			i++
		case !indented && state == insideSensor:
			// Close the open sensor and look at the same line again.
			chip.Sensors = append(chip.Sensors, current)
			state = outsideSensor
		case indented && state == outsideSensor:
			return SensorChip{}, blockError(lines, i, ErrReadingBeforeSensor)
		default:
			label, value, found := strings.Cut(line, ":")
			if !found {
				return SensorChip{}, blockError(lines, i, ErrMalformedReading)
			}
			current.Readings = append(current.Readings, SensorReading{
				Name:     strings.TrimSpace(label),
				RawValue: strings.TrimSpace(value),
			})
			i++
		}
	}

	if state == insideSensor && len(current.Readings) > 0 {
		chip.Sensors = append(chip.Sensors, current)
	}

	return chip, nil
}

// ParseOutput splits raw output into registered chip blocks and parses
// each one. A chip that fails to parse is left out; its *ChipError is
// joined into the returned error while the other chips are still returned.
func (r *Registry) ParseOutput(raw string) ([]SensorChip, error) {
	blocks := r.SplitBlocks(raw)

	chips := make([]SensorChip, 0, len(blocks))
	var errs []error

	for _, block := range blocks {
		chip, err := ParseChipBlock(block)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chips = append(chips, chip)
	}

	return chips, errors.Join(errs...)
}

// SkippedChips counts the chips a ParseOutput or BuildSample error left out.
func SkippedChips(err error) int {
	if err == nil {
		return 0
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return 1
	}

	count := 0
	for _, inner := range joined.Unwrap() {
		count += SkippedChips(inner)
	}
	return count
}

func blockError(lines []string, line int, err error) *ChipError {
	return &ChipError{
		Chip:  lines[0],
		Line:  line,
		Block: strings.Join(lines, "\n"),
		Err:   err,
	}
}

func hasLeadingWhitespace(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
