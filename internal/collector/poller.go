package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/vinted/sensors-csv/internal/sensors"
)

// PollResult is what one poll produced. Err joins the *sensors.ChipError
// of every chip left out of Sample.
type PollResult struct {
	Time         time.Time
	Duration     time.Duration
	Sample       sensors.Sample
	EmptyOutput  bool
	SkippedChips int
	Err          error
}

// Observer receives every poll result after it has been emitted.
type Observer interface {
	Observe(ctx context.Context, result PollResult)
}

type Poller struct {
	logger    *slog.Logger
	runner    CommandRunner
	registry  *sensors.Registry
	emitter   *Emitter
	period    time.Duration
	observers []Observer
	now       func() time.Time

	// printHeader is cleared after the first emission attempt, whatever
	// its outcome.
	printHeader bool
}

func NewPoller(logger *slog.Logger, config Config, runner CommandRunner, registry *sensors.Registry, emitter *Emitter, observers ...Observer) *Poller {
	period := config.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	return &Poller{
		logger:      logger,
		runner:      runner,
		registry:    registry,
		emitter:     emitter,
		period:      period,
		observers:   observers,
		now:         time.Now,
		printHeader: config.ShowHeader,
	}
}

// Run polls once right away and then every period until ctx is done.
// Polls run on the calling goroutine, so they never overlap; ticks missed
// while a poll is running are dropped.
func (poller *Poller) Run(ctx context.Context) error {
	poller.Poll(ctx)

	ticker := time.NewTicker(poller.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poller.Poll(ctx)
		}
	}
}

func (poller *Poller) Poll(ctx context.Context) PollResult {
	start := poller.now()

	raw := poller.runner.Run(ctx)
	if ctx.Err() != nil {
		return PollResult{Time: start, EmptyOutput: true, Err: ctx.Err()}
	}

	sample, err := poller.registry.Extract(raw)
	end := poller.now()

	result := PollResult{
		Time:         end,
		Duration:     end.Sub(start),
		Sample:       sample,
		EmptyOutput:  raw == "",
		SkippedChips: sensors.SkippedChips(err),
		Err:          err,
	}

	if err != nil {
		poller.logger.Warn("Chips skipped while parsing sensors output", "skipped", result.SkippedChips, "error", err)
	}
	poller.logger.Debug("Sensors poll finished", "metrics", len(sample), "duration", result.Duration)

	if err := poller.emit(result); err != nil {
		poller.logger.Error("Error writing sample", "error", err)
	}

	for _, observer := range poller.observers {
		observer.Observe(ctx, result)
	}

	return result
}

func (poller *Poller) emit(result PollResult) error {
	printHeader := poller.printHeader
	poller.printHeader = false

	if printHeader {
		if err := poller.emitter.WriteHeader(result.Sample); err != nil {
			return err
		}
	}

	return poller.emitter.WriteSample(result.Time, result.Sample)
}
