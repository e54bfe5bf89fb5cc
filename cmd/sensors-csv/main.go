package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/promslog"
	"github.com/prometheus/common/promslog/flag"
	"github.com/prometheus/exporter-toolkit/web"
	webflag "github.com/prometheus/exporter-toolkit/web/kingpinflag"
	nodecollector "github.com/prometheus/node_exporter/collector"
	"github.com/vinted/sensors-csv/internal/collector"
	"github.com/vinted/sensors-csv/internal/sensors"
	"github.com/vinted/sensors-csv/pkg/redis"
)

func main() {
	// setup node exporter collectors through global kingpin flags
	kingpin.CommandLine.Parse([]string{
		"--collector.disable-defaults",
		"--collector.hwmon",
		"--collector.thermal_zone",
	})

	// New kingpin instance to prevent imported code from adding flags (node exporter)
	kp := kingpin.New("sensors-csv", "Poll lm-sensors readings and print them as CSV rows")

	var showHeader bool

	var (
		period         = kp.Flag("period", "Period between calls in milliseconds.").Short('p').Default("5000").Int()
		showHeaderFlag = kp.Flag("showHeader", "Output CSV header as first line.")
		noHeaderFlag   = kp.Flag("noHeader", "Do not output a CSV header (default).")
		command        = kp.Flag("sensors.command", "Command printing raw sensor readings.").Default(collector.DefaultCommand).String()
		commandTimeout = kp.Flag("sensors.timeout", "Timeout for one run of the sensors command.").Default(collector.DefaultCommandTimeout.String()).Duration()
		extraChips     = kp.Flag("sensors.chip", "Additional chip to report, as raw_name=short_name. Repeatable.").PlaceHolder("RAW=SHORT").StringMap()
		webEnable      = kp.Flag("web.enable", "Serve Prometheus metrics over HTTP.").Bool()
		webConfig      = webflag.AddFlags(kp, ":9102")
		metricsPath    = kp.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()
		redisPublish   = kp.Flag("redis.publish", "Mirror every sample into Redis, configured through REDIS_* env.").Bool()
	)

	// Last of --showHeader / --noHeader wins.
	showHeaderValue := showHeaderFlag.Bool()
	noHeaderValue := noHeaderFlag.Bool()
	showHeaderFlag.Action(func(*kingpin.ParseContext) error {
		showHeader = *showHeaderValue
		return nil
	})
	noHeaderFlag.Action(func(*kingpin.ParseContext) error {
		showHeader = !*noHeaderValue
		return nil
	})

	promslogConfig := &promslog.Config{}
	flag.AddFlags(kp, promslogConfig)
	kp.HelpFlag.Short('h')
	kp.UsageWriter(os.Stdout)
	kingpin.MustParse(kp.Parse(os.Args[1:]))

	if *period <= 0 {
		kp.Fatalf("--period must be greater than zero, got %d", *period)
	}

	logger := promslog.New(promslogConfig)

	registry, err := buildRegistry(*extraChips)
	if err != nil {
		kp.Fatalf("invalid --sensors.chip: %v", err)
	}

	config := collector.LoadConfig(logger)
	config.Command = *command
	config.CommandTimeout = *commandTimeout
	config.Period = time.Duration(*period) * time.Millisecond
	config.ShowHeader = showHeader

	runner, err := collector.NewCommandRunner(logger, config.Command, config.CommandTimeout, config.MaxOutputBytes)
	if err != nil {
		kp.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var observers []collector.Observer

	if *webEnable {
		sensorsCollector := collector.NewSensorsCollector(logger)
		prometheus.MustRegister(sensorsCollector)
		observers = append(observers, sensorsCollector)

		// Node exporter collectors
		nodeCollector, err := nodecollector.NewNodeCollector(logger, "hwmon", "thermal_zone")
		if err != nil {
			logger.Error("Failed to create node collector", "error", err)
			os.Exit(1)
		}
		prometheus.MustRegister(nodeCollector)

		go serveMetrics(ctx, logger, webConfig, *metricsPath)
	}

	if *redisPublish {
		redisClient, err := redis.NewClient()
		if err != nil {
			logger.Error("Failed to create redis client", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, config.PublishTimeout)
		if err := redisClient.Ping(pingCtx); err != nil {
			logger.Warn("Redis not reachable yet, samples will be retried every poll", "address", redisClient.Address(), "error", err)
		}
		cancel()

		observers = append(observers, collector.NewRedisPublisher(logger, redisClient, config))
	}

	logger.Info("Starting sensors poller",
		"command", config.Command,
		"period", config.Period,
		"timeout", config.CommandTimeout,
		"header", config.ShowHeader,
		"chips", len(registry.Chips()),
	)

	poller := collector.NewPoller(logger, config, runner, registry, collector.NewEmitter(os.Stdout), observers...)
	if err := poller.Run(ctx); err != nil {
		logger.Error("Poller stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Sensors poller stopped")
}

func buildRegistry(extraChips map[string]string) (*sensors.Registry, error) {
	registry := sensors.DefaultRegistry()
	if len(extraChips) == 0 {
		return registry, nil
	}

	rawNames := make([]string, 0, len(extraChips))
	for rawName := range extraChips {
		rawNames = append(rawNames, rawName)
	}
	sort.Strings(rawNames)

	chips := make([]sensors.ChipIdentity, 0, len(rawNames))
	for _, rawName := range rawNames {
		chips = append(chips, sensors.ChipIdentity{RawName: rawName, ShortName: extraChips[rawName]})
	}

	return registry.With(chips...)
}

func serveMetrics(ctx context.Context, logger *slog.Logger, webConfig *web.FlagConfig, metricsPath string) {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(`<html>
             <head><title>Sensors CSV</title></head>
             <body>
             <h1>Sensors CSV</h1>
             <p><a href='` + metricsPath + `'>Metrics</a></p>
             </body>
             </html>`))
		if err != nil {
			logger.Error("Error writing response", "error", err)
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down HTTP server", "error", err)
		}
	}()

	if err := web.ListenAndServe(srv, webConfig, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Error starting HTTP server", "error", err)
		os.Exit(1)
	}
}
