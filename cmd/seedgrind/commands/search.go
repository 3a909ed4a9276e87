// Package commands implements CLI command handlers for seedgrind.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/niart120/seedgrind/internal/config"
	"github.com/niart120/seedgrind/internal/kernel"
	"github.com/niart120/seedgrind/internal/keyspace"
	"github.com/niart120/seedgrind/internal/observability"
	"github.com/niart120/seedgrind/internal/romdata"
	"github.com/niart120/seedgrind/internal/search"
	"github.com/niart120/seedgrind/internal/version"
)

// Flag parsing errors.
var (
	ErrBadMAC       = errors.New("mac must be six hex octets, e.g. 00:11:22:88:22:77")
	ErrBadTime      = errors.New("time must be RFC3339 or 2006-01-02T15:04:05")
	ErrBadRange     = errors.New("range flags must be given as a min/max pair")
	ErrNoTargetSeed = errors.New("at least one --target seed is required")
)

// acceptedTimeLayouts are tried in order when parsing --from and --to.
var acceptedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SearchCommand holds flags and dependencies for the search command.
type SearchCommand struct {
	configPath string

	rom      string
	region   string
	hardware string
	mac      string
	keys     string
	from     string
	to       string

	timer0Min string
	timer0Max string
	vcountMin string
	vcountMax string

	targets []string

	units      int
	batchSize  int
	kernelName string
	noColor    bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	sc := &SearchCommand{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a date range for RTC setups that hash to target seeds",
		Example: `  seedgrind search --rom B --region JPN --hardware DS \
    --mac 00:11:22:88:22:77 --keys 0x2FFF \
    --from 2066-06-27T03:00:00 --to 2066-06-27T04:00:00 \
    --target 0x14B11BA6`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sc.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sc.configPath, "config", "", "config file path (default .seedgrind.yaml)")
	flags.StringVar(&sc.rom, "rom", "B", "cartridge version (B or W)")
	flags.StringVar(&sc.region, "region", "JPN", "cartridge region (JPN or ENG)")
	flags.StringVar(&sc.hardware, "hardware", "DS", "console class (DS, DS_LITE or 3DS)")
	flags.StringVar(&sc.mac, "mac", "", "console MAC address")
	flags.StringVar(&sc.keys, "keys", "0x2FFF", "held key mask")
	flags.StringVar(&sc.from, "from", "", "start of the time range")
	flags.StringVar(&sc.to, "to", "", "end of the time range (inclusive)")
	flags.StringVar(&sc.timer0Min, "timer0-min", "", "timer0 lower bound (default: cartridge table)")
	flags.StringVar(&sc.timer0Max, "timer0-max", "", "timer0 upper bound")
	flags.StringVar(&sc.vcountMin, "vcount-min", "", "vcount lower bound (default: cartridge table)")
	flags.StringVar(&sc.vcountMax, "vcount-max", "", "vcount upper bound")
	flags.StringSliceVarP(&sc.targets, "target", "t", nil, "target seed, repeatable")
	flags.IntVar(&sc.units, "units", 0, "execution units (default: config, then one per CPU)")
	flags.IntVar(&sc.batchSize, "batch", 0, "candidates per kernel call (default: config)")
	flags.StringVar(&sc.kernelName, "kernel", "", "kernel implementation: quad or scalar (default: config)")
	flags.BoolVar(&sc.noColor, "no-color", false, "disable colored output")

	for _, required := range []string{"mac", "from", "to"} {
		_ = cmd.MarkFlagRequired(required)
	}

	return cmd
}

func (sc *SearchCommand) run(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(sc.configPath)
	if err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    "seedgrind",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
		OTLPHeaders:    observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders),
		SampleRatio:    cfg.Telemetry.SampleRatio,
		LogLevel:       level,
		LogJSON:        cfg.Log.JSON,
	})
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if shutdownErr := providers.Shutdown(shutdownCtx); shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown", "error", shutdownErr)
		}
	}()

	logger := providers.Logger
	slog.SetDefault(logger)

	meter := providers.Meter

	if cfg.Telemetry.MetricsAddr != "" {
		handler, mp, promErr := observability.PrometheusHandler()
		if promErr != nil {
			return promErr
		}

		meter = mp.Meter("seedgrind")

		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)

		go func() {
			serveErr := http.ListenAndServe(cfg.Telemetry.MetricsAddr, mux)
			if serveErr != nil {
				logger.Warn("metrics listener stopped", "error", serveErr)
			}
		}()
	}

	metrics, err := observability.NewSearchMetrics(meter)
	if err != nil {
		return err
	}

	cond, targets, err := sc.buildConditions()
	if err != nil {
		return err
	}

	eng := search.New(search.Config{
		Logger:  logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
		Partitioner: keyspace.NewPartitioner(keyspace.Config{
			MemoryBudget: cfg.MemoryBudgetBytes(),
			Logger:       logger,
		}),
		NewKernel:         kernelFactory(firstNonEmpty(sc.kernelName, cfg.Search.Kernel)),
		UnitCount:         firstPositive(sc.units, cfg.Search.Units),
		BatchSize:         firstPositive(sc.batchSize, cfg.Search.BatchSize),
		AggregateInterval: time.Duration(cfg.Search.ProgressIntervalMS) * time.Millisecond,
		StallTimeout:      time.Duration(cfg.Search.StallTimeoutSec) * time.Second,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = eng.Start(ctx, cond, targets)
	if err != nil {
		return err
	}

	return consumeEvents(cmd.OutOrStdout(), eng, sc.noColor)
}

// buildConditions converts the raw flags into engine inputs.
func (sc *SearchCommand) buildConditions() (search.Conditions, []uint32, error) {
	var cond search.Conditions

	mac, err := parseMAC(sc.mac)
	if err != nil {
		return cond, nil, err
	}

	keys, err := parseUint32(sc.keys)
	if err != nil {
		return cond, nil, fmt.Errorf("parse --keys: %w", err)
	}

	from, err := parseTime(sc.from)
	if err != nil {
		return cond, nil, fmt.Errorf("parse --from: %w", err)
	}

	to, err := parseTime(sc.to)
	if err != nil {
		return cond, nil, fmt.Errorf("parse --to: %w", err)
	}

	timer0, err := parseRange(sc.timer0Min, sc.timer0Max)
	if err != nil {
		return cond, nil, fmt.Errorf("parse --timer0: %w", err)
	}

	vcount, err := parseRange(sc.vcountMin, sc.vcountMax)
	if err != nil {
		return cond, nil, fmt.Errorf("parse --vcount: %w", err)
	}

	if len(sc.targets) == 0 {
		return cond, nil, ErrNoTargetSeed
	}

	targets := make([]uint32, 0, len(sc.targets))

	for _, raw := range sc.targets {
		seed, parseErr := parseUint32(raw)
		if parseErr != nil {
			return cond, nil, fmt.Errorf("parse --target %q: %w", raw, parseErr)
		}

		targets = append(targets, seed)
	}

	cond = search.Conditions{
		Version:   romdata.Version(strings.ToUpper(sc.rom)),
		Region:    romdata.Region(strings.ToUpper(sc.region)),
		Hardware:  romdata.Hardware(strings.ToUpper(sc.hardware)),
		MAC:       mac,
		KeyInput:  keys,
		Timer0:    timer0,
		VCount:    vcount,
		TimeStart: from,
		TimeEnd:   to,
	}

	return cond, targets, nil
}

func kernelFactory(name string) func(int) kernel.Kernel {
	if name == "scalar" {
		return func(int) kernel.Kernel { return kernel.NewScalar() }
	}

	return func(int) kernel.Kernel { return kernel.NewQuad() }
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}

	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func parseMAC(raw string) ([6]byte, error) {
	var mac [6]byte

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != len(mac) {
		return mac, ErrBadMAC
	}

	for i, p := range parts {
		octet, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return mac, fmt.Errorf("%w: %q", ErrBadMAC, raw)
		}

		mac[i] = byte(octet)
	}

	return mac, nil
}

func parseUint32(raw string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}

	return uint32(v), nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range acceptedTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, raw)
}

// parseRange builds an inclusive register range from a pair of flag values.
// Both empty selects the cartridge defaults.
func parseRange(rawMin, rawMax string) (keyspace.Range, error) {
	if rawMin == "" && rawMax == "" {
		return keyspace.Range{}, nil
	}

	if rawMin == "" || rawMax == "" {
		return keyspace.Range{}, ErrBadRange
	}

	minV, err := parseUint32(rawMin)
	if err != nil {
		return keyspace.Range{}, err
	}

	maxV, err := parseUint32(rawMax)
	if err != nil {
		return keyspace.Range{}, err
	}

	return keyspace.Range{Min: minV, Max: maxV}, nil
}
