package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/backtest"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/config"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/quotestore"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/report"
)

// presetEntryTimes is the sweep used by -test-multiple-times.
var presetEntryTimes = []string{"09:55", "09:56", "09:57", "09:58", "09:59", "10:00"}

// stringSlice collects repeatable flag values.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		configPath    string
		ticker        string
		wing          int
		entryTimes    stringSlice
		multipleTimes bool
		exitTime      string
		startDate     string
		endDate       string
		excludeDays   string
		output        string
		dbPath        string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&ticker, "ticker", "", "Underlying ticker (overrides config)")
	flag.IntVar(&wing, "wing", 0, "Wing width in strike points (overrides config)")
	flag.Var(&entryTimes, "entry-time", "Entry time HH:MM, repeatable (overrides config)")
	flag.BoolVar(&multipleTimes, "test-multiple-times", false,
		fmt.Sprintf("Sweep entry times %s", strings.Join(presetEntryTimes, ",")))
	flag.StringVar(&exitTime, "exit-time", "", "Hard exit time HH:MM (overrides config)")
	flag.StringVar(&startDate, "start-date", "", "First trade date YYYY-MM-DD (overrides config)")
	flag.StringVar(&endDate, "end-date", "", "Last trade date YYYY-MM-DD (overrides config)")
	flag.StringVar(&excludeDays, "exclude-days", "", "Comma-separated weekday names to skip (overrides config)")
	flag.StringVar(&output, "output", "", "Results CSV path (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Quote database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg, ticker, wing, entryTimes, exitTime, startDate, endDate, excludeDays, output, dbPath)
	if multipleTimes {
		cfg.Strategy.EntryTimes = presetEntryTimes
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Environment.LogLevel)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", cfg.Environment.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	runCfg, err := cfg.RunnerConfig()
	if err != nil {
		return err
	}

	sqlStore, err := quotestore.NewSQLiteStore(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("opening quote store: %w", err)
	}
	defer func() {
		if err := sqlStore.Close(); err != nil {
			logger.WithError(err).Warn("Closing quote store")
		}
	}()

	store := quotestore.NewRetryStore(
		quotestore.NewBreakerStore(sqlStore, logger), logger)

	runner := backtest.NewRunner(store, runCfg, logger)

	results, err := runner.RunEntryTimes(ctx, cfg.Strategy.EntryTimes)
	if err != nil {
		return err
	}

	summaries := make([]backtest.Summary, 0, len(results))
	for _, res := range results {
		report.LogSummary(logger, res.Summary)
		path := resultPath(cfg, res.EntryTime, len(results) > 1)
		if err := report.WriteTradeRecords(path, res.Records); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
		logger.WithField("path", path).Info("Results written")
		summaries = append(summaries, res.Summary)
	}

	if len(results) > 1 {
		report.LogComparison(logger, summaries)
		cmpPath := filepath.Join(outputDir(cfg), "entry_time_comparison.csv")
		if err := report.WriteComparison(cmpPath, summaries); err != nil {
			return fmt.Errorf("writing comparison: %w", err)
		}
		logger.WithField("path", cmpPath).Info("Comparison written")
	}
	return nil
}

// resultPath names the trade CSV. Multi-entry sweeps get one file per
// entry time, suffixed with the entry HHMM.
func resultPath(cfg *config.Config, entryTime string, multi bool) string {
	if !multi && cfg.Backtest.Output != "" {
		return cfg.Backtest.Output
	}
	hhmm := strings.ReplaceAll(entryTime, ":", "")
	return filepath.Join(outputDir(cfg), fmt.Sprintf("backtest_results_%s.csv", hhmm))
}

func outputDir(cfg *config.Config) string {
	if cfg.Backtest.Output == "" {
		return "."
	}
	return filepath.Dir(cfg.Backtest.Output)
}

func applyOverrides(cfg *config.Config, ticker string, wing int, entryTimes stringSlice,
	exitTime, startDate, endDate, excludeDays, output, dbPath string) {
	if ticker != "" {
		cfg.Strategy.Ticker = ticker
	}
	if wing != 0 {
		cfg.Strategy.WingWidth = wing
	}
	if len(entryTimes) > 0 {
		cfg.Strategy.EntryTimes = entryTimes
	}
	if exitTime != "" {
		cfg.Strategy.HardExitTime = exitTime
	}
	if startDate != "" {
		cfg.Strategy.DateRange.Start = startDate
	}
	if endDate != "" {
		cfg.Strategy.DateRange.End = endDate
	}
	if excludeDays != "" {
		days := strings.Split(excludeDays, ",")
		for i := range days {
			days[i] = strings.TrimSpace(days[i])
		}
		cfg.Strategy.ExcludedWeekdays = days
	}
	if output != "" {
		cfg.Backtest.Output = output
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
}
