package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/poswatch/config"
	"github.com/rustyeddy/poswatch/journal"
	"github.com/rustyeddy/poswatch/monitor"
	"github.com/rustyeddy/poswatch/notify"
	"github.com/rustyeddy/poswatch/source"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the positions monitor",
	Long: `Start polling the configured positions page and alerting on changes.

Settings come from the config file (--config), POSWATCH_* environment
variables (a .env file is honored), and flags, in increasing precedence.

Examples:
  poswatch run
  poswatch run --config poswatch.yaml --table --sound
  poswatch run --url https://nof1.ai/models/deepseek-chat-v3.1 --interval 10s`,
	RunE: runMonitor,
}

var (
	runConfigPath string
	runURL        string
	runFile       string
	runModel      string
	runInterval   string
	runCooldown   string

	runNotify bool
	runSound  bool
	runPopup  bool
	runTable  bool

	runLogFile   string
	runDBPath    string
	runSnapshots string
	runLatest    string

	runDebug bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVar(&runURL, "url", "", "positions page URL to watch")
	runCmd.Flags().StringVar(&runFile, "file", "", "watch a text file instead of a URL")
	runCmd.Flags().StringVar(&runModel, "model", "", "display name of the watched model")
	runCmd.Flags().StringVar(&runInterval, "interval", "", "poll interval (default 10s)")
	runCmd.Flags().StringVar(&runCooldown, "cooldown", "", "retry cooldown after a failed fetch (default 30s)")

	runCmd.Flags().BoolVar(&runNotify, "notify", false, "enable desktop notifications")
	runCmd.Flags().BoolVar(&runSound, "sound", false, "enable sound alerts")
	runCmd.Flags().BoolVar(&runPopup, "popup", false, "enable popup window with details")
	runCmd.Flags().BoolVar(&runTable, "table", false, "enable terminal table visualization")

	runCmd.Flags().StringVar(&runLogFile, "log", "", "append-only change log path")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "SQLite event journal path (empty disables)")
	runCmd.Flags().StringVar(&runSnapshots, "snapshots", "", "snapshot artifact directory (empty disables)")
	runCmd.Flags().StringVar(&runLatest, "latest", "", "latest-state HTML view path (empty disables)")

	runCmd.Flags().BoolVar(&runDebug, "debug", false, "verbose development logging")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// .env is optional; real environment wins either way.
	_ = godotenv.Load()

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	sinks, err := notify.BuildSinks(enabledCapabilities(cfg), os.Stdout)
	if err != nil {
		return err
	}
	sinkTimeout, _ := cfg.SinkTimeout()
	dispatcher := notify.NewDispatcher(sinks, sinkTimeout, logger)

	writers, closeWriters, err := buildWriters(cfg)
	if err != nil {
		return err
	}
	defer closeWriters()

	interval, _ := cfg.Interval()
	cooldown, _ := cfg.Cooldown()

	printBanner(cfg, sinks)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := monitor.New(src, dispatcher, writers, monitor.Options{
		Model:           cfg.Target.Model,
		Interval:        interval,
		Cooldown:        cooldown,
		StartupAttempts: cfg.Monitor.StartupAttempts,
	}, logger)

	return loop.Run(ctx)
}

func loadRunConfig() (*config.Config, error) {
	var cfg *config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	// Flags take precedence over file and environment.
	if runURL != "" {
		cfg.Target.URL = runURL
	}
	if runFile != "" {
		cfg.Target.File = runFile
	}
	if runModel != "" {
		cfg.Target.Model = runModel
	}
	if runInterval != "" {
		cfg.Monitor.Interval = runInterval
	}
	if runCooldown != "" {
		cfg.Monitor.Cooldown = runCooldown
	}
	if runLogFile != "" {
		cfg.Journal.LogFile = runLogFile
	}
	if runDBPath != "" {
		cfg.Journal.DBPath = runDBPath
	}
	if runSnapshots != "" {
		cfg.Journal.SnapshotDir = runSnapshots
	}
	if runLatest != "" {
		cfg.Journal.LatestView = runLatest
	}
	if runNotify {
		cfg.Alerts.Desktop = true
	}
	if runSound {
		cfg.Alerts.Sound = true
	}
	if runPopup {
		cfg.Alerts.Popup = true
	}
	if runTable {
		cfg.Alerts.Table = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if runDebug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.Target.File != "" {
		return source.NewFileSource(cfg.Target.File), nil
	}
	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}
	return source.NewHTTPSource(cfg.Target.URL, timeout), nil
}

func enabledCapabilities(cfg *config.Config) []notify.Capability {
	var caps []notify.Capability
	if cfg.Alerts.Desktop {
		caps = append(caps, notify.Desktop)
	}
	if cfg.Alerts.Sound {
		caps = append(caps, notify.Sound)
	}
	if cfg.Alerts.Popup {
		caps = append(caps, notify.Popup)
	}
	if cfg.Alerts.Table {
		caps = append(caps, notify.Table)
	}
	return caps
}

func buildWriters(cfg *config.Config) (monitor.Writers, func(), error) {
	var w monitor.Writers
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	log, err := journal.OpenJSONL(cfg.Journal.LogFile)
	if err != nil {
		return w, closeAll, err
	}
	w.Log = log
	closers = append(closers, func() { _ = log.Close() })

	if cfg.Journal.DBPath != "" {
		events, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			closeAll()
			return monitor.Writers{}, func() {}, fmt.Errorf("open event journal: %w", err)
		}
		w.Events = events
		closers = append(closers, func() { _ = events.Close() })
	}

	if cfg.Journal.SnapshotDir != "" {
		snaps, err := journal.NewSnapshotDir(cfg.Journal.SnapshotDir)
		if err != nil {
			closeAll()
			return monitor.Writers{}, func() {}, err
		}
		w.Snapshots = snaps
	}

	if cfg.Journal.LatestView != "" {
		w.Latest = journal.NewLatestView(cfg.Journal.LatestView)
	}

	return w, closeAll, nil
}

func printBanner(cfg *config.Config, sinks []notify.Sink) {
	target := cfg.Target.URL
	if cfg.Target.File != "" {
		target = cfg.Target.File + " (file)"
	}
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Positions monitor started: %s\n", cfg.Target.Model)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Target:      %s\n", target)
	fmt.Printf("Interval:    %s (cooldown %s)\n", cfg.Monitor.Interval, cfg.Monitor.Cooldown)
	fmt.Printf("Change log:  %s\n", cfg.Journal.LogFile)
	if cfg.Journal.DBPath != "" {
		fmt.Printf("Event DB:    %s\n", cfg.Journal.DBPath)
	}
	if cfg.Journal.SnapshotDir != "" {
		fmt.Printf("Snapshots:   %s\n", cfg.Journal.SnapshotDir)
	}
	if cfg.Journal.LatestView != "" {
		fmt.Printf("Latest view: %s\n", cfg.Journal.LatestView)
	}
	fmt.Printf("Alerts:      %s\n", strings.Join(names, ", "))
	fmt.Println(strings.Repeat("=", 60))
}
