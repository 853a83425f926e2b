// Package main provides the automation worker: a long-running process that
// serves UI automation operations over a line-delimited JSON protocol on its
// standard input and output.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/forge-automation/pkg/automation"
	"github.com/entrhq/forge-automation/pkg/config"
	"github.com/entrhq/forge-automation/pkg/host"
	"github.com/entrhq/forge-automation/pkg/logging"
	"github.com/entrhq/forge-automation/pkg/operation"
	"github.com/entrhq/forge-automation/pkg/session"
	"github.com/entrhq/forge-automation/pkg/tools/desktop"
	"github.com/entrhq/forge-automation/pkg/tools/element"
	"github.com/entrhq/forge-automation/pkg/tools/monitoring"
)

const version = "0.1.0"

// shutdownGrace bounds how long shutdown waits for an in-flight operation.
var shutdownGrace = 10 * time.Second

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("worker")
	if err != nil {
		debugLog.Warnf("Failed to initialize worker logger, using stderr fallback: %v", err)
	}
}

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile     string
	Headless       bool
	StartURL       string
	Verbosity      string
	SkipInstall    bool
	ShowVersion    bool
	ListOperations bool

	// set records which flags were given explicitly; only those override
	// the config file.
	set map[string]bool
}

func main() {
	cli := parseFlags(os.Args[1:])

	if cli.ShowVersion {
		fmt.Printf("Forge Automation Worker v%s\n", version)
		return
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cli.ListOperations {
		listOperations(os.Stdout, cfg)
		return
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		debugLog.Infof("Received %s, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		cancel()
		debugLog.Errorf("Worker failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags(args []string) *CLIConfig {
	cli := &CLIConfig{set: make(map[string]bool)}
	fs := flag.NewFlagSet("automation-worker", flag.ExitOnError)

	fs.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	fs.BoolVar(&cli.Headless, "headless", true, "Run the browser without a window")
	fs.StringVar(&cli.StartURL, "start-url", "", "URL to open once the browser is ready")
	fs.StringVar(&cli.Verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug")
	fs.BoolVar(&cli.SkipInstall, "skip-install", false, "Use an installed browser instead of downloading one")
	fs.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")
	fs.BoolVar(&cli.ListOperations, "list-operations", false, "List available operations and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Forge Automation Worker - UI automation over stdin/stdout\n\n")
		fmt.Fprintf(os.Stderr, "Usage: automation-worker [options]\n\n")
		fmt.Fprintf(os.Stderr, "Reads one JSON request per line from stdin and writes one JSON response\n")
		fmt.Fprintf(os.Stderr, "per line to stdout. Logs go to $%s or ~/.forge/logs.\n\n", logging.LogDirEnv)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  echo '{\"operation\":\"FindElements\",\"parameters\":{\"name\":\"Search\"}}' | \\\n")
		fmt.Fprintf(os.Stderr, "    automation-worker -start-url https://example.com\n\n")
	}

	_ = fs.Parse(args)
	fs.Visit(func(f *flag.Flag) {
		cli.set[f.Name] = true
	})
	return cli
}

// loadConfig loads the config file and applies explicitly given flags over it
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cli.set["headless"] {
		cfg.Browser.Headless = cli.Headless
	}
	if cli.set["start-url"] {
		cfg.Browser.StartURL = cli.StartURL
	}
	if cli.set["skip-install"] {
		cfg.Browser.SkipInstall = cli.SkipInstall
	}
	if cli.set["verbosity"] {
		cfg.Logging.Verbosity = cli.Verbosity
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSessionManager builds the session manager from the session limits
func newSessionManager(cfg *config.Config) *session.Manager {
	opts := []session.Option{
		session.WithMaxEvents(cfg.Sessions.MaxEvents),
		session.WithMaxSessions(cfg.Sessions.MaxSessions),
	}
	if cfg.Sessions.EventsPerSecond > 0 {
		opts = append(opts, session.WithEventRate(cfg.Sessions.EventsPerSecond, cfg.Sessions.EventBurst))
	}
	return session.NewManager(opts...)
}

// buildRegistry registers every operation. Duplicate names are a programming
// error and panic.
func buildRegistry(cfg *config.Config, platform automation.Platform, manager *session.Manager) *operation.Registry {
	reg := operation.NewRegistry()
	mustRegister(monitoring.Register(reg, manager, platform, cfg.Sessions.MaxAge))
	mustRegister(element.Register(reg, platform))
	mustRegister(desktop.Register(reg, platform, nil))
	return reg
}

func mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("operation registration failed: %v", err))
	}
}

// listOperations prints each operation the config permits with its description
func listOperations(w io.Writer, cfg *config.Config) {
	filter, _ := cfg.Filter()
	reg := buildRegistry(cfg, nil, newSessionManager(cfg))
	for _, name := range reg.Names() {
		if !filter.IsAllowed(name) {
			continue
		}
		op, _ := reg.Resolve(name)
		fmt.Fprintf(w, "%-24s %s\n", name, operation.Describe(op))
	}
}

// run launches the platform and serves requests until the input ends or ctx
// is cancelled
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	level, err := logging.ParseVerbosity(cfg.Logging.Verbosity)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	debugLog.Infof("Starting automation worker v%s (run %s)", version, logging.GetRunID())

	platform, err := automation.Launch(automation.LaunchOptions{
		Headless:    cfg.Browser.Headless,
		SkipInstall: cfg.Browser.SkipInstall,
		StartURL:    cfg.Browser.StartURL,
		Width:       cfg.Browser.Width,
		Height:      cfg.Browser.Height,
		Timeout:     cfg.Browser.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to start automation platform: %w", err)
	}

	return serve(ctx, cfg, platform, in, out)
}

// serve runs the request loop over an already started platform and releases
// the platform and every session when the loop ends.
func serve(ctx context.Context, cfg *config.Config, platform automation.Platform, in io.Reader, out io.Writer) error {
	manager := newSessionManager(cfg)
	defer func() {
		if err := manager.DisposeAll(); err != nil {
			debugLog.Warnf("Failed to dispose sessions: %v", err)
		}
		if err := platform.Close(); err != nil {
			debugLog.Warnf("Failed to close platform: %v", err)
		}
		debugLog.Infof("Worker stopped")
	}()

	filter, err := cfg.Filter()
	if err != nil {
		return err
	}
	reg := buildRegistry(cfg, platform, manager)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go manager.RunSweeper(sweepCtx, cfg.Sessions.SweepInterval, cfg.Sessions.MaxAge)

	h := host.New(reg, in, out,
		host.WithFilter(filter),
		host.WithMaxLineBytes(cfg.Protocol.MaxLineBytes),
	)

	// The host blocks reading input, so a signal is observed here rather
	// than inside the loop.
	done := make(chan error, 1)
	go func() {
		done <- h.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	// Let an operation already running finish and write its response before
	// sessions and the platform are released. A loop blocked on input is
	// abandoned once the grace period ends.
	debugLog.Infof("Shutdown requested")
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		debugLog.Warnf("Request loop still busy after %s, shutting down anyway", shutdownGrace)
	}
	return nil
}
