package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/CTAG07/Sundew/pkg/manifest"
	"github.com/CTAG07/Sundew/pkg/markdown"
	"github.com/CTAG07/Sundew/pkg/site"
	"github.com/spf13/pflag"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// options are the command line settings. Flags that were not given leave the
// config file values alone.
type options struct {
	configPath string
	siteDir    string
	outputDir  string
	addr       string
	logLevel   string
	engine     string
	serve      bool
	watch      bool
	flags      *pflag.FlagSet
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	flags := pflag.NewFlagSet("sundew", pflag.ContinueOnError)
	flags.StringVarP(&o.configPath, "config", "c", "./sundew.json", "Path of the JSON config file")
	flags.StringVarP(&o.siteDir, "site", "s", "", "Site directory containing site.txt")
	flags.StringVarP(&o.outputDir, "output", "o", "", "Output directory")
	flags.BoolVar(&o.serve, "serve", false, "Build, then serve the output with the preview API")
	flags.StringVar(&o.addr, "addr", "", "Preview server listen address")
	flags.BoolVarP(&o.watch, "watch", "w", false, "Rebuild when site files change (with --serve)")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&o.engine, "engine", "", "Markdown engine: classic|goldmark")
	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "sundew", Version)
		fmt.Fprintln(os.Stderr, "Usage: sundew [flags] [<site_dir> [<output_dir>]]")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	rest := flags.Args()
	if len(rest) > 2 {
		return nil, fmt.Errorf("too many arguments: %s", strings.Join(rest, " "))
	}
	if len(rest) > 0 && o.siteDir == "" {
		o.siteDir = rest[0]
	}
	if len(rest) > 1 && o.outputDir == "" {
		o.outputDir = rest[1]
	}
	o.flags = flags
	return o, nil
}

// apply overrides config values with the flags that were set.
func (o *options) apply(config *Config) {
	if o.siteDir != "" {
		config.Build.SiteDir = o.siteDir
	}
	if o.outputDir != "" {
		config.Build.OutputDir = o.outputDir
	}
	if o.flags.Changed("log-level") {
		config.Build.LogLevel = o.logLevel
	}
	if o.flags.Changed("engine") {
		config.Build.MarkdownEngine = o.engine
	}
	if o.flags.Changed("addr") {
		config.Server.Addr = o.addr
	}
	if o.flags.Changed("watch") {
		config.Server.Watch = o.watch
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if !opts.serve {
		if err = buildOnce(opts); err != nil {
			baseLogger.Error("Build failed", "error", err)
			os.Exit(1)
		}
		return
	}

	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan // Wait for a signal
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := serve(opts, actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			os.Exit(1)
		}
		if action != actionRestart {
			break
		}
		baseLogger.Info("--- Server Restarting ---")
	}

	baseLogger.Info("Sundew has shut down.")
}

// env is the state shared by a build run and a serve cycle.
type env struct {
	config  *Config
	logger  *slog.Logger
	db      *sql.DB
	store   *manifest.Store
	builder *site.Builder
}

func setup(opts *options) (*env, error) {
	config, err := LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	opts.apply(config)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(config.Build.LogLevel)}))

	converter, err := markdown.New(config.Build.MarkdownEngine)
	if err != nil {
		return nil, err
	}

	e := &env{config: config, logger: logger}
	if config.Build.ManifestPath != "" {
		if e.db, e.store, err = openManifest(config.Build.ManifestPath, logger); err != nil {
			return nil, err
		}
	}

	e.builder = site.NewBuilder(logger, site.Options{
		SiteDir:       config.Build.SiteDir,
		OutputDir:     config.Build.OutputDir,
		Converter:     converter,
		Templates:     config.Templates,
		Manifest:      e.store,
		CopyAssets:    config.Build.CopyAssets,
		SkipUnchanged: config.Build.SkipUnchanged,
	})
	return e, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.db != nil {
		e.logger.Info("Closing database connection.")
		if err := e.db.Close(); err != nil {
			e.logger.Error("Failed to close database", "error", err)
		}
	}
}

func openManifest(dataSource string, logger *slog.Logger) (*sql.DB, *manifest.Store, error) {
	db, err := initDB(dataSource)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open manifest database: %w", err)
	}
	if err = manifest.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup manifest schema: %w", err)
	}
	store, err := manifest.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store.SetLogger(logger)
	return db, store, nil
}

// manifestFile returns the file behind a SQLite data source name.
func manifestFile(dataSource string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dataSource, "file:"), "?")
	return path
}

func buildOnce(opts *options) error {
	e, err := setup(opts)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	_, err = e.builder.Build(ctx)
	return err
}

// serve builds the site and hosts the preview server until an action arrives
// on actionChan. It returns that action.
func serve(opts *options, actionChan chan string) (string, error) {
	e, err := setup(opts)
	if err != nil {
		return "", err
	}
	defer e.close()
	e.logger.Info("Starting server cycle...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := newBuildWorker(e.builder, e.logger)
	_, _ = worker.BuildNow(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	if e.config.Server.Watch {
		ignore := []string{e.config.Build.OutputDir, opts.configPath}
		if e.config.Build.ManifestPath != "" {
			ignore = append(ignore, manifestFile(e.config.Build.ManifestPath))
		}
		debounce := time.Duration(e.config.Server.DebounceMs) * time.Millisecond
		sw, err := newSiteWatcher(e.logger, e.config.Build.SiteDir, ignore, debounce, worker.Request)
		if err != nil {
			cancel()
			wg.Wait()
			return "", fmt.Errorf("failed to watch site: %w", err)
		}
		go sw.Run(ctx)
		e.logger.Info("Watching site for changes", "dir", e.config.Build.SiteDir)
	}

	cm := NewConfigManager(e.config, opts.configPath, e.logger)
	server := NewServer(cm, e.logger, e.builder, worker, e.store, actionChan)
	httpServer := &http.Server{
		Addr:              e.config.Server.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		abs, _ := filepath.Abs(e.config.Build.OutputDir)
		e.logger.Info("Starting preview server", "address", httpServer.Addr, "output_dir", abs)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("Preview server failed", "error", err)
		}
	}()

	action := <-actionChan // Block here until API or OS signal sends an action.

	e.logger.Info("Stopping server for " + action + "...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		e.logger.Error("Preview server shutdown failed", "error", err)
	}
	e.logger.Info("HTTP server stopped.")
	wg.Wait()
	return action, nil
}
