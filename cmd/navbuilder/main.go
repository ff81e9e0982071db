package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/navbuilder/internal/config"
	"git.home.luguber.info/inful/navbuilder/internal/docs"
	"git.home.luguber.info/inful/navbuilder/internal/events"
	"git.home.luguber.info/inful/navbuilder/internal/history"
	"git.home.luguber.info/inful/navbuilder/internal/linkverify"
	"git.home.luguber.info/inful/navbuilder/internal/logfields"
	"git.home.luguber.info/inful/navbuilder/internal/metrics"
	"git.home.luguber.info/inful/navbuilder/internal/nav"
	"git.home.luguber.info/inful/navbuilder/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Root          string `short:"r" help:"Docs tree root (overrides config)"`
		SkipUnchanged bool   `help:"Skip the build when the annotated index is unchanged since the last recorded run"`
	} `cmd:"" help:"Generate the navigation document from the annotated index"`

	Discover struct {
		Root string `short:"r" help:"Docs tree root (overrides config)"`
	} `cmd:"" help:"List documentation file descriptors without building"`

	Verify struct {
		Root string `short:"r" help:"Docs tree root (overrides config)"`
	} `cmd:"" help:"Check that every navigation link resolves"`

	Watch struct {
		Root string `short:"r" help:"Docs tree root (overrides config)"`
	} `cmd:"" help:"Rebuild the navigation document whenever the annotated index changes"`

	History struct {
		Limit int `short:"n" help:"Maximum runs to list" default:"20"`
	} `cmd:"" help:"List recorded navigation builds"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "build":
		cfg := loadConfig()
		if err := runBuild(cfg, CLI.Build.Root, CLI.Build.SkipUnchanged); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "discover":
		cfg := loadConfig()
		if err := runDiscover(cfg, CLI.Discover.Root); err != nil {
			slog.Error("Discover failed", logfields.Error(err))
			os.Exit(1)
		}
	case "verify":
		cfg := loadConfig()
		if err := runVerify(cfg, CLI.Verify.Root); err != nil {
			slog.Error("Verify failed", logfields.Error(err))
			os.Exit(1)
		}
	case "watch":
		cfg := loadConfig()
		if err := runWatch(cfg, CLI.Watch.Root); err != nil {
			slog.Error("Watch failed", logfields.Error(err))
			os.Exit(1)
		}
	case "history":
		cfg := loadConfig()
		if err := runHistory(cfg, CLI.History.Limit); err != nil {
			slog.Error("History failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		slog.Info("Configuration written", logfields.Path(CLI.Config))
	}
}

// loadConfig reads the configured file, falling back to built-in defaults so
// the tool runs against the current directory with no config at all.
func loadConfig() *config.Config {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", logfields.Path(CLI.Config))
		return config.Default()
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	return cfg
}

func effectiveRoot(cfg *config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.Site.Root
}

func runBuild(cfg *config.Config, rootOverride string, skipUnchanged bool) error {
	ctx := context.Background()
	root := effectiveRoot(cfg, rootOverride)

	files, err := docs.Scan(root)
	if err != nil {
		return err
	}
	slog.Info("Docs tree scanned", logfields.Path(root), slog.Int("files", len(files)))

	builder := nav.New(nav.Options{
		AnnotatedPath: cfg.Nav.AnnotatedPath,
		OutputPath:    cfg.Nav.OutputPath,
		Header:        cfg.Nav.Header,
		Stdout:        os.Stdout,
	})

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()
	}

	if skipUnchanged && store != nil {
		if annotated, ok := builder.LocateAnnotated(files); ok {
			fp, err := nav.FingerprintFile(annotated.Path)
			if err != nil {
				return err
			}
			if last, found, err := store.Last(ctx, builder.OutputPath()); err != nil {
				return err
			} else if found && last.Fingerprint == fp {
				slog.Info("Annotated index unchanged since last run, skipping",
					logfields.Fingerprint(fp), logfields.RunID(last.ID))
				return nil
			}
		}
	}

	res, err := builder.Build(root, files)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.Record(ctx, history.Run{
			ID:          res.RunID,
			Output:      builder.OutputPath(),
			Fingerprint: res.Fingerprint,
			Entries:     res.Entries,
			Duration:    res.Duration,
		}); err != nil {
			return err
		}
	}

	return publishResult(ctx, cfg, builder, res)
}

// publishResult emits a summary-generated event when NATS is configured.
// Publish failures are logged, never fatal to the build.
func publishResult(ctx context.Context, cfg *config.Config, builder *nav.Builder, res *nav.Result) error {
	if cfg.Events.NATSURL == "" {
		return nil
	}
	pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		return err
	}
	defer pub.Close()

	ev := events.SummaryGenerated{
		RunID:       res.RunID,
		Output:      builder.OutputPath(),
		Entries:     res.Entries,
		Fingerprint: res.Fingerprint,
		GeneratedAt: time.Now().UTC(),
	}
	if err := pub.PublishSummaryGenerated(ctx, ev); err != nil {
		slog.Warn("Failed to publish summary event", logfields.Error(err))
	}
	return nil
}

func runDiscover(cfg *config.Config, rootOverride string) error {
	root := effectiveRoot(cfg, rootOverride)
	files, err := docs.Scan(root)
	if err != nil {
		return err
	}

	slog.Info("Discovery completed", logfields.Path(root), slog.Int("total_files", len(files)))
	for _, f := range files {
		slog.Info("  File discovered", logfields.File(f.RelativePath), logfields.Path(f.Path))
	}

	builder := nav.New(nav.Options{AnnotatedPath: cfg.Nav.AnnotatedPath})
	if annotated, ok := builder.LocateAnnotated(files); ok {
		slog.Info("Annotated index present", logfields.File(annotated.RelativePath))
	} else {
		slog.Warn("Annotated index not present; a build would emit a header-only document",
			logfields.File(builder.AnnotatedPath()))
	}
	return nil
}

func runVerify(cfg *config.Config, rootOverride string) error {
	root := effectiveRoot(cfg, rootOverride)
	files, err := docs.Scan(root)
	if err != nil {
		return err
	}

	report, err := linkverify.VerifySummary(root, cfg.Nav.OutputPath, files)
	if err != nil {
		return err
	}

	slog.Info("Navigation document verified",
		logfields.Output(cfg.Nav.OutputPath),
		slog.Int("checked", report.Checked),
		slog.Int("skipped", report.Skipped),
		slog.Int("broken", len(report.Findings)))
	for _, f := range report.Findings {
		slog.Error("Broken navigation link", slog.String("url", f.URL), slog.String("text", f.Text))
	}
	if !report.Ok() {
		return fmt.Errorf("%d broken navigation link(s)", len(report.Findings))
	}
	return nil
}

func runWatch(cfg *config.Config, rootOverride string) error {
	root := effectiveRoot(cfg, rootOverride)

	interval, err := cfg.Watch.IntervalDuration()
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Watch.MetricsAddr != "" {
		prom := metrics.NewPrometheusRecorder(nil)
		recorder = prom
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		srv := &http.Server{Addr: cfg.Watch.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Metrics endpoint listening", logfields.Addr(cfg.Watch.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics endpoint failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.NATSURL != "" {
		publisher, err = events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	builder := nav.New(nav.Options{
		AnnotatedPath: cfg.Nav.AnnotatedPath,
		OutputPath:    cfg.Nav.OutputPath,
		Header:        cfg.Nav.Header,
		Stdout:        os.Stdout,
		Recorder:      recorder,
	})

	buildOnce := func(ctx context.Context) error {
		files, err := docs.Scan(root)
		if err != nil {
			return err
		}
		res, err := builder.Build(root, files)
		if err != nil {
			return err
		}
		if store != nil {
			if err := store.Record(ctx, history.Run{
				ID:          res.RunID,
				Output:      builder.OutputPath(),
				Fingerprint: res.Fingerprint,
				Entries:     res.Entries,
				Duration:    res.Duration,
			}); err != nil {
				slog.Warn("Failed to record run", logfields.Error(err))
			}
		}
		ev := events.SummaryGenerated{
			RunID:       res.RunID,
			Output:      builder.OutputPath(),
			Entries:     res.Entries,
			Fingerprint: res.Fingerprint,
			GeneratedAt: time.Now().UTC(),
		}
		if err := publisher.PublishSummaryGenerated(ctx, ev); err != nil {
			slog.Warn("Failed to publish summary event", logfields.Error(err))
		}
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One build up front so the document reflects the tree at startup.
	if err := buildOnce(ctx); err != nil {
		return err
	}

	annotatedAbs, err := annotatedPath(root, cfg.Nav.AnnotatedPath)
	if err != nil {
		return err
	}
	watcher, err := watch.New(annotatedAbs, cfg.Watch.DebounceDuration(), interval, buildOnce)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	slog.Info("Watching for changes, press Ctrl-C to stop")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher")
	return watcher.Stop()
}

// annotatedPath resolves where the annotated index lives (or will appear) on
// disk. The watcher monitors its directory, so the file may not exist yet.
func annotatedPath(root, virtual string) (string, error) {
	files, err := docs.Scan(root)
	if err != nil {
		return "", err
	}
	b := nav.New(nav.Options{AnnotatedPath: virtual})
	if annotated, ok := b.LocateAnnotated(files); ok {
		return annotated.Path, nil
	}
	return docs.VirtualJoin(root, virtual), nil
}

func runHistory(cfg *config.Config, limit int) error {
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled; enable history in %s", CLI.Config)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	runs, err := store.List(context.Background(), "", limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-24s  %7s  %9s\n", "RUN", "CREATED", "OUTPUT", "ENTRIES", "DURATION")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-24s  %7d  %9s\n",
			r.ID,
			r.Created.Format("2006-01-02 15:04:05"),
			r.Output,
			r.Entries,
			r.Duration.Round(time.Millisecond))
	}
	return nil
}
