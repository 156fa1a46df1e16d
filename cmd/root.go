package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inkpress/vellum/internal/config"
	"github.com/inkpress/vellum/internal/ingest"
	"github.com/inkpress/vellum/internal/notify"
	"github.com/inkpress/vellum/internal/store"
)

var debugFlag bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(latestCmd)
}

var rootCmd = &cobra.Command{
	Use:   "vellum [config.yaml]",
	Short: "Vellum: incremental content ingestion and revisioning",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, cache, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		notifier := notify.New()
		if cfg.Mode == config.ModeReadOnly {
			slog.Info("running read-only", "db", cfg.DBPath)
			err := st.WatchCommits(ctx, time.Second, notifier)
			if err == context.Canceled {
				return nil
			}
			return err
		}
		return runWatch(ctx, cfg, st, cache, notifier)
	},
}

// runWatch wires the full pipeline: an initial walk plus the filesystem
// watcher feed one entry channel; the batcher coalesces entries into sealed
// batches; one builder executor folds batches into revisions.
func runWatch(ctx context.Context, cfg config.Config, st *store.Store, cache *store.Cache, notifier *notify.Notifier) error {
	events := make(chan ingest.Event, 256)
	builds := make(chan []ingest.Event, 16)

	walker := &ingest.Walker{FS: osfs.New(cfg.ContentDir), Cache: cache}
	adapter, err := ingest.NewWatchAdapter(cfg.ContentDir, cache, walker, events)
	if err != nil {
		return err
	}

	builder := &ingest.Builder{
		Store:    ingest.NewBuildStore(st),
		WorkDir:  cache.Dir(),
		Notifier: notifier,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Producers share the events channel; it closes once both are done so
	// the batcher can flush and let in-flight builds finish.
	var producers sync.WaitGroup
	producers.Add(2)
	go func() {
		producers.Wait()
		close(events)
	}()

	g.Go(func() error {
		defer producers.Done()
		// Initial walk catches changes made while the process was down.
		return walker.Walk(ctx, ingest.DefaultPrefixes, ingest.OpUpdate, events)
	})
	g.Go(func() error {
		defer producers.Done()
		defer func() { _ = adapter.Close() }()
		err := adapter.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ingest.NewBatcher(ingest.DefaultQuiescence).Run(events, builds)
		return nil
	})
	g.Go(func() error {
		return builder.Run(builds)
	})

	slog.Info("watching", "content", cfg.ContentDir, "db", cfg.DBPath)
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func loadConfig(args []string) (config.Config, error) {
	b := config.NewBuilder()
	if len(args) == 1 {
		if err := b.WithFile(args[0]); err != nil {
			return config.Config{}, err
		}
	}
	if err := b.WithEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := b.Build()
	if err != nil {
		return config.Config{}, err
	}
	if debugFlag {
		cfg.Debug = true
	}
	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*store.Store, *store.Cache, error) {
	cache, err := store.NewCache(cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return st, cache, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
