package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/inkpress/vellum/internal/ingest"
)

var buildCmd = &cobra.Command{
	Use:   "build [config.yaml]",
	Short: "Walk the content tree once and commit a single revision",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		st, cache, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		// Collect the whole walk as one batch, then run one cycle on it.
		events := make(chan ingest.Event, 256)
		walker := &ingest.Walker{FS: osfs.New(cfg.ContentDir), Cache: cache}

		walkErr := make(chan error, 1)
		go func() {
			defer close(events)
			walkErr <- walker.Walk(context.Background(), ingest.DefaultPrefixes, ingest.OpUpdate, events)
		}()

		var batch []ingest.Event
		for ev := range events {
			batch = append(batch, ev)
		}
		if err := <-walkErr; err != nil {
			return err
		}

		builder := &ingest.Builder{Store: ingest.NewBuildStore(st), WorkDir: cache.Dir()}
		start := time.Now()
		rev, err := builder.Build(batch)
		if errors.Is(err, ingest.ErrNoChanges) {
			fmt.Println("No changes; nothing committed.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Committed revision %d in %v.\n", rev, time.Since(start))
		return nil
	},
}
