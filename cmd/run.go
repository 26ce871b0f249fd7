package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codetrack/internal/collector"
	"github.com/fakeyudi/codetrack/internal/config"
	"github.com/fakeyudi/codetrack/internal/retention"
	"github.com/fakeyudi/codetrack/internal/sync"
)

var runSpoolPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the collector: ingest the notification spool until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if !cfg.EnableTracking {
			return fmt.Errorf("tracking is disabled (enableTracking=false)")
		}

		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}

		svc, err := collector.New(cfg, dataDir)
		if err != nil {
			return err
		}

		spool := runSpoolPath
		if spool == "" {
			spool = filepath.Join(dataDir, "spool.jsonl")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Background maintenance loops operate on the store independently
		// of the ingestion path.
		rm := retention.New(svc.Store(), cfg.DataRetentionDays, filepath.Join(dataDir, "archive"))
		go rm.Run(ctx)

		if cfg.EnableSync && cfg.APIURL != "" {
			client := sync.New(cfg.APIURL, cfg.APIToken, filepath.Join(dataDir, "sync-state.json"))
			go client.Run(ctx, svc.Store(), sync.DefaultInterval)
		}

		fmt.Printf("Collecting from %s (ctrl-c to stop)\n", spool)
		watchErr := collector.WatchSpool(ctx, spool, svc)

		if err := svc.Dispose(); err != nil {
			return fmt.Errorf("shutting down collector: %w", err)
		}
		return watchErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runSpoolPath, "spool", "", "Notification spool file to tail (default: <data-dir>/spool.jsonl)")
	rootCmd.AddCommand(runCmd)
}
