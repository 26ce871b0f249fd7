package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codetrack/internal/config"
	"github.com/fakeyudi/codetrack/internal/store"
	"github.com/fakeyudi/codetrack/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push unsynced events and sessions to the remote store now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.APIURL == "" {
			return fmt.Errorf("no apiUrl configured")
		}

		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}
		st, err := store.Open(dataDir)
		if err != nil {
			return err
		}

		client := sync.New(cfg.APIURL, cfg.APIToken, filepath.Join(dataDir, "sync-state.json"))
		res := client.Sync(cmd.Context(), st)

		switch res.Status {
		case sync.StatusNoNewData:
			cmd.Println("Nothing to sync: no new data since last sync.")
		case sync.StatusSynced:
			cmd.Printf("Synced %d event(s) and %d session(s).\n", res.Events, res.Sessions)
		case sync.StatusFailed:
			return fmt.Errorf("sync failed: %s", res.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
