package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codetrack/internal/config"
	"github.com/fakeyudi/codetrack/internal/export"
	"github.com/fakeyudi/codetrack/internal/store"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export collected events, sessions and 30-day stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}
		st, err := store.Open(dataDir)
		if err != nil {
			return err
		}

		format := exportFormat
		if format == "" {
			format = GetConfig().ExportFormat
		}

		snapshot := export.Build(st, export.NewMetadata("", version))

		var data []byte
		ext := ".json"
		switch format {
		case "json":
			data, err = export.RenderJSON(snapshot)
		case "csv":
			data, err = export.RenderCSV(snapshot)
			ext = ".csv"
		default:
			return fmt.Errorf("unknown export format %q (want json or csv)", format)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := exportOut
		if out == "" {
			out = "codetrack-" + time.Now().Format("20060102-150405") + ext
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d events to %s\n", snapshot.TotalEvents, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Export format: json or csv (overrides config)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: codetrack-<timestamp>.<ext>)")
	rootCmd.AddCommand(exportCmd)
}
