package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codetrack/internal/config"
	"github.com/fakeyudi/codetrack/internal/store"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all collected events and sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			fmt.Print("Delete all collected activity data? [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				cmd.Println("Aborted.")
				return nil
			}
		}

		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}
		st, err := store.Open(dataDir)
		if err != nil {
			return err
		}

		if err := st.Clear(); err != nil {
			return fmt.Errorf("clearing data: %w", err)
		}
		cmd.Println("All activity data cleared.")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}
