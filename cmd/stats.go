package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/codetrack/internal/config"
	"github.com/fakeyudi/codetrack/internal/stats"
	"github.com/fakeyudi/codetrack/internal/store"
)

var statsDays int

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	scoreStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	streakStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show activity statistics for the trailing window",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}
		st, err := store.Open(dataDir)
		if err != nil {
			return err
		}

		s := stats.ComputeNow(st.Events(), statsDays)
		printStats(cmd, s)
		return nil
	},
}

func printStats(cmd *cobra.Command, s stats.Stats) {
	styled := term.IsTerminal(os.Stdout.Fd())
	style := func(st lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return st.Render(text)
	}

	cmd.Println(style(titleStyle, fmt.Sprintf("Activity — last %d day(s)", s.WindowDays)))
	cmd.Printf("%s %d\n", style(labelStyle, "Events:"), s.TotalEvents)
	cmd.Printf("%s %s\n", style(labelStyle, "Active time:"), fmtMillis(s.ActiveTime))
	cmd.Printf("%s %s\n", style(labelStyle, "Coding time:"), fmtMillis(s.CodingTime))
	cmd.Printf("%s %s\n", style(labelStyle, "Debug time:"), fmtMillis(s.DebugTime))
	cmd.Printf("%s %s\n", style(labelStyle, "Productivity:"), style(scoreStyle, fmt.Sprintf("%.0f/100", s.ProductivityScore)))
	cmd.Printf("%s %s\n", style(labelStyle, "Streak:"),
		style(streakStyle, fmt.Sprintf("%d day(s) current, %d longest", s.CurrentStreak, s.LongestStreak)))

	if len(s.TopFiles) > 0 {
		cmd.Println()
		cmd.Println(style(titleStyle, "Top files"))
		for _, f := range s.TopFiles {
			cmd.Printf("  %-40s %4d edits  %s\n", trim(f.FileName, 40), f.EditCount, fmtMillis(f.SessionTime))
		}
	}
	if len(s.TopLanguages) > 0 {
		cmd.Println()
		cmd.Println(style(titleStyle, "Top languages"))
		for _, l := range s.TopLanguages {
			cmd.Printf("  %-15s %s (%d files)\n", l.Language, fmtMillis(l.Time), l.FileCount)
		}
	}
	if len(s.TopCommands) > 0 {
		cmd.Println()
		cmd.Println(style(titleStyle, "Top commands"))
		for _, c := range s.TopCommands {
			cmd.Printf("  %-40s %4d\n", trim(c.Command, 40), c.Count)
		}
	}

	cmd.Println()
	cmd.Println(style(titleStyle, "Daily activity"))
	maxEvents := 0
	for _, d := range s.Daily {
		if d.Events > maxEvents {
			maxEvents = d.Events
		}
	}
	for _, d := range s.Daily {
		bar := ""
		if maxEvents > 0 {
			bar = strings.Repeat("█", d.Events*30/maxEvents)
		}
		cmd.Printf("  %s %5d %s\n", d.Date, d.Events, style(barStyle, bar))
	}
}

// fmtMillis renders a millisecond count as a compact duration like "2h15m".
func fmtMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Minute).String()
}

// trim keeps the last n runes of s, prefixing an ellipsis when it had to cut.
func trim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Window size in days")
	rootCmd.AddCommand(statsCmd)
}
