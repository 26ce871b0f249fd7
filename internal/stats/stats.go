// Package stats computes time-windowed activity statistics from a read-only
// slice of events. Everything here is a pure function of its input: same
// events, same output, and empty input always yields zero-valued structures.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

// IdleThreshold is the largest gap between consecutive qualifying events
// that still counts as continuous activity. Gaps at or above it are idle.
const IdleThreshold = 5 * time.Minute

// Stats is a derived snapshot over a time window. Never persisted.
type Stats struct {
	WindowDays  int   `json:"windowDays"`
	TotalEvents int   `json:"totalEvents"`
	ActiveTime  int64 `json:"activeTime"` // milliseconds
	CodingTime  int64 `json:"codingTime"`
	DebugTime   int64 `json:"debugTime"`

	TopFiles     []FileStat     `json:"topFiles"`
	TopLanguages []LanguageStat `json:"topLanguages"`
	TopCommands  []CommandStat  `json:"topCommands"`

	Daily  []DayStat  `json:"daily"`
	Hourly []HourStat `json:"hourly"` // 24 fixed buckets

	ProductivityScore float64 `json:"productivityScore"` // 0..100

	CurrentStreak int `json:"currentStreak"` // consecutive days, ending today
	LongestStreak int `json:"longestStreak"`
}

// FileStat ranks one file by edit activity.
type FileStat struct {
	FileName    string `json:"fileName"`
	EditCount   int    `json:"editCount"`
	SessionTime int64  `json:"sessionTime"` // milliseconds
}

// LanguageStat ranks one language by accumulated time.
type LanguageStat struct {
	Language  string `json:"language"`
	Time      int64  `json:"time"` // milliseconds
	FileCount int    `json:"fileCount"`
}

// CommandStat ranks one command by invocation count.
type CommandStat struct {
	Command string `json:"command"`
	Count   int    `json:"count"`
}

// DayStat is one calendar-day histogram bucket (local dates, YYYY-MM-DD).
type DayStat struct {
	Date       string `json:"date"`
	Events     int    `json:"events"`
	ActiveTime int64  `json:"activeTime"`
}

// HourStat is one local-hour histogram bucket (0-23).
type HourStat struct {
	Hour       int   `json:"hour"`
	Events     int   `json:"events"`
	ActiveTime int64 `json:"activeTime"`
}

// Compute aggregates events over the trailing windowDays ending at now.
// Streaks are computed over the full event slice rather than the windowed
// one so they are not truncated by the stats window.
func Compute(events []event.Event, windowDays int, now time.Time) Stats {
	if windowDays <= 0 {
		windowDays = 1
	}

	cutoff := now.UnixMilli() - int64(windowDays)*millisPerDay
	windowed := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp >= cutoff {
			windowed = append(windowed, ev)
		}
	}
	sortByTime(windowed)

	s := Stats{
		WindowDays:  windowDays,
		TotalEvents: len(windowed),
		ActiveTime:  activeTime(windowed, event.Active),
		CodingTime:  activeTime(windowed, event.Coding),
		DebugTime:   debugTime(windowed),

		TopFiles:     topFiles(windowed),
		TopLanguages: topLanguages(windowed),
		TopCommands:  topCommands(windowed),

		Daily:  dailyHistogram(windowed, windowDays, now),
		Hourly: hourlyHistogram(windowed),

		ProductivityScore: productivityScore(windowed),
	}
	s.CurrentStreak, s.LongestStreak = streaks(events, now)
	return s
}

// ComputeNow is Compute anchored at the wall clock.
func ComputeNow(events []event.Event, windowDays int) Stats {
	return Compute(events, windowDays, time.Now())
}

const millisPerDay = int64(24 * time.Hour / time.Millisecond)

// activeTime estimates activity by summing the gaps between consecutive
// qualifying events, discarding any gap at or above the idle threshold.
// The first qualifying event of a burst has no preceding anchor and is
// deliberately not counted.
func activeTime(sorted []event.Event, qualifies func(event.Type) bool) int64 {
	var total int64
	var prev int64 = -1
	threshold := IdleThreshold.Milliseconds()

	for _, ev := range sorted {
		if !qualifies(ev.Type) {
			continue
		}
		if prev >= 0 {
			if gap := ev.Timestamp - prev; gap > 0 && gap < threshold {
				total += gap
			}
		}
		prev = ev.Timestamp
	}
	return total
}

// mergeGaps applies the idle-threshold merge rule to a sorted timestamp
// slice.
func mergeGaps(sorted []int64) int64 {
	var total int64
	threshold := IdleThreshold.Milliseconds()
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i] - sorted[i-1]; gap > 0 && gap < threshold {
			total += gap
		}
	}
	return total
}

// debugTime pairs debug starts and stops by position. An unmatched trailing
// start contributes nothing; a stop without an open start is ignored.
func debugTime(sorted []event.Event) int64 {
	var total int64
	var openStart int64 = -1

	for _, ev := range sorted {
		switch ev.Type {
		case event.DebugStart:
			openStart = ev.Timestamp
		case event.DebugStop:
			if openStart >= 0 {
				if d := ev.Timestamp - openStart; d > 0 {
					total += d
				}
				openStart = -1
			}
		}
	}
	return total
}

// productivityScore is the weighted event sum normalized against the
// theoretical maximum, scaled to 0-100. Empty input scores 0.
func productivityScore(windowed []event.Event) float64 {
	if len(windowed) == 0 {
		return 0
	}
	var sum int
	for _, ev := range windowed {
		sum += event.Weight(ev.Type)
	}
	score := float64(sum) / float64(len(windowed)*event.MaxWeight) * 100
	return math.Min(score, 100)
}

func sortByTime(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
}
