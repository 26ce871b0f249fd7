package stats

import (
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

const dayFormat = "2006-01-02"

// dailyHistogram buckets events per local calendar day. Every day in the
// window is pre-seeded so days with no events still appear with zeros.
// Buckets are ordered oldest first.
func dailyHistogram(sorted []event.Event, windowDays int, now time.Time) []DayStat {
	perDay := make(map[string][]event.Event)
	for _, ev := range sorted {
		d := time.UnixMilli(ev.Timestamp).Format(dayFormat)
		perDay[d] = append(perDay[d], ev)
	}

	out := make([]DayStat, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(dayFormat)
		evs := perDay[date]
		out = append(out, DayStat{
			Date:       date,
			Events:     len(evs),
			ActiveTime: activeTime(evs, event.Active),
		})
	}
	return out
}

// hourlyHistogram buckets events into the 24 local hours of the day.
func hourlyHistogram(sorted []event.Event) []HourStat {
	perHour := make(map[int][]event.Event)
	for _, ev := range sorted {
		h := time.UnixMilli(ev.Timestamp).Hour()
		perHour[h] = append(perHour[h], ev)
	}

	out := make([]HourStat, 24)
	for h := 0; h < 24; h++ {
		evs := perHour[h]
		out[h] = HourStat{
			Hour:       h,
			Events:     len(evs),
			ActiveTime: activeTime(evs, event.Active),
		}
	}
	return out
}

// streaks walks local calendar days backward from today over the full event
// log. The contiguous run of non-empty days touching today is the current
// streak; the longest run anywhere is the longest streak.
func streaks(events []event.Event, now time.Time) (current, longest int) {
	if len(events) == 0 {
		return 0, 0
	}

	counts := make(map[string]int)
	oldest := now.UnixMilli()
	for _, ev := range events {
		counts[time.UnixMilli(ev.Timestamp).Format(dayFormat)]++
		if ev.Timestamp < oldest {
			oldest = ev.Timestamp
		}
	}

	today := truncateToDay(now)
	first := truncateToDay(time.UnixMilli(oldest))

	run := 0
	contiguous := true // still inside the run that touches today
	for day := today; !day.Before(first); day = day.AddDate(0, 0, -1) {
		if counts[day.Format(dayFormat)] > 0 {
			run++
			if run > longest {
				longest = run
			}
			if contiguous {
				current = run
			}
		} else {
			contiguous = false
			run = 0
		}
	}
	return current, longest
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
