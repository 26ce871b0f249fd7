package stats_test

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/codetrack/internal/event"
	"github.com/fakeyudi/codetrack/internal/stats"
)

// anchor is midday so day arithmetic stays inside one calendar day in any
// timezone offset.
var anchor = time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

func at(offset time.Duration, typ event.Type, p event.Payload) event.Event {
	if p == nil {
		p = event.GenericPayload{}
	}
	return event.Event{
		ID:        "e",
		Timestamp: anchor.Add(offset).UnixMilli(),
		Type:      typ,
		Payload:   p,
		SessionID: "s",
	}
}

func TestComputeEmptyInput(t *testing.T) {
	s := stats.Compute(nil, 7, anchor)
	if s.TotalEvents != 0 || s.ActiveTime != 0 || s.CodingTime != 0 || s.DebugTime != 0 {
		t.Errorf("empty input produced nonzero totals: %+v", s)
	}
	if s.ProductivityScore != 0 {
		t.Errorf("ProductivityScore = %v, want 0 for empty input", s.ProductivityScore)
	}
	if s.CurrentStreak != 0 || s.LongestStreak != 0 {
		t.Errorf("streaks = %d/%d, want 0/0", s.CurrentStreak, s.LongestStreak)
	}
	if len(s.Daily) != 7 {
		t.Errorf("daily buckets = %d, want 7 (zero-seeded)", len(s.Daily))
	}
	if len(s.Hourly) != 24 {
		t.Errorf("hourly buckets = %d, want 24", len(s.Hourly))
	}
}

func TestActiveTimeMergesSmallGapsOnly(t *testing.T) {
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(60*time.Second, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		// 340s gap: beyond the 5-minute idle threshold, contributes zero.
		at(400*time.Second, event.FileEdit, event.EditPayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if s.ActiveTime != 60_000 {
		t.Errorf("ActiveTime = %d, want 60000", s.ActiveTime)
	}
}

func TestActiveTimeIgnoresPassiveTypes(t *testing.T) {
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(30*time.Second, event.FileClose, event.FilePayload{FileName: "a.go"}),
		at(60*time.Second, event.FileEdit, event.EditPayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	// The passive close does not split the edit-to-edit gap.
	if s.ActiveTime != 60_000 {
		t.Errorf("ActiveTime = %d, want 60000", s.ActiveTime)
	}
}

func TestCodingTimeRestrictsToEditsAndSaves(t *testing.T) {
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(time.Minute, event.CommandExecute, event.CommandPayload{Command: "x"}),
		at(2*time.Minute, event.FileSave, event.FilePayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	// Active time anchors on edit and command only; save is not an active
	// type.
	if s.ActiveTime != 60_000 {
		t.Errorf("ActiveTime = %d, want 60000", s.ActiveTime)
	}
	// Coding time bridges edit->save directly; the command is not part of
	// the coding subsequence.
	if s.CodingTime != 120_000 {
		t.Errorf("CodingTime = %d, want 120000", s.CodingTime)
	}
}

func TestDebugTimePairsByPosition(t *testing.T) {
	t.Run("matched pair", func(t *testing.T) {
		events := []event.Event{
			at(0, event.DebugStart, event.DebugPayload{}),
			at(120*time.Second, event.DebugStop, event.DebugPayload{}),
		}
		s := stats.Compute(events, 1, anchor.Add(time.Hour))
		if s.DebugTime != 120_000 {
			t.Errorf("DebugTime = %d, want 120000", s.DebugTime)
		}
	})

	t.Run("unmatched trailing start contributes nothing", func(t *testing.T) {
		events := []event.Event{
			at(0, event.DebugStart, event.DebugPayload{}),
		}
		s := stats.Compute(events, 1, anchor.Add(time.Hour))
		if s.DebugTime != 0 {
			t.Errorf("DebugTime = %d, want 0", s.DebugTime)
		}
	})

	t.Run("stop without open start is ignored", func(t *testing.T) {
		events := []event.Event{
			at(0, event.DebugStop, event.DebugPayload{}),
			at(time.Minute, event.DebugStart, event.DebugPayload{}),
			at(2*time.Minute, event.DebugStop, event.DebugPayload{}),
		}
		s := stats.Compute(events, 1, anchor.Add(time.Hour))
		if s.DebugTime != 60_000 {
			t.Errorf("DebugTime = %d, want 60000", s.DebugTime)
		}
	})
}

// Property: the productivity score stays in [0,100] for any nonempty input.
func TestProductivityScoreClamped(t *testing.T) {
	types := []event.Type{
		event.FileCreate, event.GitCommit, event.FileEdit, event.FileSave,
		event.CommandExecute, event.EditorSwitch, event.FileOpen,
		event.FileClose, event.EditorFocusLost, event.Generic,
	}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "n")
		events := make([]event.Event, n)
		for i := range events {
			typ := types[rapid.IntRange(0, len(types)-1).Draw(t, "type")]
			events[i] = at(time.Duration(i)*time.Second, typ, nil)
		}
		s := stats.Compute(events, 1, anchor.Add(time.Hour))
		if s.ProductivityScore < 0 || s.ProductivityScore > 100 {
			t.Fatalf("score %v out of [0,100]", s.ProductivityScore)
		}
	})
}

func TestProductivityScoreAllTopWeight(t *testing.T) {
	events := []event.Event{
		at(0, event.FileCreate, event.FilePayload{FileName: "a.go"}),
		at(time.Minute, event.GitCommit, event.GitPayload{}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if s.ProductivityScore != 100 {
		t.Errorf("score = %v, want 100 for all max-weight events", s.ProductivityScore)
	}
}

func TestStreaks(t *testing.T) {
	now := anchor
	// Events on exactly the most recent 3 consecutive days, none before.
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(-24*time.Hour, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(-48*time.Hour, event.FileEdit, event.EditPayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 7, now)
	if s.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", s.CurrentStreak)
	}
	if s.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", s.LongestStreak)
	}
}

func TestStreakBrokenToday(t *testing.T) {
	events := []event.Event{
		at(-24*time.Hour, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(-48*time.Hour, event.FileEdit, event.EditPayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 7, anchor)
	if s.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0 (no events today)", s.CurrentStreak)
	}
	if s.LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", s.LongestStreak)
	}
}

func TestStreakUsesFullLogNotWindow(t *testing.T) {
	// 5 consecutive days of activity but a 2-day stats window: the streak
	// must still see all 5 days.
	var events []event.Event
	for d := 0; d < 5; d++ {
		events = append(events, at(-time.Duration(d)*24*time.Hour, event.FileEdit, event.EditPayload{FileName: "a.go"}))
	}
	s := stats.Compute(events, 2, anchor)
	if s.CurrentStreak != 5 {
		t.Errorf("CurrentStreak = %d, want 5 (streaks ignore the stats window)", s.CurrentStreak)
	}
}

func TestTopFilesRanking(t *testing.T) {
	var events []event.Event
	for i := 0; i < 3; i++ {
		events = append(events, at(time.Duration(i)*time.Minute, event.FileEdit, event.EditPayload{FileName: "busy.go"}))
	}
	events = append(events, at(10*time.Minute, event.FileEdit, event.EditPayload{FileName: "quiet.go"}))

	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if len(s.TopFiles) != 2 {
		t.Fatalf("TopFiles = %d entries, want 2", len(s.TopFiles))
	}
	if s.TopFiles[0].FileName != "busy.go" || s.TopFiles[0].EditCount != 3 {
		t.Errorf("top file = %+v, want busy.go with 3 edits", s.TopFiles[0])
	}
	// Three edits a minute apart: two merged 1-minute gaps.
	if s.TopFiles[0].SessionTime != 120_000 {
		t.Errorf("SessionTime = %d, want 120000", s.TopFiles[0].SessionTime)
	}
}

func TestTopFilesCapped(t *testing.T) {
	var events []event.Event
	for i := 0; i < 15; i++ {
		name := string(rune('a'+i)) + ".go"
		events = append(events, at(time.Duration(i)*time.Minute, event.FileEdit, event.EditPayload{FileName: name}))
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if len(s.TopFiles) != 10 {
		t.Errorf("TopFiles = %d entries, want capped at 10", len(s.TopFiles))
	}
}

func TestTopLanguagesRanking(t *testing.T) {
	events := []event.Event{
		at(0, event.EditorSwitch, event.FilePayload{FileName: "a.go", Language: "go"}),
		at(time.Minute, event.EditorSwitch, event.FilePayload{FileName: "b.go", Language: "go"}),
		at(2*time.Minute, event.EditorSwitch, event.FilePayload{FileName: "c.ts", Language: "typescript"}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if len(s.TopLanguages) != 2 {
		t.Fatalf("TopLanguages = %d entries, want 2", len(s.TopLanguages))
	}
	if s.TopLanguages[0].Language != "go" {
		t.Errorf("top language = %q, want go", s.TopLanguages[0].Language)
	}
	if s.TopLanguages[0].FileCount != 2 {
		t.Errorf("go FileCount = %d, want 2 distinct files", s.TopLanguages[0].FileCount)
	}
	if s.TopLanguages[0].Time != 60_000 {
		t.Errorf("go Time = %d, want 60000", s.TopLanguages[0].Time)
	}
}

func TestTopCommandsRanking(t *testing.T) {
	events := []event.Event{
		at(0, event.CommandExecute, event.CommandPayload{Command: "git.push"}),
		at(time.Minute, event.CommandExecute, event.CommandPayload{Command: "git.push"}),
		at(2*time.Minute, event.CommandExecute, event.CommandPayload{Command: "editor.format"}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if len(s.TopCommands) != 2 {
		t.Fatalf("TopCommands = %d entries, want 2", len(s.TopCommands))
	}
	if s.TopCommands[0].Command != "git.push" || s.TopCommands[0].Count != 2 {
		t.Errorf("top command = %+v, want git.push x2", s.TopCommands[0])
	}
}

func TestDailyHistogramZeroSeeded(t *testing.T) {
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 3, anchor)
	if len(s.Daily) != 3 {
		t.Fatalf("daily buckets = %d, want 3", len(s.Daily))
	}
	// Oldest first; only the last (today) has events.
	if s.Daily[0].Events != 0 || s.Daily[1].Events != 0 {
		t.Errorf("empty days have events: %+v", s.Daily)
	}
	if s.Daily[2].Events != 1 {
		t.Errorf("today's bucket = %+v, want 1 event", s.Daily[2])
	}
	if s.Daily[2].Date != anchor.Format("2006-01-02") {
		t.Errorf("today's date = %q, want %q", s.Daily[2].Date, anchor.Format("2006-01-02"))
	}
}

func TestHourlyHistogram(t *testing.T) {
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(time.Minute, event.FileEdit, event.EditPayload{FileName: "a.go"}),
	}
	s := stats.Compute(events, 1, anchor.Add(time.Hour))
	if len(s.Hourly) != 24 {
		t.Fatalf("hourly buckets = %d, want 24", len(s.Hourly))
	}
	h := anchor.Hour()
	if s.Hourly[h].Events != 2 {
		t.Errorf("bucket %d = %+v, want 2 events", h, s.Hourly[h])
	}
	if s.Hourly[h].ActiveTime != 60_000 {
		t.Errorf("bucket %d ActiveTime = %d, want 60000", h, s.Hourly[h].ActiveTime)
	}
}

func TestComputeDeterministic(t *testing.T) {
	events := []event.Event{
		at(0, event.FileEdit, event.EditPayload{FileName: "a.go"}),
		at(time.Minute, event.CommandExecute, event.CommandPayload{Command: "git.push"}),
		at(2*time.Minute, event.EditorSwitch, event.FilePayload{FileName: "b.go", Language: "go"}),
	}
	first := stats.Compute(events, 7, anchor)
	for i := 0; i < 5; i++ {
		// Shuffle-resistant: input order must not matter.
		shuffled := []event.Event{events[2], events[0], events[1]}
		if got := stats.Compute(shuffled, 7, anchor); got.ActiveTime != first.ActiveTime ||
			got.ProductivityScore != first.ProductivityScore ||
			got.TotalEvents != first.TotalEvents {
			t.Fatalf("Compute not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestWindowCutoffExcludesOldEvents(t *testing.T) {
	events := []event.Event{
		at(-36*time.Hour, event.FileEdit, event.EditPayload{FileName: "old.go"}),
		at(0, event.FileEdit, event.EditPayload{FileName: "new.go"}),
	}
	s := stats.Compute(events, 1, anchor)
	if s.TotalEvents != 1 {
		t.Errorf("TotalEvents = %d, want 1 (36h-old event outside 1-day window)", s.TotalEvents)
	}
}
