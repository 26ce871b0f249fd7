package stats

import (
	"sort"

	"github.com/fakeyudi/codetrack/internal/event"
)

const (
	topFileCount     = 10
	topLanguageCount = 5
	topCommandCount  = 10
)

// topFiles ranks files by edit count. Session time per file applies the
// idle-threshold merge rule to that file's own edit timestamps.
func topFiles(sorted []event.Event) []FileStat {
	editTimes := make(map[string][]int64)
	for _, ev := range sorted {
		p, ok := ev.Payload.(event.EditPayload)
		if !ok || ev.Type != event.FileEdit {
			continue
		}
		name := p.FileName
		if name == "" {
			name = "unknown"
		}
		editTimes[name] = append(editTimes[name], ev.Timestamp)
	}

	out := make([]FileStat, 0, len(editTimes))
	for name, times := range editTimes {
		out = append(out, FileStat{
			FileName:    name,
			EditCount:   len(times),
			SessionTime: mergeGaps(times),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EditCount != out[j].EditCount {
			return out[i].EditCount > out[j].EditCount
		}
		return out[i].FileName < out[j].FileName
	})
	return head(out, topFileCount)
}

// topLanguages ranks languages by accumulated time over editor-switch
// events, tracking how many distinct files were touched per language.
func topLanguages(sorted []event.Event) []LanguageStat {
	switchTimes := make(map[string][]int64)
	files := make(map[string]map[string]struct{})

	for _, ev := range sorted {
		if ev.Type != event.EditorSwitch {
			continue
		}
		p, ok := ev.Payload.(event.FilePayload)
		if !ok {
			continue
		}
		lang := p.Language
		if lang == "" {
			lang = "unknown"
		}
		switchTimes[lang] = append(switchTimes[lang], ev.Timestamp)
		if files[lang] == nil {
			files[lang] = make(map[string]struct{})
		}
		if p.FileName != "" {
			files[lang][p.FileName] = struct{}{}
		}
	}

	out := make([]LanguageStat, 0, len(switchTimes))
	for lang, times := range switchTimes {
		out = append(out, LanguageStat{
			Language:  lang,
			Time:      mergeGaps(times),
			FileCount: len(files[lang]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time > out[j].Time
		}
		return out[i].Language < out[j].Language
	})
	return head(out, topLanguageCount)
}

// topCommands ranks commands by invocation frequency.
func topCommands(sorted []event.Event) []CommandStat {
	counts := make(map[string]int)
	for _, ev := range sorted {
		if ev.Type != event.CommandExecute {
			continue
		}
		p, ok := ev.Payload.(event.CommandPayload)
		if !ok {
			continue
		}
		cmd := p.Command
		if cmd == "" {
			cmd = "unknown"
		}
		counts[cmd]++
	}

	out := make([]CommandStat, 0, len(counts))
	for cmd, count := range counts {
		out = append(out, CommandStat{Command: cmd, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Command < out[j].Command
	})
	return head(out, topCommandCount)
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
