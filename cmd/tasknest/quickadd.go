package main

import (
	"strings"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// quickAdd is a task parsed from one line of text such as
// "Review PR @work #backend !high due:tomorrow"
type quickAdd struct {
	Title    string
	Priority model.Priority
	Tags     []string
	Project  string
	DueAt    *time.Time
}

func parseQuickAdd(text string, now time.Time) quickAdd {
	task := quickAdd{Priority: model.PriorityMedium}

	var titleParts []string
	for _, word := range strings.Fields(text) {
		switch {
		// Tags (@home, @work, etc.)
		case strings.HasPrefix(word, "@") && len(word) > 1:
			task.Tags = append(task.Tags, word[1:])

		case strings.HasPrefix(word, "#") && len(word) > 1:
			task.Project = word[1:]

		case strings.HasPrefix(word, "!"):
			if p, ok := parsePriority(strings.TrimPrefix(word, "!")); ok {
				task.Priority = p
			} else {
				titleParts = append(titleParts, word)
			}

		// Due date (due:tomorrow, due:friday, due:2024-01-15)
		case strings.HasPrefix(strings.ToLower(word), "due:"):
			if parsed := parseNaturalDate(word[len("due:"):], now); parsed != nil {
				task.DueAt = parsed
			} else {
				titleParts = append(titleParts, word)
			}

		default:
			titleParts = append(titleParts, word)
		}
	}

	task.Title = strings.Join(titleParts, " ")
	return task
}

func parsePriority(s string) (model.Priority, bool) {
	switch strings.ToLower(s) {
	case "none", "n":
		return model.PriorityNone, true
	case "low", "l":
		return model.PriorityLow, true
	case "medium", "med", "m":
		return model.PriorityMedium, true
	case "high", "hi", "h":
		return model.PriorityHigh, true
	case "urgent", "u":
		return model.PriorityUrgent, true
	}
	p := model.Priority(strings.ToUpper(s))
	return p, p.Valid()
}

func parseNaturalDate(s string, now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	switch strings.ToLower(s) {
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "nextweek":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "sun": time.Sunday,
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
	}
	if day, ok := weekdays[strings.ToLower(s)]; ok {
		daysUntil := int(day - now.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		t := today.AddDate(0, 0, daysUntil)
		return &t
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	for _, format := range []string{"2006-01-02", "01/02/2006", "01-02-2006"} {
		if t, err := time.ParseInLocation(format, s, now.Location()); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, now.Location())
			return &t
		}
	}
	return nil
}
