package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasknest/internal/model"
	"github.com/dori/tasknest/internal/reconcile"
	"github.com/dori/tasknest/internal/ui/theme"
)

// RenderRecount renders a recount report as a bordered panel
func RenderRecount(r *reconcile.Report) string {
	s := theme.Current.Styles

	var lines []string
	lines = append(lines, s.PanelTitle.Render("Counter recount ─ "+r.UID))
	lines = append(lines, fmt.Sprintf("%s %s   %s %s",
		s.Label.Render("projects"), s.Value.Render(fmt.Sprint(r.Projects)),
		s.Label.Render("tags"), s.Value.Render(fmt.Sprint(r.Tags))))
	lines = append(lines, "")

	if r.Clean() {
		lines = append(lines, s.OK.Render("✓ all counters match"))
		return s.Panel.Render(strings.Join(lines, "\n"))
	}

	for _, d := range r.Drifts {
		name := d.Name
		if name == "" {
			name = d.ID
		}
		lines = append(lines, fmt.Sprintf("%s %-20s %-11s %s → %s",
			s.Warning.Render("!"),
			truncate(d.Kind+" "+name, 20),
			d.Field,
			s.Error.Render(fmt.Sprint(d.Stored)),
			s.OK.Render(fmt.Sprint(d.Actual))))
	}
	lines = append(lines, "")
	if r.Repaired {
		lines = append(lines, s.OK.Render(fmt.Sprintf("repaired %d counters", len(r.Drifts))))
	} else {
		lines = append(lines, s.Warning.Render(fmt.Sprintf("%d counters drifted; run with --repair to fix", len(r.Drifts))))
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

// RenderTasks renders one line per task
func RenderTasks(tasks []*model.Task) string {
	if len(tasks) == 0 {
		return theme.Current.Styles.Label.Render("no tasks")
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, renderTask(t))
	}
	return strings.Join(lines, "\n")
}

func renderTask(task *model.Task) string {
	t := theme.Current.Theme
	s := theme.Current.Styles

	checkbox := "[ ]"
	if task.Status == model.StatusDone {
		checkbox = "[x]"
	}

	var priorityColor lipgloss.Color
	var priorityChar string
	switch task.Priority {
	case model.PriorityUrgent:
		priorityColor = t.PriorityUrgent
		priorityChar = "‼"
	case model.PriorityHigh:
		priorityColor = t.PriorityHigh
		priorityChar = "!"
	case model.PriorityMedium:
		priorityColor = t.PriorityMedium
		priorityChar = "-"
	case model.PriorityLow:
		priorityColor = t.PriorityLow
		priorityChar = "."
	default:
		priorityColor = t.Subtle
		priorityChar = " "
	}
	priority := lipgloss.NewStyle().Foreground(priorityColor).Render(priorityChar)

	titleStyle := s.TaskNormal
	switch {
	case task.DeletedAt != nil:
		titleStyle = s.TaskDeleted
	case task.Status == model.StatusDone || task.ArchivedAt != nil:
		titleStyle = s.TaskDone
	}

	parts := []string{checkbox, priority, titleStyle.Render(task.Title), s.Label.Render(task.ID)}
	for _, tag := range task.TagIDs {
		parts = append(parts, s.Tag.Render("#"+tag))
	}
	if task.DueAt != nil {
		due := task.DueAt.Format("2006-01-02")
		if task.IsOverdue() {
			due = s.Error.Render(due)
		}
		parts = append(parts, due)
	}
	return strings.Join(parts, " ")
}

// RenderProjects renders projects with their counters
func RenderProjects(projects []*model.Project) string {
	s := theme.Current.Styles
	if len(projects) == 0 {
		return s.Label.Render("no projects")
	}
	lines := []string{s.Header.Render(fmt.Sprintf("%-24s %6s %6s %6s", "PROJECT", "TASKS", "OPEN", "DONE"))}
	for _, p := range projects {
		name := truncate(p.Name, 24)
		if p.DeletedAt != nil {
			name = truncate(p.Name+" (deleted)", 24)
		}
		lines = append(lines, fmt.Sprintf("%-24s %6d %6d %6d  %s", name, p.TaskCount, p.OpenCount, p.CompletedCount(), s.Label.Render(p.ID)))
	}
	return strings.Join(lines, "\n")
}

// RenderTags renders tags with their usage counts
func RenderTags(tags []*model.Tag) string {
	s := theme.Current.Styles
	if len(tags) == 0 {
		return s.Label.Render("no tags")
	}
	lines := []string{s.Header.Render(fmt.Sprintf("%-24s %6s", "TAG", "USED"))}
	for _, t := range tags {
		lines = append(lines, fmt.Sprintf("%-24s %6d  %s", truncate(t.Name, 24), t.UsageCount, s.Label.Render(t.ID)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderUser renders the user document as a panel
func RenderUser(u *model.User) string {
	s := theme.Current.Styles

	name := "-"
	if u.Name != nil {
		name = *u.Name
	}
	lines := []string{
		s.PanelTitle.Render("User ─ " + u.ID),
		s.Label.Render("email ") + s.Value.Render(u.Email),
		s.Label.Render("name  ") + s.Value.Render(name),
		s.Label.Render("since ") + s.Value.Render(u.CreatedAt.Format("2006-01-02")),
	}
	if u.DeletedAt != nil {
		lines = append(lines, s.Warning.Render("deleted "+u.DeletedAt.Format("2006-01-02")))
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}
