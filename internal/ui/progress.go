package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasknest/internal/cascade"
	"github.com/dori/tasknest/internal/ui/theme"
)

type progressMsg cascade.Progress

type doneMsg struct{ err error }

// ProgressModel shows a spinner and per-collection counts while a cascade runs
type ProgressModel struct {
	spinner  spinner.Model
	keys     KeyMap
	help     help.Model
	title    string
	counts   map[string]int
	cancel   context.CancelFunc
	err      error
	done     bool
	stopping bool
}

// NewProgressModel creates the model. cancel is invoked on ctrl+c.
func NewProgressModel(title string, cancel context.CancelFunc) ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Current.Theme.Primary)
	return ProgressModel{
		spinner: sp,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		title:   title,
		counts:  map[string]int{},
		cancel:  cancel,
	}
}

// Init starts the spinner
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress, completion and key messages
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.counts[collectionName(msg.Collection)] = msg.Done
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current state
func (m ProgressModel) View() string {
	s := theme.Current.Styles

	head := m.spinner.View() + " " + m.title
	if m.done {
		if m.err != nil {
			head = s.Error.Render("✗ ") + m.title
		} else {
			head = s.OK.Render("✓ ") + m.title
		}
	}

	names := make([]string, 0, len(m.counts))
	for name := range m.counts {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{head}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s %s", s.Label.Render(fmt.Sprintf("%-9s", name)), s.Value.Render(fmt.Sprint(m.counts[name]))))
	}
	if m.err != nil {
		lines = append(lines, s.Error.Render("  "+m.err.Error()))
	}
	switch {
	case m.done:
	case m.stopping:
		lines = append(lines, s.Warning.Render("  stopping after current batch"))
	default:
		lines = append(lines, "  "+m.help.View(m.keys))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Err returns the error the cascade finished with
func (m ProgressModel) Err() error {
	return m.err
}

// collectionName reduces users/{uid}/tasks to tasks
func collectionName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// RunProgress runs fn while rendering its progress. fn receives a context
// cancelled on ctrl+c and a callback to report committed batches.
func RunProgress(ctx context.Context, title string, fn func(ctx context.Context, report func(cascade.Progress)) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, cancel), opts...)
	go func() {
		err := fn(ctx, func(pr cascade.Progress) { p.Send(progressMsg(pr)) })
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	return final.(ProgressModel).Err()
}
