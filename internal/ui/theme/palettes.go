package theme

import "github.com/charmbracelet/lipgloss"

// palette lists hex colors in the order: background, foreground, subtle,
// highlight, border, primary, secondary, info, success, warning, error,
// priority high. Priority low/medium/urgent reuse success/warning/error and
// statuses reuse the semantic colors.
type palette [12]string

func (p palette) theme(name string) Theme {
	c := func(i int) lipgloss.Color { return lipgloss.Color(p[i]) }
	return Theme{
		Name:       name,
		Background: c(0),
		Foreground: c(1),
		Subtle:     c(2),
		Highlight:  c(3),
		Border:     c(4),
		Primary:    c(5),
		Secondary:  c(6),
		Info:       c(7),
		Success:    c(8),
		Warning:    c(9),
		Error:      c(10),

		PriorityLow:    c(8),
		PriorityMedium: c(9),
		PriorityHigh:   c(11),
		PriorityUrgent: c(10),

		StatusTodo:       c(9),
		StatusInProgress: c(5),
		StatusDone:       c(8),
		StatusArchived:   c(2),
	}
}

// https://www.nordtheme.com/
var Nord = palette{
	"#2E3440", "#ECEFF4", "#4C566A", "#3B4252", "#4C566A",
	"#88C0D0", "#81A1C1", "#5E81AC",
	"#A3BE8C", "#EBCB8B", "#BF616A", "#D08770",
}.theme("nord")

// https://draculatheme.com/
var Dracula = palette{
	"#282A36", "#F8F8F2", "#6272A4", "#44475A", "#6272A4",
	"#BD93F9", "#8BE9FD", "#8BE9FD",
	"#50FA7B", "#F1FA8C", "#FF5555", "#FFB86C",
}.theme("dracula")

var Gruvbox = palette{
	"#282828", "#EBDBB2", "#928374", "#3C3836", "#504945",
	"#83A598", "#8EC07C", "#83A598",
	"#B8BB26", "#FABD2F", "#FB4934", "#FE8019",
}.theme("gruvbox")

// Mocha flavour
var Catppuccin = palette{
	"#1E1E2E", "#CDD6F4", "#6C7086", "#313244", "#45475A",
	"#89B4FA", "#CBA6F7", "#74C7EC",
	"#A6E3A1", "#F9E2AF", "#F38BA8", "#FAB387",
}.theme("catppuccin")
