package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dori/tasknest/internal/model"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes the notification command
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	appName string
	run     Runner
	logger  *log.Logger
}

// Option configures a Notifier
type Option func(*Notifier)

// WithRunner replaces notify-send, e.g. in tests
func WithRunner(r Runner) Option {
	return func(n *Notifier) {
		n.run = r
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithEnabled turns sending on or off
func WithEnabled(enabled bool) Option {
	return func(n *Notifier) {
		n.enabled = enabled
	}
}

// New creates a new notifier
func New(opts ...Option) *Notifier {
	n := &Notifier{
		enabled: true,
		appName: "tasknest",
		run:     execRunner,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled returns whether notifications are sent
func (n *Notifier) Enabled() bool {
	return n.enabled
}

// Args builds the notify-send arguments for a notification
func (n *Notifier) Args(notification Notification) []string {
	args := []string{"-u", notification.Urgency.String()}

	// Timeout in milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}
	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}
	args = append(args, "-a", n.appName, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(ctx context.Context, notification Notification) error {
	if !n.enabled {
		return nil
	}
	if err := n.run(ctx, "notify-send", n.Args(notification)...); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	n.logger.Debug("notification sent", "title", notification.Title, "urgency", notification.Urgency)
	return nil
}

// Reminder builds the notification for a task whose reminder fired
func Reminder(t *model.Task, now time.Time) Notification {
	body := "Reminder"
	urgency := UrgencyNormal

	if t.DueAt != nil {
		dueIn := t.DueAt.Sub(now)
		switch {
		case dueIn <= 0:
			body = "Task is now overdue!"
			urgency = UrgencyCritical
		case dueIn < time.Hour:
			body = "Task due in less than an hour"
		default:
			body = "Due " + t.DueAt.Local().Format("Mon, Jan 2 15:04")
		}
	}
	if t.Priority == model.PriorityUrgent {
		urgency = UrgencyCritical
	}

	return Notification{
		Title:   t.Title,
		Body:    body,
		Urgency: urgency,
		Timeout: 15 * time.Second,
		Icon:    "emblem-important-symbolic",
	}
}
