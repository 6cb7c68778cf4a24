package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/model"
	"github.com/dori/tasknest/internal/service"
	"github.com/dori/tasknest/internal/ui"
	"github.com/spf13/cobra"
)

func taskCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(taskListCmd(o))
	cmd.AddCommand(taskGetCmd(o))
	cmd.AddCommand(taskAddCmd(o))
	cmd.AddCommand(taskUpdateCmd(o))
	cmd.AddCommand(taskMoveCmd(o))
	cmd.AddCommand(taskReorderCmd(o))
	cmd.AddCommand(taskRemoveCmd(o))
	cmd.AddCommand(taskPurgeCmd(o))
	cmd.AddCommand(taskTagCmd(o, true))
	cmd.AddCommand(taskTagCmd(o, false))

	// One-argument state transitions
	transitions := []struct {
		use   string
		short string
		fn    func(*service.Tasks, context.Context, string, string) (*model.Task, error)
	}{
		{"complete", "Mark a task done", (*service.Tasks).Complete},
		{"uncomplete", "Reopen a done task", (*service.Tasks).Uncomplete},
		{"archive", "Archive a task", (*service.Tasks).Archive},
		{"unarchive", "Unarchive a task", (*service.Tasks).Unarchive},
		{"restore", "Restore a soft-deleted task", (*service.Tasks).Restore},
	}
	for _, tr := range transitions {
		cmd.AddCommand(&cobra.Command{
			Use:   tr.use + " <id>",
			Short: tr.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.withApp(func(a *app.App, uid string) error {
					t, err := tr.fn(a.Service.Tasks, cmd.Context(), uid, args[0])
					if err != nil {
						return err
					}
					if t == nil {
						return notFound("task", args[0])
					}
					return o.emitTask(cmd, t)
				})
			},
		})
	}

	return cmd
}

func (o *rootOptions) emitTask(cmd *cobra.Command, t *model.Task) error {
	return o.emit(cmd.OutOrStdout(), t, func() string {
		return ui.RenderTasks([]*model.Task{t})
	})
}

func taskListCmd(o *rootOptions) *cobra.Command {
	var (
		filter            model.TaskFilter
		project, parent   string
		status, priority  string
		tags              []string
		dueAfter, dueBefr string
		archived, deleted bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("project") {
				filter.ProjectID = idFilter(project)
			}
			if flags.Changed("parent") {
				filter.ParentID = idFilter(parent)
			}
			if status != "" {
				filter.Status = model.Status(strings.ToUpper(status))
				if !filter.Status.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			if priority != "" {
				p, ok := parsePriority(priority)
				if !ok {
					return fmt.Errorf("unknown priority %q", priority)
				}
				filter.Priority = p
			}
			if flags.Changed("archived") {
				filter.Archived = &archived
			}
			if flags.Changed("deleted") {
				filter.Deleted = &deleted
			}
			filter.TagIDsAny = tags

			var err error
			if filter.DueAfter, err = dateFlag("due-after", dueAfter); err != nil {
				return err
			}
			if filter.DueBefore, err = dateFlag("due-before", dueBefr); err != nil {
				return err
			}

			return o.withApp(func(a *app.App, uid string) error {
				tasks, err := a.Service.Tasks.List(cmd.Context(), uid, filter)
				if err != nil {
					return err
				}
				return o.emit(cmd.OutOrStdout(), tasks, func() string { return ui.RenderTasks(tasks) })
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&project, "project", "p", "", "Project id (\"none\" for tasks without a project)")
	f.StringVar(&parent, "parent", "", "Parent task id (\"none\" for top-level tasks)")
	f.StringVarP(&status, "status", "s", "", "Status (todo, in_progress, done, blocked)")
	f.StringVar(&priority, "priority", "", "Priority (none, low, medium, high, urgent)")
	f.BoolVar(&archived, "archived", false, "Only archived (or, with =false, unarchived) tasks")
	f.BoolVar(&deleted, "deleted", false, "Only soft-deleted (or, with =false, live) tasks")
	f.StringSliceVarP(&tags, "tag", "t", nil, "Tag ids; matches tasks carrying any of them")
	f.StringVar(&dueAfter, "due-after", "", "Due at or after (date or today, friday, ...)")
	f.StringVar(&dueBefr, "due-before", "", "Due at or before")
	f.StringVar(&filter.StartAfterID, "after", "", "Resume after this task id")
	f.IntVarP(&filter.Limit, "limit", "n", 0, "Maximum results")

	return cmd
}

func taskGetCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tasks.Get(cmd.Context(), uid, args[0])
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("task", args[0])
				}
				return o.emitTask(cmd, t)
			})
		},
	}
}

func taskAddCmd(o *rootOptions) *cobra.Command {
	var (
		description, parent, url string
		raw                      bool
	)

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Quick add a task",
		Long: `Quick add a task. Unless --raw is given the text is parsed:

  Tags:      @tag          (created when missing)
  Project:   #project      (matched by name)
  Priority:  !none !low !medium !high !urgent
  Due date:  due:tomorrow due:friday due:2026-01-15`,
		Example: `  tasknest task add "Review PR @work #backend !high due:tomorrow"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			q := quickAdd{Title: text, Priority: model.PriorityMedium}
			if !raw {
				q = parseQuickAdd(text, time.Now())
			}
			if strings.TrimSpace(q.Title) == "" {
				return fmt.Errorf("task title is empty")
			}

			return o.withApp(func(a *app.App, uid string) error {
				ctx := cmd.Context()
				in := model.CreateTask{
					Title:    q.Title,
					Priority: q.Priority,
					DueAt:    q.DueAt,
				}
				if description != "" {
					in.Description = &description
				}
				if parent != "" {
					in.ParentID = &parent
				}
				if url != "" {
					in.URL = &url
				}
				if q.Project != "" {
					id, err := resolveProject(ctx, a, uid, q.Project)
					if err != nil {
						return err
					}
					in.ProjectID = &id
				}
				ids, err := resolveTags(ctx, a, uid, q.Tags)
				if err != nil {
					return err
				}
				in.TagIDs = ids

				t, err := a.Service.Tasks.Create(ctx, uid, in)
				if err != nil {
					return err
				}
				return o.emitTask(cmd, t)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&description, "description", "d", "", "Description")
	f.StringVar(&parent, "parent", "", "Parent task id")
	f.StringVar(&url, "url", "", "Link")
	f.BoolVar(&raw, "raw", false, "Use the text as the title without parsing")

	return cmd
}

func taskUpdateCmd(o *rootOptions) *cobra.Command {
	var (
		title, description, status, priority string
		due, remind, url, project            string
		tags                                 []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var in model.UpdateTask

			if flags.Changed("title") {
				in.Title = model.Some(title)
			}
			if flags.Changed("description") {
				in.Description = model.Some(description)
			}
			if flags.Changed("status") {
				s := model.Status(strings.ToUpper(status))
				if !s.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				in.Status = model.Some(s)
			}
			if flags.Changed("priority") {
				p, ok := parsePriority(priority)
				if !ok {
					return fmt.Errorf("unknown priority %q", priority)
				}
				in.Priority = model.Some(p)
			}
			if flags.Changed("due") {
				t, err := clearableDate("due", due)
				if err != nil {
					return err
				}
				in.DueAt = model.Some(t)
			}
			if flags.Changed("remind") {
				t, err := clearableDate("remind", remind)
				if err != nil {
					return err
				}
				in.RemindAt = model.Some(t)
			}
			if flags.Changed("url") {
				in.URL = model.Some(nullableID(url))
			}
			if flags.Changed("project") {
				in.ProjectID = model.Some(nullableID(project))
			}
			if flags.Changed("tag") {
				in.TagIDs = model.Some(tags)
			}

			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tasks.Update(cmd.Context(), uid, args[0], in)
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("task", args[0])
				}
				return o.emitTask(cmd, t)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "Title")
	f.StringVarP(&description, "description", "d", "", "Description")
	f.StringVarP(&status, "status", "s", "", "Status (todo, in_progress, done, blocked)")
	f.StringVar(&priority, "priority", "", "Priority (none, low, medium, high, urgent)")
	f.StringVar(&due, "due", "", "Due date (\"none\" clears)")
	f.StringVar(&remind, "remind", "", "Reminder time (\"none\" clears)")
	f.StringVar(&url, "url", "", "Link (\"none\" clears)")
	f.StringVarP(&project, "project", "p", "", "Project id (\"none\" detaches)")
	f.StringSliceVarP(&tags, "tag", "t", nil, "Replace tag ids")

	return cmd
}

func taskMoveCmd(o *rootOptions) *cobra.Command {
	var (
		project, parent string
		order           int
	)

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task to another project or parent",
		Long: `Move a task. Omitted flags keep the current value. --parent none makes the
task top-level; to leave a project use "task update --project none".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var in model.MoveTask
			if flags.Changed("project") {
				if nullableID(project) == nil {
					return fmt.Errorf("--project: move needs a project id; use task update --project none to detach")
				}
				in.ProjectID = model.Some(nullableID(project))
			}
			if flags.Changed("parent") {
				in.ParentID = model.Some(nullableID(parent))
			}
			if flags.Changed("order") {
				in.Order = model.Some(order)
			}

			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tasks.Move(cmd.Context(), uid, args[0], in)
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("task", args[0])
				}
				return o.emitTask(cmd, t)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&project, "project", "p", "", "Target project id")
	f.StringVar(&parent, "parent", "", "Target parent task id or \"none\"")
	f.IntVar(&order, "order", 0, "Position among siblings")

	return cmd
}

func taskReorderCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <order>",
		Short: "Set a task's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseOrder(args[1])
			if err != nil {
				return err
			}
			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tasks.Reorder(cmd.Context(), uid, args[0], order)
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("task", args[0])
				}
				return o.emitTask(cmd, t)
			})
		},
	}
}

func taskRemoveCmd(o *rootOptions) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its subtasks",
		Long:    "Soft-delete a task and its subtasks. With --hard the documents are removed.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := fmt.Sprintf("Deleting task %s", args[0])
			return o.cascade(cmd, title, func(ctx context.Context, a *app.App, uid string) error {
				return a.Service.Tasks.Remove(ctx, uid, args[0], !hard)
			})
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "Remove documents instead of marking them deleted")
	return cmd
}

func taskPurgeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently remove soft-deleted tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.cascade(cmd, "Purging deleted tasks", func(ctx context.Context, a *app.App, uid string) error {
				_, err := a.Service.Tasks.Purge(ctx, uid)
				return err
			})
		},
	}
}

// taskTagCmd builds "tag" (add) or "untag" (remove). Tag names are matched
// case-insensitively; tagging creates missing tags.
func taskTagCmd(o *rootOptions, add bool) *cobra.Command {
	use, short := "untag <id> <tag>...", "Remove tags from a task"
	if add {
		use, short = "tag <id> <tag>...", "Add tags to a task"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				ctx := cmd.Context()
				var (
					t   *model.Task
					err error
				)
				if add {
					var ids []string
					if ids, err = resolveTags(ctx, a, uid, args[1:]); err != nil {
						return err
					}
					t, err = a.Service.Tasks.AddTags(ctx, uid, args[0], ids...)
				} else {
					var ids []string
					if ids, err = lookupTags(ctx, a, uid, args[1:]); err != nil {
						return err
					}
					t, err = a.Service.Tasks.RemoveTags(ctx, uid, args[0], ids...)
				}
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("task", args[0])
				}
				return o.emitTask(cmd, t)
			})
		},
	}
}

// idFilter maps "none" to a pointer to "", selecting tasks where the field is null
func idFilter(s string) *string {
	if strings.EqualFold(s, "none") {
		s = ""
	}
	return &s
}

// nullableID maps "" and "none" to nil
func nullableID(s string) *string {
	if s == "" || strings.EqualFold(s, "none") {
		return nil
	}
	return &s
}

func dateFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t := parseNaturalDate(s, time.Now())
	if t == nil {
		return nil, fmt.Errorf("--%s: cannot parse date %q", name, s)
	}
	return t, nil
}

func clearableDate(name, s string) (*time.Time, error) {
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	return dateFlag(name, s)
}

func parseOrder(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("order must be a non-negative integer, got %q", s)
	}
	return n, nil
}

// resolveProject finds a live project by case-insensitive name
func resolveProject(ctx context.Context, a *app.App, uid, name string) (string, error) {
	projects, err := a.Service.Projects.List(ctx, uid)
	if err != nil {
		return "", err
	}
	for _, p := range projects {
		if p.DeletedAt == nil && strings.EqualFold(p.Name, name) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("project %q: %w", name, errNotFound)
}

// resolveTags maps tag names to ids, creating tags that do not exist yet
func resolveTags(ctx context.Context, a *app.App, uid string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := a.Service.Tags.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.DeletedAt == nil {
			byName[strings.ToLower(t.Name)] = t.ID
		}
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if id, ok := byName[key]; ok {
			ids = append(ids, id)
			continue
		}
		t, err := a.Service.Tags.Create(ctx, uid, model.CreateTag{Name: name})
		if err != nil {
			return nil, err
		}
		byName[key] = t.ID
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// lookupTags maps tag names to ids, skipping names with no live tag
func lookupTags(ctx context.Context, a *app.App, uid string, names []string) ([]string, error) {
	tags, err := a.Service.Tags.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, name := range names {
		for _, t := range tags {
			if t.DeletedAt == nil && strings.EqualFold(t.Name, name) {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids, nil
}
