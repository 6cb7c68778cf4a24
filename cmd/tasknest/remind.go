package main

import (
	"context"
	"time"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/model"
	"github.com/dori/tasknest/internal/notify"
	"github.com/dori/tasknest/internal/ui"
	"github.com/spf13/cobra"
)

func remindCmd(o *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send desktop notifications for due reminders",
		Long: `Send a notify-send notification for every open task whose reminder time has
passed, then clear the reminder. Meant to be run from cron or a systemd timer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				ctx := cmd.Context()

				var (
					tasks []*model.Task
					err   error
				)
				if dryRun {
					tasks, err = a.Service.Tasks.DueReminders(ctx, uid, time.Now())
				} else {
					tasks, err = a.Service.Tasks.FireReminders(ctx, uid, func(ctx context.Context, t *model.Task) error {
						return a.Notifier.Send(ctx, notify.Reminder(t, time.Now()))
					})
				}
				if err != nil {
					return err
				}
				return o.emit(cmd.OutOrStdout(), tasks, func() string { return ui.RenderTasks(tasks) })
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List due reminders without sending or clearing them")
	return cmd
}
