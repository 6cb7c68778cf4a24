package main

import (
	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/ui"
	"github.com/spf13/cobra"
)

func recountCmd(o *rootOptions) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "recount",
		Short: "Check project and tag counters against the tasks",
		Long: `Recount taskCount, openCount and usageCount from the stored tasks and
report any drift. With --repair the stored counters are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				report, err := a.Reconciler.Recount(cmd.Context(), uid, repair)
				if err != nil {
					return err
				}
				return o.emit(cmd.OutOrStdout(), report, func() string { return ui.RenderRecount(report) })
			})
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Overwrite drifted counters")
	return cmd
}
