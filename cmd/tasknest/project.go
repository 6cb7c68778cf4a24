package main

import (
	"context"
	"fmt"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/model"
	"github.com/dori/tasknest/internal/ui"
	"github.com/spf13/cobra"
)

func projectCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"p"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(projectListCmd(o))
	cmd.AddCommand(projectCreateCmd(o))
	cmd.AddCommand(projectUpdateCmd(o))
	cmd.AddCommand(projectReorderCmd(o))
	cmd.AddCommand(projectRemoveCmd(o))

	return cmd
}

func (o *rootOptions) emitProject(cmd *cobra.Command, p *model.Project) error {
	return o.emit(cmd.OutOrStdout(), p, func() string {
		return ui.RenderProjects([]*model.Project{p})
	})
}

func projectListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects with their task counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				projects, err := a.Service.Projects.List(cmd.Context(), uid)
				if err != nil {
					return err
				}
				return o.emit(cmd.OutOrStdout(), projects, func() string { return ui.RenderProjects(projects) })
			})
		},
	}
}

func projectCreateCmd(o *rootOptions) *cobra.Command {
	var (
		color string
		order int
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.CreateProject{Name: args[0]}
			if color != "" {
				in.Color = &color
			}
			if cmd.Flags().Changed("order") {
				in.Order = &order
			}
			return o.withApp(func(a *app.App, uid string) error {
				p, err := a.Service.Projects.Create(cmd.Context(), uid, in)
				if err != nil {
					return err
				}
				return o.emitProject(cmd, p)
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Color, e.g. #88C0D0")
	cmd.Flags().IntVar(&order, "order", 0, "Position")
	return cmd
}

func projectUpdateCmd(o *rootOptions) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.UpdateProject
			if cmd.Flags().Changed("name") {
				in.Name = model.Some(name)
			}
			if cmd.Flags().Changed("color") {
				in.Color = model.Some(nullableID(color))
			}
			return o.withApp(func(a *app.App, uid string) error {
				p, err := a.Service.Projects.Update(cmd.Context(), uid, args[0], in)
				if err != nil {
					return err
				}
				if p == nil {
					return notFound("project", args[0])
				}
				return o.emitProject(cmd, p)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name")
	cmd.Flags().StringVar(&color, "color", "", "Color (\"none\" clears)")
	return cmd
}

func projectReorderCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <order>",
		Short: "Set a project's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseOrder(args[1])
			if err != nil {
				return err
			}
			return o.withApp(func(a *app.App, uid string) error {
				p, err := a.Service.Projects.Reorder(cmd.Context(), uid, args[0], order)
				if err != nil {
					return err
				}
				if p == nil {
					return notFound("project", args[0])
				}
				return o.emitProject(cmd, p)
			})
		},
	}
}

func projectRemoveCmd(o *rootOptions) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a project and its tasks",
		Long:    "Soft-delete a project and every task in it. With --hard the documents are removed.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := fmt.Sprintf("Deleting project %s", args[0])
			return o.cascade(cmd, title, func(ctx context.Context, a *app.App, uid string) error {
				return a.Service.Projects.Remove(ctx, uid, args[0], !hard)
			})
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "Remove documents instead of marking them deleted")
	return cmd
}
