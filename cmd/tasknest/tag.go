package main

import (
	"context"
	"fmt"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/model"
	"github.com/dori/tasknest/internal/ui"
	"github.com/spf13/cobra"
)

func tagCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	cmd.AddCommand(tagListCmd(o))
	cmd.AddCommand(tagCreateCmd(o))
	cmd.AddCommand(tagUpdateCmd(o))
	cmd.AddCommand(tagReorderCmd(o))
	cmd.AddCommand(tagRemoveCmd(o))

	return cmd
}

func (o *rootOptions) emitTag(cmd *cobra.Command, t *model.Tag) error {
	return o.emit(cmd.OutOrStdout(), t, func() string {
		return ui.RenderTags([]*model.Tag{t})
	})
}

func tagListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tags with their usage counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				tags, err := a.Service.Tags.List(cmd.Context(), uid)
				if err != nil {
					return err
				}
				return o.emit(cmd.OutOrStdout(), tags, func() string { return ui.RenderTags(tags) })
			})
		},
	}
}

func tagCreateCmd(o *rootOptions) *cobra.Command {
	var (
		color string
		order int
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.CreateTag{Name: args[0]}
			if color != "" {
				in.Color = &color
			}
			if cmd.Flags().Changed("order") {
				in.Order = &order
			}
			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tags.Create(cmd.Context(), uid, in)
				if err != nil {
					return err
				}
				return o.emitTag(cmd, t)
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Color, e.g. #BF616A")
	cmd.Flags().IntVar(&order, "order", 0, "Position")
	return cmd
}

func tagUpdateCmd(o *rootOptions) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.UpdateTag
			if cmd.Flags().Changed("name") {
				in.Name = model.Some(name)
			}
			if cmd.Flags().Changed("color") {
				in.Color = model.Some(nullableID(color))
			}
			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tags.Update(cmd.Context(), uid, args[0], in)
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("tag", args[0])
				}
				return o.emitTag(cmd, t)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name")
	cmd.Flags().StringVar(&color, "color", "", "Color (\"none\" clears)")
	return cmd
}

func tagReorderCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <order>",
		Short: "Set a tag's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseOrder(args[1])
			if err != nil {
				return err
			}
			return o.withApp(func(a *app.App, uid string) error {
				t, err := a.Service.Tags.Reorder(cmd.Context(), uid, args[0], order)
				if err != nil {
					return err
				}
				if t == nil {
					return notFound("tag", args[0])
				}
				return o.emitTag(cmd, t)
			})
		},
	}
}

func tagRemoveCmd(o *rootOptions) *cobra.Command {
	var withTasks bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a tag",
		Long:    "Delete a tag and strip it from every task. With --with-tasks the tasks carrying it are deleted as well.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := fmt.Sprintf("Deleting tag %s", args[0])
			return o.cascade(cmd, title, func(ctx context.Context, a *app.App, uid string) error {
				return a.Service.Tags.Remove(ctx, uid, args[0], !withTasks)
			})
		},
	}

	cmd.Flags().BoolVar(&withTasks, "with-tasks", false, "Also delete tasks carrying the tag")
	return cmd
}
