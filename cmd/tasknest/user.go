package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/cascade"
	"github.com/dori/tasknest/internal/model"
	"github.com/dori/tasknest/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func userCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the current user",
	}

	cmd.AddCommand(userShowCmd(o))
	cmd.AddCommand(userCreateCmd(o))
	cmd.AddCommand(userUpdateCmd(o))
	cmd.AddCommand(userDeleteCmd(o))

	return cmd
}

func (o *rootOptions) emitUser(cmd *cobra.Command, u *model.User) error {
	return o.emit(cmd.OutOrStdout(), u, func() string { return ui.RenderUser(u) })
}

func userShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the user document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(func(a *app.App, uid string) error {
				u, err := a.Service.Users.Get(cmd.Context(), uid)
				if err != nil {
					return err
				}
				if u == nil {
					return notFound("user", uid)
				}
				return o.emitUser(cmd, u)
			})
		},
	}
}

func userCreateCmd(o *rootOptions) *cobra.Command {
	var name, image string

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Register the user document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.CreateUser{Email: args[0]}
			if name != "" {
				in.Name = &name
			}
			if image != "" {
				in.Image = &image
			}
			return o.withApp(func(a *app.App, uid string) error {
				u, err := a.Service.Users.Create(cmd.Context(), uid, in)
				if err != nil {
					return err
				}
				return o.emitUser(cmd, u)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&image, "image", "", "Avatar URL")
	return cmd
}

func userUpdateCmd(o *rootOptions) *cobra.Command {
	var email, name, image string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update email, name or image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var in model.UpdateUser
			if flags.Changed("email") {
				in.Email = model.Some(email)
			}
			if flags.Changed("name") {
				in.Name = model.Some(nullableID(name))
			}
			if flags.Changed("image") {
				in.Image = model.Some(nullableID(image))
			}
			return o.withApp(func(a *app.App, uid string) error {
				u, err := a.Service.Users.Update(cmd.Context(), uid, in)
				if err != nil {
					return err
				}
				if u == nil {
					return notFound("user", uid)
				}
				return o.emitUser(cmd, u)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Email")
	f.StringVar(&name, "name", "", "Display name (\"none\" clears)")
	f.StringVar(&image, "image", "", "Avatar URL (\"none\" clears)")
	return cmd
}

func userDeleteCmd(o *rootOptions) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the user and everything they own",
		Long: `Soft-delete every project, tag and task of the user, then the user.
With --hard the documents are removed. Batches are committed as they go, so an
interrupted delete can simply be run again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.cascade(cmd, "Deleting user", func(ctx context.Context, a *app.App, uid string) error {
				return a.Service.Users.Delete(ctx, uid, !hard)
			})
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "Remove documents instead of marking them deleted")
	return cmd
}

// cascade runs a batched delete. On a terminal it shows live progress and
// ctrl+c stops after the current batch; otherwise it runs silently.
func (o *rootOptions) cascade(cmd *cobra.Command, title string, fn func(ctx context.Context, a *app.App, uid string) error) error {
	uid, err := o.uid()
	if err != nil {
		return err
	}

	// The engine is built before the progress program exists, so it reports
	// into report, which RunProgress points at the program.
	var report func(cascade.Progress)
	a, err := o.open(func(p cascade.Progress) {
		if report != nil {
			report(p)
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if o.json || !isTerminal(cmd.OutOrStdout()) {
		if err := fn(cmd.Context(), a, uid); err != nil {
			return err
		}
		return o.emit(cmd.OutOrStdout(), map[string]bool{"ok": true}, func() string { return "done" })
	}

	err = ui.RunProgress(cmd.Context(), title, func(ctx context.Context, r func(cascade.Progress)) error {
		report = r
		return fn(ctx, a, uid)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
