package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/cascade"
	"github.com/dori/tasknest/internal/config"
	"github.com/dori/tasknest/internal/ui/theme"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

// rootOptions carries persistent flags shared by every subcommand
type rootOptions struct {
	configPath string
	dataDir    string
	user       string
	logLevel   string
	logFormat  string
	batchSize  int
	themeName  string
	json       bool

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "tasknest",
		Short:         "tasknest - hierarchical tasks with projects and tags",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Config file (default: <data-dir>/"+config.ConfigFileName+")")
	f.StringVar(&opts.dataDir, "data-dir", "", "Data directory")
	f.StringVarP(&opts.user, "user", "u", "", "User id to act as")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json, logfmt)")
	f.IntVar(&opts.batchSize, "batch-size", 0, "Writes per cascade batch (1-500)")
	f.StringVar(&opts.themeName, "theme", "", "Theme (nord, dracula, gruvbox, catppuccin)")
	f.BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(taskCmd(opts))
	rootCmd.AddCommand(projectCmd(opts))
	rootCmd.AddCommand(tagCmd(opts))
	rootCmd.AddCommand(userCmd(opts))
	rootCmd.AddCommand(bulkCmd(opts))
	rootCmd.AddCommand(recountCmd(opts))
	rootCmd.AddCommand(remindCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tasknest %s\n", Version)
		},
	}
}

// load reads .env, the config file and environment, then applies flags
func (o *rootOptions) load(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.LoadIn(o.dataDir, o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		cfg.User = o.user
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = o.batchSize
	}

	if o.themeName != "" {
		t, ok := theme.ByName(o.themeName)
		if !ok {
			return fmt.Errorf("unknown theme %q", o.themeName)
		}
		theme.SetTheme(t)
	}

	o.cfg = cfg
	return nil
}

// open wires the application. progress may be nil.
func (o *rootOptions) open(progress func(cascade.Progress)) (*app.App, error) {
	return app.New(o.cfg, app.Options{Progress: progress})
}

// uid returns the configured user or an error naming how to set it
func (o *rootOptions) uid() (string, error) {
	uid := strings.TrimSpace(o.cfg.User)
	if uid == "" {
		return "", errors.New("no user configured: pass --user or set TASKNEST_USER")
	}
	return uid, nil
}

// withApp opens the app, resolves the user and runs fn
func (o *rootOptions) withApp(fn func(a *app.App, uid string) error) error {
	uid, err := o.uid()
	if err != nil {
		return err
	}
	a, err := o.open(nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a, uid)
}

// emit prints v as JSON with --json, otherwise the rendered text
func (o *rootOptions) emit(w io.Writer, v any, render func() string) error {
	if o.json {
		return writeJSON(w, v)
	}
	fmt.Fprintln(w, render())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errNotFound = errors.New("not found")

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, errNotFound)
}
