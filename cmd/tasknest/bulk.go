package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/service"
	"github.com/dori/tasknest/internal/ui/theme"
	"github.com/spf13/cobra"
)

func bulkCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk <file>",
		Short: "Apply a JSON list of task actions in order",
		Long: `Apply task actions from a JSON file ("-" reads stdin):

  {"actions": [
    {"op": "create", "data": {"title": "Write report", "projectId": "p1"}},
    {"op": "move", "id": "t1", "projectId": null},
    {"op": "complete", "id": "t2"}
  ]}

Actions run one at a time. The first failing action stops the run; actions
before it stay applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			actions, err := service.DecodeActions(data)
			if err != nil {
				return err
			}

			return o.withApp(func(a *app.App, uid string) error {
				results, runErr := a.Service.Tasks.Bulk(cmd.Context(), uid, actions)
				if err := o.emit(cmd.OutOrStdout(), results, func() string { return renderResults(results) }); err != nil {
					return err
				}
				var bulkErr *service.BulkError
				if errors.As(runErr, &bulkErr) {
					return fmt.Errorf("stopped after %d of %d actions: %w", len(results), len(actions), bulkErr)
				}
				return runErr
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func renderResults(results []service.Result) string {
	s := theme.Current.Styles
	if len(results) == 0 {
		return s.Label.Render("no actions applied")
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		mark := s.OK.Render("✓")
		detail := r.ID
		switch {
		case r.Void():
		case r.Task == nil:
			mark = s.Warning.Render("?")
			detail += " (not found)"
		default:
			detail += " " + r.Task.Title
		}
		lines = append(lines, fmt.Sprintf("%s %-11s %s", mark, r.Op, detail))
	}
	return strings.Join(lines, "\n")
}
