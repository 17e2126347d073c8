package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/focusloop/internal/cloudsync"
	"github.com/sandeepkv93/focusloop/internal/model"
	"github.com/sandeepkv93/focusloop/internal/notify"
	"github.com/sandeepkv93/focusloop/internal/state"
	"github.com/sandeepkv93/focusloop/internal/timer"
	"github.com/sandeepkv93/focusloop/internal/views"
)

var errNeedsConfirmation = errors.New("refusing to overwrite state without --yes")

// withApp opens the app without the alarm worker, runs fn and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every loop and its progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				for _, c := range a.queue.Drain() {
					n := notify.Completion(c.TaskName)
					fmt.Fprintf(out, "%s %s\n", n.Title, n.Body)
				}
				renderStatus(out, a.engine)
				if at, ok := a.store.LastSaved(ctx); ok {
					fmt.Fprintf(out, "last saved %s\n", at.Local().Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
}

// renderStatus writes one table per loop, marking the active loop and the
// running assignment.
func renderStatus(w io.Writer, e *timer.Engine) {
	st := e.State()
	active := e.ActiveLoop()
	running, isRunning := e.Running()

	for _, id := range model.LoopIDs {
		loop := st.Loop(id)
		title := id.Title()
		if id == active {
			title += " (active)"
		}
		fmt.Fprintln(w, title)

		current, _ := e.Current(id)
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"#", "Task", "Done", "Allocated", "%", ""})
		for i, as := range loop.Assignments {
			done := as.Completed
			marker := ""
			if as.ID == current.ID && current.ID != "" {
				marker = "current"
				done = e.Elapsed(id)
				if isRunning && running == id {
					marker = "running"
				}
			}
			if as.IsComplete() {
				marker = "done"
			}
			tw.AppendRow(table.Row{
				i + 1,
				st.TaskName(as.TaskID),
				views.FormatMinutes(done),
				views.FormatMinutes(as.Allocated),
				fmt.Sprintf("%d%%", views.ProgressPercent(done, as.Allocated)),
				marker,
			})
		}
		if len(loop.Assignments) == 0 {
			tw.AppendRow(table.Row{"", "no tasks yet", "", "", "", ""})
		}
		tw.Render()
		if loop.Note != "" {
			fmt.Fprintf(w, "note: %s\n", loop.Note)
		}
		fmt.Fprintln(w)
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current state to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				now := a.engine.Now()
				path := out
				if path == "" {
					path = filepath.Join(".", state.ExportFileName(now))
				}
				if err := state.ExportFile(afero.NewOsFs(), path, a.engine.State(), now); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default focus-loops-<date>.json)")
	return cmd
}

func importCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the current state with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := state.ImportFile(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			if !yes {
				return errNeedsConfirmation
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				a.engine.Replace(ctx, next)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks from %s\n", len(next.Tasks), args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm replacing all data")
	return cmd
}

func resetCmd() *cobra.Command {
	var yes, factory bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear progress in every loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if factory {
					a.engine.Replace(ctx, a.store.Wipe(ctx))
					fmt.Fprintln(cmd.OutOrStdout(), "stored data deleted; default library restored")
					return nil
				}
				a.engine.ResetAll(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "all progress reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm resetting all progress")
	cmd.Flags().BoolVar(&factory, "factory", false, "delete every task and loop and restore the default library")
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sync [push|pull|auto]",
		Short:     "Sync state with the configured gist",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"push", "pull", "auto"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "auto"
			if len(args) == 1 {
				direction = args[0]
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				remote := a.remote()
				if remote == nil {
					return fmt.Errorf("sync: %w", cloudsync.ErrNotConfigured)
				}
				msg, err := runSync(ctx, direction, remote, a.engine)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}

func runSync(ctx context.Context, direction string, remote cloudsync.Remote, e *timer.Engine) (string, error) {
	switch direction {
	case "push":
		if err := remote.Push(ctx, e.State()); err != nil {
			return "", err
		}
		return "pushed local state", nil
	case "pull":
		next, err := remote.Pull(ctx)
		if err != nil {
			return "", err
		}
		e.Replace(ctx, next)
		return "pulled remote state", nil
	case "auto":
		decision, err := cloudsync.Sync(ctx, remote, e)
		if err != nil {
			return "", err
		}
		switch decision {
		case cloudsync.TakeRemote:
			return "remote was newer; local state replaced", nil
		case cloudsync.KeepLocal:
			return "local was newer; pushed", nil
		default:
			return "already in sync", nil
		}
	default:
		return "", fmt.Errorf("sync: unknown direction %q, want push, pull or auto", direction)
	}
}
