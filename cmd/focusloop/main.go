package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sandeepkv93/focusloop/internal/update"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "focusloop",
	Short: "Loop-based focus timer",
	Long: `focusloop cycles through a short list of tasks per context:
out of the house, at home on a weekday, at home on a weekend.
Each task gets its own time allocation; one timer runs at a time.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func main() {
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default focusloop.yaml in . or the data dir)")
	flags.String("data-dir", "", "directory for the database, logs and config")
	flags.String("store", "", "persistence backend: sqlite or file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("store", flags.Lookup("store"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(syncCmd())
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the interactive timer (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	m := update.NewModel(a.engine, update.Runtime{
		Announcements: a.queue,
		AlarmEvents:   a.events,
		Sound:         a.sound(),
		ExportDir:     ".",
		Remote:        a.remote(),
		TickInterval:  a.cfg.TickInterval,
		Logger:        a.logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("focusloop failed: %w", err)
	}
	return nil
}
