// Package cli defines Cobra command definitions for the ainotes CLI.
// This file contains the root command, global flags, and the TUI launch.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/nav"
	"github.com/ainotes-dev/ainotes/internal/tui"
	"github.com/ainotes-dev/ainotes/internal/tui/app"
)

var version = "dev" // set via ldflags at build time

// options are the persistent flags shared by every command.
type options struct {
	server    string
	home      string
	ephemeral bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	var view string

	rootCmd := &cobra.Command{
		Use:   "ainotes",
		Short: "Terminal client for AI notes",
		Long: `ainotes signs you in to an AI notes server, lists your text and image
notes grouped by age, and lets you ask questions about them.

Run without a subcommand in a terminal to open the interactive UI.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// When no subcommand is provided, launch TUI if TTY, show help otherwise
			if !tui.IsTTY() {
				return cmd.Help()
			}

			start, err := nav.Parse(view)
			if err != nil {
				return err
			}

			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			tuiApp := app.New(app.Services{
				Session:   e.session,
				Notes:     e.notes,
				Assistant: e.assistant,
				Config:    e.cfg,
				Start:     start,
			})
			e.session.OnExpired(tuiApp.NotifyExpired)
			return tui.Run(tuiApp)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "", "Notes API base URL (overrides config and $AINOTES_SERVER)")
	rootCmd.PersistentFlags().StringVar(&opts.home, "home", "", "State directory (default $AINOTES_HOME or ~/.ainotes)")
	rootCmd.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "Keep tokens in memory only for this run")
	rootCmd.Flags().StringVar(&view, "view", "list", "Start view: list, create/text, create/image or note/<id>")

	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newRegisterCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newNotesCmd(opts))
	rootCmd.AddCommand(newAskCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperr.Message(err))
		os.Exit(1)
	}
}
