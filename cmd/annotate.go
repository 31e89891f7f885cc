package cmd

import (
	"context"

	"github.com/abhisek/stepwise/internal/app"
	"github.com/spf13/cobra"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Open the reviewer TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

// runTUI opens the store, builds dependencies, and launches the TUI.
func runTUI(cmd *cobra.Command) error {
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	logPath, err := tuiLogPath()
	if err != nil {
		return err
	}
	d, err := openDeps(cmd, depsOptions{withLLM: true, logFile: logPath})
	if err != nil {
		return err
	}
	defer d.Close()

	if _, err := d.annotations.Reconcile(cmd.Context()); err != nil {
		d.log.Warn("startup reconcile failed", "error", err)
	}

	return app.Run(app.Options{
		Problems:    d.problems,
		Annotations: d.annotations,
	})
}
