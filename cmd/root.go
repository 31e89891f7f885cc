package cmd

import (
	"github.com/abhisek/stepwise/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Human-in-the-loop annotation of model math solutions",
	Long: `Stepwise asks a model to solve math problems step by step, lets a reviewer
flag the first wrong step and guide up to three revisions, and stores the
full correction trail as training data.

Run without a subcommand to open the reviewer TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringSlice("env-file")
		return config.LoadEnv(files...)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides config and STEPWISE_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Env files to load (default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(problemsCmd)
	rootCmd.AddCommand(annotationsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
