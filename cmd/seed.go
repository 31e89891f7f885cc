package cmd

import (
	"fmt"

	"github.com/abhisek/stepwise/internal/problem"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.problems.Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed problems: %w", err)
		}
		fmt.Printf("Inserted %d of %d sample problems.\n", n, len(problem.Samples))
		return nil
	},
}
