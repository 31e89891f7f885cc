package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/spf13/cobra"
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Inspect and export stored annotations",
}

var annotationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List annotations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := annotationFilterFlags(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		list, err := d.annotations.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No annotations found.")
			return nil
		}

		fmt.Printf("%-36s  %-10s  %-19s  %-6s  %-11s  %s\n",
			"ID", "Problem", "Created", "Rounds", "State", "Outcome")
		fmt.Println(strings.Repeat("─", 104))
		for _, a := range list {
			outcome := ""
			if r := a.Round(a.InterventionCount); r != nil {
				outcome = string(r.Outcome)
			}
			fmt.Printf("%-36s  %-10s  %-19s  %d/%d    %-11s  %s\n",
				a.ID, truncate(a.ProblemID, 10),
				a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				a.InterventionCount, annotation.MaxRounds, a.State(), outcome)
		}
		return nil
	},
}

var annotationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an annotation with every round",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		a, err := d.annotations.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		sep := strings.Repeat("─", 60)
		fmt.Printf("ID:        %s\n", a.ID)
		fmt.Printf("Problem:   %s (%s, %s)\n", a.ProblemID, a.Category, a.Difficulty)
		fmt.Printf("State:     %s\n", a.State())
		fmt.Printf("Rounds:    %d/%d\n", a.InterventionCount, annotation.MaxRounds)
		fmt.Printf("Created:   %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Println()
		fmt.Println(a.ProblemText)

		fmt.Println(sep)
		fmt.Println("INITIAL SOLUTION")
		fmt.Println(sep)
		printSteps(a.InitialSteps)

		for _, r := range a.Rounds {
			fmt.Println(sep)
			fmt.Printf("ROUND %d (%s)\n", r.Number, r.GuidanceLevel)
			fmt.Println(sep)
			if r.ErrorIndex != nil {
				fmt.Printf("Error:     step %d, %s\n", *r.ErrorIndex+1, annotation.Label(string(r.ErrorType)))
				fmt.Printf("Step:      %s\n", r.ErrorStepContent)
			}
			fmt.Printf("Guidance:  [%s] %s\n", annotation.Label(string(r.GuidanceType)), r.Guidance)
			if r.Outcome != "" {
				fmt.Printf("Outcome:   %s\n", annotation.Label(string(r.Outcome)))
			}
			fmt.Println()
			printSteps(r.RevisedSteps)
		}

		if a.IsComplete {
			fmt.Println(sep)
			fmt.Println("FINAL SOLUTION")
			fmt.Println(sep)
			printSteps(a.FinalSteps)
		}
		return nil
	},
}

var annotationsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write annotations as JSON Lines in the flat training-data layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := annotationFilterFlags(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		var w io.Writer = os.Stdout
		if out, _ := cmd.Flags().GetString("output"); out != "" && out != "-" {
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer file.Close()
			w = file
		}

		n, err := d.annotations.Export(cmd.Context(), w, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d annotations.\n", n)
		return nil
	},
}

var annotationsRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Mark problems annotated when their completed annotation left them open",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.annotations.Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Repaired %d problems.\n", n)
		return nil
	},
}

func annotationFilterFlags(cmd *cobra.Command) (annotation.Filter, error) {
	var f annotation.Filter
	f.ProblemID, _ = cmd.Flags().GetString("problem")
	if cmd.Flags().Changed("complete") {
		v, err := cmd.Flags().GetBool("complete")
		if err != nil {
			return f, err
		}
		f.Complete = &v
	}
	return f, nil
}

func printSteps(steps []string) {
	if len(steps) == 0 {
		fmt.Println("(no steps)")
		return
	}
	for i, s := range steps {
		fmt.Printf("Step %d: %s\n", i+1, s)
	}
}

func init() {
	for _, c := range []*cobra.Command{annotationsListCmd, annotationsExportCmd} {
		c.Flags().StringP("problem", "p", "", "Only annotations of this problem id")
		c.Flags().Bool("complete", false, "Only complete (true) or in-progress (false) annotations")
	}
	annotationsExportCmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")

	annotationsCmd.AddCommand(annotationsListCmd)
	annotationsCmd.AddCommand(annotationsShowCmd)
	annotationsCmd.AddCommand(annotationsExportCmd)
	annotationsCmd.AddCommand(annotationsRepairCmd)
}
