package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/abhisek/stepwise/internal/problem"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Manage the problem bank",
}

var problemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := problemFilterFlags(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		ps, err := d.problems.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			fmt.Println("No problems found.")
			return nil
		}

		fmt.Printf("%-10s  %-14s  %-12s  %-9s  %s\n", "ID", "Category", "Difficulty", "State", "Text")
		fmt.Println(strings.Repeat("─", 100))
		for _, p := range ps {
			fmt.Printf("%-10s  %-14s  %-12s  %-9s  %s\n",
				truncate(p.ID, 10), p.Category, p.Difficulty, problemState(p), truncate(oneLine(p.Text), 48))
		}
		fmt.Printf("\n%d problems\n", len(ps))
		return nil
	},
}

var problemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.problems.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printProblem(p)
		return nil
	},
}

var problemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a problem",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		category, _ := cmd.Flags().GetString("category")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		text, _ := cmd.Flags().GetString("text")

		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.problems.Create(cmd.Context(), problem.Problem{
			ID:         id,
			Category:   problem.Category(category),
			Difficulty: problem.Difficulty(difficulty),
			Text:       text,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created problem %s.\n", p.ID)
		return nil
	},
}

var problemsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import problems from a JSON array",
	Long: `Import problems from a JSON array of objects with problem_id, category,
difficulty and text. Existing ids are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		var bar *progressbar.ProgressBar
		res, err := d.problems.Import(cmd.Context(), f, func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "importing")
			}
			_ = bar.Set(done)
		})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return err
		}

		fmt.Printf("Created %d, skipped %d, failed %d.\n", res.Created, res.Skipped, res.Failed)
		for _, e := range res.Errors {
			fmt.Println("  " + e)
		}
		return nil
	},
}

var problemsRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick a random problem that still needs annotating",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := problemFilterFlags(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.problems.RandomEligible(cmd.Context(), f)
		if err != nil {
			return err
		}
		printProblem(p)
		return nil
	},
}

var problemsDiscardCmd = &cobra.Command{
	Use:   "discard <id>",
	Short: "Exclude a problem from annotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.annotations.Discard(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Discarded problem %s.\n", p.ID)
		return nil
	},
}

func problemFilterFlags(cmd *cobra.Command) (problem.Filter, error) {
	var f problem.Filter
	category, _ := cmd.Flags().GetString("category")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	f.Category = problem.Category(category)
	f.Difficulty = problem.Difficulty(difficulty)

	for name, dst := range map[string]**bool{"annotated": &f.Annotated, "discarded": &f.Discarded} {
		if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetBool(name)
		if err != nil {
			return f, err
		}
		*dst = &v
	}
	return f, nil
}

func problemState(p *problem.Problem) string {
	switch {
	case p.IsDiscarded:
		return "discarded"
	case p.IsAnnotated:
		return "done"
	default:
		return "open"
	}
}

func printProblem(p *problem.Problem) {
	fmt.Printf("ID:         %s\n", p.ID)
	fmt.Printf("Category:   %s\n", p.Category)
	fmt.Printf("Difficulty: %s\n", p.Difficulty)
	fmt.Printf("State:      %s\n", problemState(p))
	fmt.Printf("Created:    %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Println()
	fmt.Println(p.Text)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	categories := make([]string, len(problem.Categories))
	for i, c := range problem.Categories {
		categories[i] = string(c)
	}
	difficulties := make([]string, len(problem.Difficulties))
	for i, d := range problem.Difficulties {
		difficulties[i] = string(d)
	}
	catHelp := "Category (" + strings.Join(categories, ", ") + ")"
	diffHelp := "Difficulty (" + strings.Join(difficulties, ", ") + ")"

	for _, c := range []*cobra.Command{problemsListCmd, problemsRandomCmd} {
		c.Flags().StringP("category", "c", "", catHelp)
		c.Flags().StringP("difficulty", "d", "", diffHelp)
	}
	problemsListCmd.Flags().Bool("annotated", false, "Only annotated (true) or unannotated (false) problems")
	problemsListCmd.Flags().Bool("discarded", false, "Only discarded (true) or kept (false) problems")

	problemsAddCmd.Flags().String("id", "", "Problem id (required)")
	problemsAddCmd.Flags().StringP("category", "c", "", catHelp+" (required)")
	problemsAddCmd.Flags().StringP("difficulty", "d", "", diffHelp+" (required)")
	problemsAddCmd.Flags().StringP("text", "t", "", "Problem statement (required)")
	for _, name := range []string{"id", "category", "difficulty", "text"} {
		_ = problemsAddCmd.MarkFlagRequired(name)
	}

	problemsCmd.AddCommand(problemsListCmd)
	problemsCmd.AddCommand(problemsShowCmd)
	problemsCmd.AddCommand(problemsAddCmd)
	problemsCmd.AddCommand(problemsImportCmd)
	problemsCmd.AddCommand(problemsRandomCmd)
	problemsCmd.AddCommand(problemsDiscardCmd)
}
