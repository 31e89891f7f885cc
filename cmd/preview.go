package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/llm"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Try the solution model on a problem (no database)",
	Long: `Generate a step-by-step solution and interactively guide up to three
revisions from the terminal.

This is a stateless developer tool: nothing is stored and no LLM events are
logged. Useful for evaluating prompts and models.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("text", "", "Problem statement")
	previewCmd.Flags().String("sample", "", "Use the sample problem with this id instead of --text")
}

func runPreview(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	sampleID, _ := cmd.Flags().GetString("sample")

	switch {
	case text != "" && sampleID != "":
		return fmt.Errorf("use --text or --sample, not both")
	case sampleID != "":
		p, err := findSample(sampleID)
		if err != nil {
			return err
		}
		text = p.Text
	case text == "":
		return fmt.Errorf("one of --text or --sample is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// No EventRepo: logging to the event store is skipped.
	ctx := context.Background()
	provider, err := llm.NewProvider(ctx, cfg.ProviderConfig(), nil, nil)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	gen := solution.New(provider, cfg.GeneratorConfig())

	fmt.Printf("Model: %s\n\n%s\n\n", provider.ModelID(), text)
	fmt.Println("Generating the initial solution...")

	initial, err := gen.Initial(ctx, text)
	if err != nil {
		return fmt.Errorf("initial solution: %w", err)
	}
	fmt.Println("\n── Initial solution ──")
	printSteps(initial)

	// Later attempts revise the first revision, as the annotation
	// workflow does.
	source := initial
	scanner := bufio.NewScanner(os.Stdin)
	for attempt := 1; attempt <= annotation.MaxRounds; attempt++ {
		level := solution.LevelForAttempt(attempt)
		fmt.Printf("\nRound %d (%s). First wrong step number, or empty to stop: ", attempt, level)
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			return nil
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > len(source) {
			fmt.Printf("Enter a number between 1 and %d.\n", len(source))
			attempt--
			continue
		}

		fmt.Print("Guidance: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			return nil
		}
		guidance := strings.TrimSpace(scanner.Text())
		if guidance == "" {
			fmt.Println("(skipped)")
			attempt--
			continue
		}

		revised, err := gen.Revise(ctx, solution.Revision{
			ProblemText:   text,
			PreviousSteps: source,
			ErrorIndex:    n - 1,
			Guidance:      guidance,
			Level:         level,
		})
		if err != nil {
			fmt.Printf("Revision failed: %v\n", err)
			continue
		}
		fmt.Printf("\n── Revision %d ──\n", attempt)
		printSteps(revised)
		if attempt == 1 {
			source = revised
		}
	}
	return nil
}

func findSample(id string) (problem.Problem, error) {
	var ids []string
	for _, p := range problem.Samples {
		if p.ID == id {
			return p, nil
		}
		ids = append(ids, p.ID)
	}
	return problem.Problem{}, fmt.Errorf("no sample problem %q (have %s)", id, strings.Join(ids, ", "))
}
