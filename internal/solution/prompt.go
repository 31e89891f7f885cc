package solution

import (
	"fmt"
	"strings"
)

const initialSystemPrompt = `You are being asked to solve a complex math problem. Please provide a step-by-step solution with detailed explanations of your reasoning at each step. Define a "step" as one logical unit of the solution process (e.g., a single mathematical operation, a deduction or inference, application of a theorem or formula, a conclusion based on previous steps). Number each step clearly and show all work, including any formulas, calculations, or theorems you apply. Try to be as thorough as possible in your explanation.`

const revisionSystemPrompt = `You are being asked to revise your solution to a math problem based on feedback. Please carefully consider the guidance provided and update your solution accordingly. Maintain the step-by-step format, and ensure your revised solution is complete.`

// structuredSuffix is appended to system prompts in structured mode.
const structuredSuffix = `

Respond with a JSON object whose "steps" array holds one string per step, in order, without the "Step N:" prefix.`

func buildInitialMessage(problemText string) string {
	return "Problem: " + problemText
}

// guidancePrefix renders the escalation template for a level. n is the
// 1-based step number.
func guidancePrefix(level GuidanceLevel, n int, guidance string) string {
	switch level {
	case LevelTargeted:
		return fmt.Sprintf("You're still making an error in Step %d. %s", n, guidance)
	case LevelCompleteCorrection:
		return fmt.Sprintf("You're still making an error in Step %d. Here is exactly what Step %d should be: %s", n, n, guidance)
	default:
		return fmt.Sprintf("Your solution has an error at Step %d. %s", n, guidance)
	}
}

func buildRevisionMessage(rev Revision) string {
	n := rev.ErrorIndex + 1

	var b strings.Builder
	b.WriteString(guidancePrefix(rev.Level, n, rev.Guidance))
	fmt.Fprintf(&b, " Revise your solution, keeping Steps 1 through %d exactly as they were, and updating Step %d and any subsequent steps as needed. Present your complete revised solution with all steps.", n-1, n)

	b.WriteString("\n\nOriginal problem: ")
	b.WriteString(rev.ProblemText)
	b.WriteString("\n\nYour previous solution:\n")
	for i, s := range rev.PreviousSteps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Step %d: %s", i+1, s)
	}
	return b.String()
}
