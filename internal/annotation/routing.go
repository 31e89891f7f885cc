package annotation

import "github.com/abhisek/stepwise/internal/solution"

// stepsSource picks the steps an attempt revises, indexed by attempt-1.
// Attempts 2 and 3 both revise round 1's output when it has any.
var stepsSource = [MaxRounds]func(a *Annotation) []string{
	func(a *Annotation) []string { return a.InitialSteps },
	roundOneOrInitial,
	roundOneOrInitial,
}

func roundOneOrInitial(a *Annotation) []string {
	if r := a.Round(1); r != nil && len(r.RevisedSteps) > 0 {
		return r.RevisedSteps
	}
	return a.InitialSteps
}

func stepsForAttempt(a *Annotation, attempt int) []string {
	if attempt < 1 || attempt > MaxRounds {
		return nil
	}
	return stepsSource[attempt-1](a)
}

// slotFor builds the round recorded by an attempt, indexed by attempt-1.
// Only rounds 1 and 2 keep the reviewer's error classification.
var slotFor = [MaxRounds]func(n int, g Guidance, steps []string) Round{
	classifiedRound,
	classifiedRound,
	func(n int, g Guidance, steps []string) Round {
		return Round{
			Number:        n,
			Guidance:      g.Text,
			GuidanceType:  g.Type,
			GuidanceLevel: solution.LevelForAttempt(n),
			RevisedSteps:  steps,
			Outcome:       OutcomeStillWrong,
		}
	},
}

func classifiedRound(n int, g Guidance, steps []string) Round {
	idx := *g.ErrorIndex
	return Round{
		Number:           n,
		ErrorIndex:       &idx,
		ErrorStepContent: g.ErrorStepContent,
		ErrorType:        g.ErrorType,
		Guidance:         g.Text,
		GuidanceType:     g.Type,
		GuidanceLevel:    solution.LevelForAttempt(n),
		RevisedSteps:     steps,
		Outcome:          OutcomeStillWrong,
	}
}

// finalSteps returns the first non-empty revision scanning from the last
// round back to the first.
func finalSteps(rounds []Round) []string {
	for i := len(rounds) - 1; i >= 0; i-- {
		if len(rounds[i].RevisedSteps) > 0 {
			return rounds[i].RevisedSteps
		}
	}
	return []string{}
}
