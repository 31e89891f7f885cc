package problem

import (
	"context"
	"errors"

	"github.com/abhisek/stepwise/internal/apperr"
)

// Samples is the starter catalogue inserted by Seed.
var Samples = []Problem{
	{
		ID:         "CALC-LIM-001",
		Category:   CategoryCalculus,
		Difficulty: DifficultyAdvanced,
		Text:       "Solve the differential equation y'' + 4y' + 4y = 0 with initial conditions y(0) = 1 and y'(0) = -2.",
	},
	{
		ID:         "ALG-SEQ-003",
		Category:   CategoryAlgebra,
		Difficulty: DifficultyIntermediate,
		Text:       "Find the sum of the first 25 terms of the arithmetic sequence where a₁ = 7 and d = 3.",
	},
	{
		ID:         "PROB-COND-002",
		Category:   CategoryProbability,
		Difficulty: DifficultyAdvanced,
		Text:       "A bag contains 4 red balls, 5 green balls, and 3 blue balls. Two balls are drawn without replacement. What is the probability that both balls are the same color?",
	},
	{
		ID:         "GEOM-TRI-005",
		Category:   CategoryGeometry,
		Difficulty: DifficultyIntermediate,
		Text:       "In triangle ABC, angle A = 60°, angle B = 45°, and side c = 10. Find the length of side a.",
	},
	{
		ID:         "CALC-INT-007",
		Category:   CategoryCalculus,
		Difficulty: DifficultyExpert,
		Text:       "Evaluate the integral ∫(0 to π/2) ln(sin x) dx.",
	},
}

// Seed inserts the sample problems, skipping ids that already exist.
// It returns the number inserted.
func (s *Service) Seed(ctx context.Context) (int, error) {
	n := 0
	for _, p := range Samples {
		_, err := s.Create(ctx, p)
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	s.log.Info("seeded sample problems", "inserted", n, "total", len(Samples))
	return n, nil
}
