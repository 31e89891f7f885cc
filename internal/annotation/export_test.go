package annotation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenFresh(t *testing.T) {
	rec := Flatten(&Annotation{ID: "a1", ProblemID: "P1", InitialSteps: []string{"x"}})

	assert.Equal(t, 0, rec.ErrorIndex)
	assert.Empty(t, rec.ErrorType)
	assert.Equal(t, []string{}, rec.RevisedSolutionSteps)
	assert.Equal(t, "STILL_WRONG", rec.RevisionOutcome)
	assert.Nil(t, rec.ErrorIndex2)
	assert.Nil(t, rec.RevisedSolutionSteps2)
	assert.Nil(t, rec.AdditionalGuidance2)
	assert.Nil(t, rec.RevisionOutcome3)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Contains(t, m, "error_index_2")
	assert.Nil(t, m["error_index_2"])
	assert.Nil(t, m["revised_solution_steps_3"])
}

func TestFlattenThreeRounds(t *testing.T) {
	one, two := 1, 2
	a := &Annotation{
		ID:                "a1",
		InterventionCount: 3,
		Rounds: []Round{
			{Number: 1, ErrorIndex: &one, ErrorStepContent: "s1", ErrorType: ErrorCalculation, Guidance: "g1", GuidanceType: GuidanceCalculation, RevisedSteps: []string{"r1"}, Outcome: OutcomeStillWrong},
			{Number: 2, ErrorIndex: &two, ErrorStepContent: "s2", ErrorType: ErrorNotation, Guidance: "g2", GuidanceType: GuidanceDirect, RevisedSteps: []string{"r2"}, Outcome: OutcomeStillWrong},
			{Number: 3, Guidance: "g3", GuidanceType: GuidanceFormula, RevisedSteps: []string{"r3"}, Outcome: OutcomeCorrected},
		},
		FinalSteps: []string{"r3"},
		IsComplete: true,
	}

	rec := Flatten(a)
	assert.Equal(t, 1, rec.ErrorIndex)
	assert.Equal(t, "calculation_error", rec.ErrorType)
	assert.Equal(t, []string{"r1"}, rec.RevisedSolutionSteps)
	require.NotNil(t, rec.ErrorIndex2)
	assert.Equal(t, 2, *rec.ErrorIndex2)
	assert.Equal(t, "notation_error", *rec.ErrorType2)
	assert.Equal(t, "g2", *rec.GuidanceProvided2)
	assert.Equal(t, []string{"r2"}, rec.RevisedSolutionSteps2)
	assert.Equal(t, "g3", *rec.AdditionalGuidance2)
	assert.Equal(t, "formula_clarification", *rec.AdditionalGuidanceType)
	assert.Equal(t, []string{"r3"}, rec.RevisedSolutionSteps3)
	assert.Equal(t, "CORRECTED", *rec.RevisionOutcome3)
	assert.Equal(t, []string{"r3"}, rec.FinalSolutionSteps)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")
	f.start(t, "P2")
	_, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(0))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := f.svc.Export(ctx, &buf, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sc := bufio.NewScanner(&buf)
	var ids []string
	for sc.Scan() {
		var rec LegacyRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		ids = append(ids, rec.ProblemID)
	}
	assert.Equal(t, []string{"P2", "P1"}, ids)
}

func TestTaxonomy(t *testing.T) {
	tax := GetTaxonomy()
	assert.Len(t, tax.ErrorTypes, 8)
	assert.Len(t, tax.GuidanceTypes, 8)
	assert.Len(t, tax.Outcomes, 3)
	assert.Len(t, tax.GuidanceLevels, 3)

	for _, terms := range [][]Term{tax.ErrorTypes, tax.GuidanceTypes, tax.Outcomes, tax.GuidanceLevels} {
		for _, term := range terms {
			assert.NotEmpty(t, term.Label, term.Value)
			assert.NotEmpty(t, term.Description, term.Value)
		}
	}

	assert.Equal(t, "Formula Application Error", Label(string(ErrorFormula)))
	assert.Equal(t, "unknown", Label("unknown"))
	assert.True(t, ErrorNotation.Valid())
	assert.False(t, ErrorType("nope").Valid())
	assert.True(t, OutcomeDifferentError.Valid())
	assert.False(t, GuidanceType("").Valid())
}
