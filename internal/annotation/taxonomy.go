package annotation

import "github.com/abhisek/stepwise/internal/solution"

// ErrorType classifies the first wrong step of a solution.
type ErrorType string

const (
	ErrorCalculation       ErrorType = "calculation_error"
	ErrorConceptual        ErrorType = "conceptual_misunderstanding"
	ErrorApproachSelection ErrorType = "approach_selection_error"
	ErrorLogicalReasoning  ErrorType = "logical_reasoning_error"
	ErrorDomainConstraint  ErrorType = "domain_constraint_error"
	ErrorFormula           ErrorType = "formula_application_error"
	ErrorNotation          ErrorType = "notation_error"
	ErrorOther             ErrorType = "other_error"
)

// GuidanceType classifies the reviewer's correction.
type GuidanceType string

const (
	GuidanceCalculation GuidanceType = "calculation_correction"
	GuidanceConcept     GuidanceType = "concept_clarification"
	GuidanceApproach    GuidanceType = "approach_redirection"
	GuidanceLogicalFlow GuidanceType = "logical_flow_correction"
	GuidanceDomain      GuidanceType = "domain_reminder"
	GuidanceFormula     GuidanceType = "formula_clarification"
	GuidanceDirect      GuidanceType = "direct_correction"
	GuidanceOther       GuidanceType = "other_correction"
)

// Outcome is the reviewer's verdict on a revision.
type Outcome string

const (
	OutcomeCorrected      Outcome = "CORRECTED"
	OutcomeStillWrong     Outcome = "STILL_WRONG"
	OutcomeDifferentError Outcome = "DIFFERENT_ERROR"
)

// Term describes one enumeration value for display.
type Term struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Taxonomy groups every enumeration clients need to render forms.
type Taxonomy struct {
	ErrorTypes     []Term `json:"error_types"`
	GuidanceTypes  []Term `json:"guidance_types"`
	Outcomes       []Term `json:"outcomes"`
	GuidanceLevels []Term `json:"guidance_levels"`
}

var errorTerms = []Term{
	{string(ErrorCalculation), "Calculation Error", "Arithmetic or algebraic manipulation is wrong"},
	{string(ErrorConceptual), "Conceptual Misunderstanding", "The underlying mathematical idea is misunderstood"},
	{string(ErrorApproachSelection), "Approach Selection Error", "The chosen method cannot or should not solve the problem"},
	{string(ErrorLogicalReasoning), "Logical Reasoning Error", "A deduction does not follow from the previous steps"},
	{string(ErrorDomainConstraint), "Domain Constraint Error", "A restriction on values or domain is ignored"},
	{string(ErrorFormula), "Formula Application Error", "A formula or theorem is misstated or misapplied"},
	{string(ErrorNotation), "Notation Error", "Symbols or notation are used incorrectly"},
	{string(ErrorOther), "Other Error", "Anything not covered above"},
}

var guidanceTerms = []Term{
	{string(GuidanceCalculation), "Calculation Correction", "Points at the faulty computation"},
	{string(GuidanceConcept), "Concept Clarification", "Explains the concept the model got wrong"},
	{string(GuidanceApproach), "Approach Redirection", "Suggests a different method"},
	{string(GuidanceLogicalFlow), "Logical Flow Correction", "Fixes the chain of reasoning"},
	{string(GuidanceDomain), "Domain Reminder", "Reminds the model of a constraint"},
	{string(GuidanceFormula), "Formula Clarification", "States the correct formula or theorem"},
	{string(GuidanceDirect), "Direct Correction", "Gives the corrected step outright"},
	{string(GuidanceOther), "Other Correction", "Anything not covered above"},
}

var outcomeTerms = []Term{
	{string(OutcomeCorrected), "Corrected", "The revision fixes the error"},
	{string(OutcomeStillWrong), "Still Wrong", "The same error remains"},
	{string(OutcomeDifferentError), "Different Error", "The original error is fixed but a new one appears"},
}

var levelTerms = []Term{
	{string(solution.LevelDirectional), "Directional", "Names the wrong step and hints at the issue"},
	{string(solution.LevelTargeted), "Targeted", "Repeats the step and narrows the guidance"},
	{string(solution.LevelCompleteCorrection), "Complete Correction", "Gives the exact content of the step"},
}

// registry indexes every term by value; values are unique across kinds.
var registry map[string]*Term

func init() {
	registry = make(map[string]*Term)
	for _, terms := range [][]Term{errorTerms, guidanceTerms, outcomeTerms, levelTerms} {
		for i := range terms {
			registry[terms[i].Value] = &terms[i]
		}
	}
}

func contains(terms []Term, v string) bool {
	for _, t := range terms {
		if t.Value == v {
			return true
		}
	}
	return false
}

func (e ErrorType) Valid() bool    { return contains(errorTerms, string(e)) }
func (g GuidanceType) Valid() bool { return contains(guidanceTerms, string(g)) }
func (o Outcome) Valid() bool      { return contains(outcomeTerms, string(o)) }

// Label returns the display label for any enumeration value, or the value
// itself if unknown.
func Label(value string) string {
	if t, ok := registry[value]; ok {
		return t.Label
	}
	return value
}

// GetTaxonomy returns copies of every enumeration in display order.
func GetTaxonomy() Taxonomy {
	return Taxonomy{
		ErrorTypes:     append([]Term(nil), errorTerms...),
		GuidanceTypes:  append([]Term(nil), guidanceTerms...),
		Outcomes:       append([]Term(nil), outcomeTerms...),
		GuidanceLevels: append([]Term(nil), levelTerms...),
	}
}
