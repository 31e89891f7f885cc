package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	problemColumns = []*schema.Column{
		{Name: "problem_id", Type: field.TypeString, Size: 64},
		{Name: "category", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "is_annotated", Type: field.TypeBool, Default: false},
		{Name: "is_discarded", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	problemsTable = &schema.Table{
		Name:       "problems",
		Columns:    problemColumns,
		PrimaryKey: []*schema.Column{problemColumns[0]},
		Indexes: []*schema.Index{
			{Name: "problem_category_difficulty", Columns: []*schema.Column{problemColumns[1], problemColumns[2]}},
			{Name: "problem_is_annotated_is_discarded", Columns: []*schema.Column{problemColumns[4], problemColumns[5]}},
		},
	}

	annotationColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "problem_id", Type: field.TypeString, Size: 64},
		{Name: "category", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "problem_text", Type: field.TypeString, Size: 2147483647},
		{Name: "initial_solution_steps", Type: field.TypeJSON},
		{Name: "intervention_count", Type: field.TypeInt, Default: 0},
		{Name: "rounds", Type: field.TypeJSON},
		{Name: "final_solution_steps", Type: field.TypeJSON},
		{Name: "is_complete", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	annotationsTable = &schema.Table{
		Name:       "annotations",
		Columns:    annotationColumns,
		PrimaryKey: []*schema.Column{annotationColumns[0]},
		Indexes: []*schema.Index{
			{Name: "annotation_problem_id", Columns: []*schema.Column{annotationColumns[1]}},
			{Name: "annotation_is_complete", Columns: []*schema.Column{annotationColumns[9]}},
		},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventColumns[4]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmEventColumns[1]}},
		},
	}

	tables = []*schema.Table{problemsTable, annotationsTable, llmEventsTable}
)

func init() {
	annotationsTable.ForeignKeys = []*schema.ForeignKey{
		{
			Symbol:     "annotations_problems_annotations",
			Columns:    []*schema.Column{annotationColumns[1]},
			RefColumns: []*schema.Column{problemColumns[0]},
			RefTable:   problemsTable,
			OnDelete:   schema.NoAction,
		},
	}
}

// migrate creates missing tables, columns and indexes.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, tables...)
}
