package store

import (
	"context"
	"time"
)

// ProblemRepo persists problems, keyed by their client-assigned id.
type ProblemRepo interface {
	// Find returns every match, newest first.
	Find(ctx context.Context, f Filter) ([]*ProblemRecord, error)

	// FindOne returns the newest match, or nil if none.
	FindOne(ctx context.Context, f Filter) (*ProblemRecord, error)

	// Get returns the problem with the given id, or nil if absent.
	Get(ctx context.Context, problemID string) (*ProblemRecord, error)

	// Create inserts rec with fresh timestamps. Returns ErrDuplicate if
	// the id is taken.
	Create(ctx context.Context, rec *ProblemRecord) (*ProblemRecord, error)

	// UpdateByID applies a partial update and returns the refreshed
	// record, or nil if the id is unknown.
	UpdateByID(ctx context.Context, problemID string, p Patch) (*ProblemRecord, error)
}

// AnnotationRepo persists annotations, keyed by a store-assigned UUID.
type AnnotationRepo interface {
	Find(ctx context.Context, f Filter) ([]*AnnotationRecord, error)
	FindOne(ctx context.Context, f Filter) (*AnnotationRecord, error)
	Get(ctx context.Context, id string) (*AnnotationRecord, error)
	Create(ctx context.Context, rec *AnnotationRecord) (*AnnotationRecord, error)
	UpdateByID(ctx context.Context, id string, p Patch) (*AnnotationRecord, error)
}

// Repos groups the repositories that can take part in a transaction.
type Repos struct {
	Problems    ProblemRepo
	Annotations AnnotationRepo
}

// QueryOpts configures LLM event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose match (empty = any)
	Before  int    // id < Before (0 = no bound)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// UsageStat aggregates token usage for one purpose or model.
type UsageStat struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]UsageStat, error)

	// LLMUsageByModel aggregates usage grouped by model.
	LLMUsageByModel(ctx context.Context) ([]UsageStat, error)
}
