package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/stepwise/internal/store"
)

type recordingEventRepo struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{
		Content: []byte("Step 1: done"),
		Usage:   Usage{InputTokens: 12, OutputTokens: 7, TotalTokens: 19},
	})
	p := WithLogging(mock, "mock", repo, nil)

	ctx := WithPurpose(context.Background(), "solution-initial")
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "Problem: 1+1"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	e := repo.events[0]
	if e.Purpose != "solution-initial" || !e.Success || e.Provider != "mock" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.InputTokens != 12 || e.OutputTokens != 7 {
		t.Fatalf("unexpected token counts: %+v", e)
	}
	if !strings.Contains(e.RequestBody, "[user]\nProblem: 1+1") {
		t.Fatalf("request body not serialized: %q", e.RequestBody)
	}
	if e.ResponseBody != "Step 1: done" {
		t.Fatalf("unexpected response body %q", e.ResponseBody)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, "mock", repo, nil)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.events) != 1 || repo.events[0].Success {
		t.Fatalf("expected one failed event, got %+v", repo.events)
	}
	if !strings.Contains(repo.events[0].ErrorMessage, "down") {
		t.Fatalf("error message not captured: %q", repo.events[0].ErrorMessage)
	}
}

func TestLoggingProvider_EventStoreFailureDoesNotFailRequest(t *testing.T) {
	repo := &recordingEventRepo{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(TextResponse("Step 1: ok")), "mock", repo, nil)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "Step 1: ok" {
		t.Fatalf("unexpected text %q", resp.Text())
	}
}

func TestNewProvider_MockIsDemo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"

	p, err := NewProvider(context.Background(), cfg, &recordingEventRepo{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 2 {
		resp, err := p.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("demo provider should always answer: %v", err)
		}
		if !strings.HasPrefix(resp.Text(), "Step 1:") {
			t.Fatalf("unexpected demo text %q", resp.Text())
		}
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Step 1: plain", "Step 1: plain"},
		{`"quoted \"json\" string"`, `quoted "json" string`},
		{`{"steps":["a"]}`, `{"steps":["a"]}`},
	}
	for _, tt := range tests {
		r := &Response{Content: []byte(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}
