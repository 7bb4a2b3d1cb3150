package modelcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lunateq/mnemo/llm"
)

type fakeClient struct {
	models []string
	err    error
	calls  int
}

func (f *fakeClient) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	return llm.Result{}, errors.New("not used")
}

func (f *fakeClient) ListModels(ctx context.Context) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

func TestModels_CachedWithinTTL(t *testing.T) {
	fc := &fakeClient{models: []string{"a", "b"}}
	c := New(fc, time.Hour)

	for i := 0; i < 3; i++ {
		got, err := c.Models(context.Background())
		if err != nil {
			t.Fatalf("models: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 models, got %v", got)
		}
	}
	if fc.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", fc.calls)
	}
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	fc := &fakeClient{models: []string{"a"}}
	c := New(fc, time.Hour)

	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("models: %v", err)
	}
	c.Invalidate()
	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("models after invalidate: %v", err)
	}
	if fc.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", fc.calls)
	}
}

func TestModels_StaleFallbackOnError(t *testing.T) {
	fc := &fakeClient{models: []string{"a"}}
	c := New(fc, time.Hour)

	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("models: %v", err)
	}

	// Upstream starts failing; the stale copy still serves.
	fc.err = errors.New("upstream down")
	c.Invalidate()
	got, err := c.Models(context.Background())
	if err != nil || len(got) != 0 {
		// After Invalidate there is no stale copy, so the error surfaces.
		if err == nil {
			t.Fatalf("expected error after invalidate with failing upstream, got %v", got)
		}
	}

	// With a stale (expired) copy present, the error is swallowed.
	fc.err = nil
	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("refill: %v", err)
	}
	fc.err = errors.New("upstream down")
	c.TTL = time.Nanosecond
	time.Sleep(time.Millisecond)
	got, err = c.Models(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected stale copy, got %v", got)
	}
}
