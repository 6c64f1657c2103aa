package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_Generate(t *testing.T) {
	down := func() MockResponse { return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}} }
	invalid := func() MockResponse {
		return MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}}
	}
	ok := MockResponse{Content: json.RawMessage(`{"detail":"ok"}`)}

	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{ok}, false, 1},
		{"transient then success", []MockResponse{down(), ok}, false, 2},
		{"all attempts fail", []MockResponse{down(), down(), down(), ok}, true, 3},
		{"max tokens not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, ok}, true, 1},
		{"invalid response retried once", []MockResponse{invalid(), invalid(), ok}, true, 2},
		{"rate limit honours retry-after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, ok}, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, retryConfig())

			resp, err := p.Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(resp.Content) != `{"detail":"ok"}` {
				t.Fatalf("content = %s", resp.Content)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), retryConfig())
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}

// flakyEmbedder fails a fixed number of times before answering.
type flakyEmbedder struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *flakyEmbedder) Name() string { return "flaky/test" }

func TestRetry_Embedder(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		inner := &flakyEmbedder{failures: 2, err: &ErrRateLimit{Err: errors.New("429")}}
		e := WithEmbedRetry(inner, retryConfig())

		vecs, err := e.Embed(context.Background(), []string{"margin", "swap"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vecs) != 2 || inner.calls != 3 {
			t.Fatalf("vecs=%d calls=%d", len(vecs), inner.calls)
		}
		if e.Name() != "flaky/test" {
			t.Fatalf("name = %q", e.Name())
		}
	})

	t.Run("gives up", func(t *testing.T) {
		inner := &flakyEmbedder{failures: 10, err: &ErrProviderUnavailable{}}
		e := WithEmbedRetry(inner, retryConfig())

		if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
			t.Fatal("expected error")
		}
		if inner.calls != 3 {
			t.Fatalf("calls = %d, want 3", inner.calls)
		}
	})
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.Canceled, "canceled"},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), "canceled"},
		{&ErrMaxTokensExceeded{}, "max_tokens"},
		{&ErrInvalidResponse{Err: errors.New("bad")}, "invalid_response"},
		{&ErrRateLimit{Err: errors.New("429")}, "rate_limit"},
		{fmt.Errorf("generate: %w", &ErrProviderUnavailable{}), "unavailable"},
		{errors.New("dial tcp"), "other"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
