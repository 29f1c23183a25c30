// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func withTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	orig := APIURL
	APIURL = ts.URL
	t.Cleanup(func() { APIURL = orig })

	return NewClient(types.AIConfig{Model: "claude-sonnet-4-5-20250929", APIKey: "test-key"}, ts.Client())
}

func TestComplete(t *testing.T) {
	var gotKey, gotVersion, gotModel string
	c := withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		gotModel, _ = req["model"].(string)

		fmt.Fprint(w, `{"content": [{"type": "text", "text": "hello back"}]}`)
	})

	text, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "hello back" {
		t.Errorf("text = %q", text)
	}
	if gotKey != "test-key" || gotVersion != "2023-06-01" {
		t.Errorf("headers = %q / %q", gotKey, gotVersion)
	}
	if gotModel != "claude-sonnet-4-5-20250929" {
		t.Errorf("model = %q", gotModel)
	}
}

func TestCompleteSkipsNonTextBlocks(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": [{"type": "thinking", "text": "..."}, {"type": "text", "text": "answer"}]}`)
	})

	text, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "answer" {
		t.Errorf("text = %q, want first text block", text)
	}
}

func TestCompleteAPIError(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "bad request"}}`)
	})

	_, err := c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Complete() should fail on HTTP 400")
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	c := withTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": []}`)
	})

	_, err := c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Complete() should fail on empty content")
	}
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	calls := 0
	c := withTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "ok"}]}`)
	})

	text, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "ok" || calls != 2 {
		t.Errorf("text = %q, calls = %d", text, calls)
	}
}
