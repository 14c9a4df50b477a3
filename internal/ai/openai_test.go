package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func newFakeOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI(OpenAIConfig{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		ImageDir: t.TempDir(),
	})
}

func TestSummaryParsesResponsesOutput(t *testing.T) {
	gen := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"output":[
			{"type":"web_search_call"},
			{"type":"message","content":[
				{"type":"output_text","text":"Ringkasan "},
				{"type":"output_text","text":"artikel."}
			]}
		]}`)
	})

	got := gen.Summary(context.Background(), "Title", "https://example.com")
	if got != "Ringkasan artikel." {
		t.Errorf("Summary = %q", got)
	}
}

func TestCaptionUsesChatCompletions(t *testing.T) {
	gen := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  Senyum sehat! 🦷  "}}]}`)
	})

	if got := gen.Caption(context.Background(), "summary"); got != "Senyum sehat! 🦷" {
		t.Errorf("Caption = %q", got)
	}
}

func TestTextStepsReturnSentinelsOnFailure(t *testing.T) {
	gen := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	ctx := context.Background()
	if got := gen.Summary(ctx, "T", "U"); got != SummaryFailed {
		t.Errorf("Summary sentinel = %q", got)
	}
	if got := gen.Caption(ctx, "s"); got != CaptionFailed {
		t.Errorf("Caption sentinel = %q", got)
	}
	if got := gen.ImagePrompt(ctx, "s"); got != ImagePromptFailed {
		t.Errorf("ImagePrompt sentinel = %q", got)
	}
}

func TestTextStepsReturnPlaceholderOnEmptyContent(t *testing.T) {
	gen := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/responses" {
			fmt.Fprint(w, `{"output":[]}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"   "}}]}`)
	})

	ctx := context.Background()
	if got := gen.Summary(ctx, "T", "U"); got != NoSummaryReturned {
		t.Errorf("Summary = %q", got)
	}
	if got := gen.Caption(ctx, "s"); got != NoCaptionReturned {
		t.Errorf("Caption = %q", got)
	}
}

func TestMissingAPIKeyIsSentinelNotPanic(t *testing.T) {
	gen := NewOpenAI(OpenAIConfig{})
	if got := gen.Caption(context.Background(), "s"); got != CaptionFailed {
		t.Errorf("Caption without key = %q, want sentinel", got)
	}
}

func TestGenerateImageWritesFile(t *testing.T) {
	// 1x1 transparent PNG
	const b64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
	gen := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"data":[{"b64_json":"%s"}]}`, b64)
	})

	path, err := gen.GenerateImage(context.Background(), "a healthy smile")
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("unexpected path %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("image file not written: %v", err)
	}
}

func TestGenerateImageErrorsPropagate(t *testing.T) {
	gen := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})
	if _, err := gen.GenerateImage(context.Background(), "p"); err == nil {
		t.Fatal("expected error for empty image data")
	}
}
