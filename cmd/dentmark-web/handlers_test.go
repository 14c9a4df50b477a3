package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dentmark "github.com/Gibihakkasy/dental-clinic-marketing"
)

type stubGen struct{}

func (stubGen) Summary(ctx context.Context, title, url string) string {
	return "ringkasan untuk " + title
}
func (stubGen) Caption(ctx context.Context, summary string) string     { return "caption instagram" }
func (stubGen) ImagePrompt(ctx context.Context, summary string) string { return "image prompt" }

func serveFeed(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Dental News</title>
<item><title>Teeth Whitening</title><link>https://example.com/whitening</link>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
</channel></rss>`)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newTestServer(t *testing.T, feedURLs ...string) (*httptest.Server, *dentmark.Engine) {
	t.Helper()
	dir := t.TempDir()
	cfg := dentmark.DefaultConfig()
	cfg.DBPath = filepath.Join(dir, "test.db")
	cfg.Feeds = feedURLs
	cfg.DocumentsDir = filepath.Join(dir, "documents")
	cfg.ImageDir = filepath.Join(dir, "images")

	engine, err := dentmark.NewEngineWithProvider(cfg, stubGen{}, nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	srv := httptest.NewServer(logging(recovery(cors(cfg.CORSOrigins, newRouter(engine)))))
	t.Cleanup(srv.Close)
	return srv, engine
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, []byte(buf.String())
}

func TestGetArticles(t *testing.T) {
	srv, _ := newTestServer(t, serveFeed(t))

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/get_rss_articles", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var articles []dentmark.Article
	if err := json.Unmarshal(body, &articles); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Teeth Whitening" {
		t.Errorf("articles = %+v", articles)
	}
}

func TestGeneratePlanValidation(t *testing.T) {
	srv, _ := newTestServer(t, serveFeed(t))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/generate_social_plan", `{"selected":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty selection status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/generate_social_plan", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", resp.StatusCode)
	}
}

func TestGeneratePlanAndDownload(t *testing.T) {
	feedURL := serveFeed(t)
	srv, _ := newTestServer(t, feedURL)

	payload := fmt.Sprintf(`{"selected":[{"feed_url":%q,"article_link":"https://example.com/whitening"}]}`, feedURL)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/generate_social_plan", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}

	var plan dentmark.Plan
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if plan.File == "" {
		t.Fatal("plan has no file")
	}
	if got := *plan.Grouped[0].Articles[0].Summary; !strings.Contains(got, "Teeth Whitening") {
		t.Errorf("summary = %q", got)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/download/"+plan.File, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Dental Clinic Social Media Content Plan") {
		t.Error("downloaded document missing heading")
	}
}

func TestDownloadRejectsTraversal(t *testing.T) {
	srv, engine := newTestServer(t)

	if err := os.MkdirAll(engine.DocumentsDir(), 0o755); err != nil {
		t.Fatal(err)
	}

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/download/..%2Fsecret.txt", "")
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		t.Errorf("traversal status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/download/missing.md", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", resp.StatusCode)
	}
}

func TestRegenerateCaptionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/regenerate_caption", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing link status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/regenerate_caption", `{"article_link":"https://example.com/none"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown article status = %d, want 404", resp.StatusCode)
	}
}

func TestTopicLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/topics/generate", `{"topic":"dental implants"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	var submitted struct {
		GenerationID string `json:"generation_id"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(body, &submitted); err != nil || submitted.GenerationID == "" {
		t.Fatalf("bad submit response: %s", body)
	}

	var snap dentmark.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, body = doJSON(t, http.MethodGet, srv.URL+"/topics/"+submitted.GenerationID+"/status", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status endpoint = %d", resp.StatusCode)
		}
		if err := json.Unmarshal(body, &snap); err != nil {
			t.Fatal(err)
		}
		if snap.Status == dentmark.JobCompleted {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != dentmark.JobCompleted {
		t.Fatalf("job never completed, last status %q", snap.Status)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/topics/"+snap.TopicID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get topic status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/topics", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "dental implants") {
		t.Errorf("list topics = %d: %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/topics/"+snap.TopicID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/topics/"+snap.TopicID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestTopicStatusUnknown(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/topics/nope/status", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCheckCachedImageValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/check_cached_image", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing prompt status = %d, want 400", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/check_cached_image", `{"prompt":"a smile"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result dentmark.ImageResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.FromCache {
		t.Error("unexpected cache hit")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/get_rss_articles", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
}
