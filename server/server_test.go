package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"ai_blog_post_writer/config"
	"ai_blog_post_writer/generator"
)

type fakeLLM struct {
	content string
	err     error
	got     generator.Prompt
}

func (f *fakeLLM) Complete(_ context.Context, p generator.Prompt) (string, error) {
	f.got = p
	return f.content, f.err
}

type fakeImages struct {
	url    string
	err    error
	prompt string
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt string) (generator.Image, error) {
	f.prompt = prompt
	return generator.Image{Src: f.url}, f.err
}

func newTestServer(t *testing.T, cfg config.Config, opts ...Option) *httptest.Server {
	t.Helper()
	agent, err := generator.NewAgent(generator.MockFactory, generator.WithFreeform(&generator.FreeformGenerator{
		LLM:    generator.MockLLM{},
		Images: generator.MockLLM{},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) == 0 {
		opts = append(opts, WithProxyClients(&fakeLLM{content: "ok"}, &fakeImages{url: "https://img/1.png"}))
	}
	srv, err := New(agent, cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, key string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Api-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/api/sessions", "", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}
	view := decode[generator.SessionView](t, resp)
	if view.ID == "" || view.State != generator.StateIdle {
		t.Fatalf("unexpected new session: %+v", view)
	}
	return view.ID
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	id := createSession(t, ts)

	resp := do(t, ts, http.MethodPost, "/api/sessions/"+id+"/topics", "mock", map[string]string{"category": "재테크"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("topics status = %d", resp.StatusCode)
	}
	if topics := decode[topicsResp](t, resp); len(topics.Topics) != 10 {
		t.Errorf("topics = %v", topics.Topics)
	}

	resp = do(t, ts, http.MethodPost, "/api/sessions/"+id+"/posts", "mock", map[string]string{
		"topic": "ETF 투자", "category": "재테크", "region": "국내", "target_audience": "청년층",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("posts status = %d", resp.StatusCode)
	}
	view := decode[generator.SessionView](t, resp)
	if view.Post == nil || view.Post.Title != "ETF 투자" {
		t.Fatalf("post not returned: %+v", view.Post)
	}
	if n := strings.Count(view.Post.Content, "<img "); n != 3 {
		t.Errorf("content has %d images, want 3", n)
	}

	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id+"/export", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Find(".faq-item").Length() != 7 {
		t.Errorf("faq items = %d, want 7", doc.Find(".faq-item").Length())
	}

	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id+"/download?format=html", "", nil)
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id+"/download?format=md", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("markdown download of a structured post: status = %d, want 404", resp.StatusCode)
	}

	resp = do(t, ts, http.MethodDelete, "/api/sessions/"+id+"/draft", "", nil)
	if view := decode[generator.SessionView](t, resp); view.Draft.Topic != "" || view.Draft.Category != "재테크" {
		t.Errorf("draft after reset = %+v", view.Draft)
	}
}

func TestMissingKeyIsBadRequest(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	id := createSession(t, ts)

	resp := do(t, ts, http.MethodPost, "/api/sessions/"+id+"/posts", "", map[string]string{"topic": "t"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if e := decode[errorResp](t, resp); e.Error != "API 키를 먼저 설정해주세요." {
		t.Errorf("error = %q", e.Error)
	}
}

func TestServerKeyFallback(t *testing.T) {
	ts := newTestServer(t, config.Config{Gemini: config.GeminiConfig{APIKey: "server-key"}})
	id := createSession(t, ts)
	resp := do(t, ts, http.MethodPost, "/api/sessions/"+id+"/topics", "", map[string]string{"category": "여행"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 with server key", resp.StatusCode)
	}
}

func TestFreeformPost(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	id := createSession(t, ts)

	resp := do(t, ts, http.MethodPost, "/api/sessions/"+id+"/posts", "", map[string]string{
		"topic": "제주 여행", "category": "여행", "tone": "friendly", "mode": "freeform",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	view := decode[generator.SessionView](t, resp)
	if view.Post == nil || view.Post.Markdown == "" || len(view.Post.Tags) != 3 {
		t.Fatalf("unexpected freeform post: %+v", view.Post)
	}

	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id+"/download?format=md", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("markdown download status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	if resp := do(t, ts, http.MethodGet, "/api/sessions/nope", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	id := createSession(t, ts)
	if resp := do(t, ts, http.MethodGet, "/api/sessions/"+id+"/export", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("export without post: status = %d, want 404", resp.StatusCode)
	}
}

func TestProxyGenerate(t *testing.T) {
	llm := &fakeLLM{content: "## 글"}
	ts := newTestServer(t, config.Config{}, WithProxyClients(llm, &fakeImages{}))

	resp := do(t, ts, http.MethodPost, "/api/generate", "", map[string]any{
		"title": "봄 여행지", "tags": []string{"여행", "봄"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[contentResp](t, resp); got.Content != "## 글" {
		t.Errorf("content = %q", got.Content)
	}
	for _, want := range []string{"카테고리: 일반", "제목: 봄 여행지", "문체/톤: 친근한", "태그(참고): 여행, 봄"} {
		if !strings.Contains(llm.got.User, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	resp = do(t, ts, http.MethodPost, "/api/generate", "", map[string]string{"category": "여행"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing title status = %d", resp.StatusCode)
	}
	if e := decode[errorResp](t, resp); e.Error != "Missing title" {
		t.Errorf("error = %q", e.Error)
	}

	resp = do(t, ts, http.MethodGet, "/api/generate", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}
	if e := decode[errorResp](t, resp); e.Error != "Method not allowed" {
		t.Errorf("error = %q", e.Error)
	}

	llm.err = errors.New("quota exceeded")
	resp = do(t, ts, http.MethodPost, "/api/generate", "", map[string]string{"prompt": "free prompt"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("upstream failure status = %d", resp.StatusCode)
	}
	if e := decode[errorResp](t, resp); e.Error != "OpenAI error" || e.Detail != "quota exceeded" {
		t.Errorf("error body = %+v", e)
	}
	if llm.got.User != "free prompt" {
		t.Errorf("raw prompt not forwarded: %q", llm.got.User)
	}
}

func TestProxyImages(t *testing.T) {
	images := &fakeImages{url: "https://img/cover.png"}
	ts := newTestServer(t, config.Config{}, WithProxyClients(&fakeLLM{}, images))

	resp := do(t, ts, http.MethodPost, "/api/dalle", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dalle status = %d", resp.StatusCode)
	}
	if got := decode[urlResp](t, resp); got.URL != "https://img/cover.png" {
		t.Errorf("url = %q", got.URL)
	}
	if images.prompt != "Blog cover image" {
		t.Errorf("default prompt = %q", images.prompt)
	}

	resp = do(t, ts, http.MethodPost, "/api/generate-image", "", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("generate-image without prompt: status = %d", resp.StatusCode)
	}

	images.err = errors.New("boom")
	resp = do(t, ts, http.MethodPost, "/api/generate-image", "", map[string]string{"prompt": "cat"})
	if e := decode[errorResp](t, resp); resp.StatusCode != http.StatusInternalServerError || e.Error != "Failed to generate image" {
		t.Errorf("status = %d, body = %+v", resp.StatusCode, e)
	}
}

func TestProxyDisabled(t *testing.T) {
	off := false
	ts := newTestServer(t, config.Config{Proxy: config.ProxyConfig{Enabled: &off}})
	if resp := do(t, ts, http.MethodPost, "/api/generate", "", map[string]string{"title": "x"}); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when proxy is disabled", resp.StatusCode)
	}
}

func TestHealthAndIndex(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	if resp := do(t, ts, http.MethodGet, "/healthz", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	resp := do(t, ts, http.MethodGet, "/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("index status = %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Find("#generate").Length() != 1 {
		t.Errorf("embedded index page not served")
	}
}

// stallingBackend blocks until the request context ends.
type stallingBackend struct{}

func (stallingBackend) Complete(ctx context.Context, _ generator.Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stallingBackend) GenerateImage(ctx context.Context, _ string) (generator.Image, error) {
	<-ctx.Done()
	return generator.Image{}, ctx.Err()
}

func TestRequestTimeoutIsGatewayTimeout(t *testing.T) {
	agent, err := generator.NewAgent(func(context.Context, generator.Credential) (generator.Backend, error) {
		return stallingBackend{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(agent, config.Config{Timeout: 1}, WithProxyClients(&fakeLLM{}, &fakeImages{}))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	id := createSession(t, ts)
	resp := do(t, ts, http.MethodPost, "/api/sessions/"+id+"/posts", "key", map[string]string{"topic": "t"})
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}
	resp = do(t, ts, http.MethodGet, "/api/sessions/"+id, "", nil)
	if view := decode[generator.SessionView](t, resp); view.State != generator.StateIdle || view.Post != nil {
		t.Errorf("session after timeout = %+v", view)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	agent, err := generator.NewAgent(generator.MockFactory)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := New(agent, config.Config{}, WithProxyClients(&fakeLLM{content: "ok"}, &fakeImages{}))
	if err != nil {
		t.Fatal(err)
	}
	routes := srv.Routes()
	body, err := json.Marshal(map[string]string{"title": strings.Repeat("가", maxBodyBytes)})
	if err != nil {
		t.Fatal(err)
	}
	serve := func(method, path string, payload []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("X-Api-Key", "mock")
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		return rec
	}

	if rec := serve(http.MethodPost, "/api/generate", body); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("proxy status = %d, want 413", rec.Code)
	}

	created := serve(http.MethodPost, "/api/sessions", nil)
	var view generator.SessionView
	if err := json.NewDecoder(created.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if rec := serve(http.MethodPost, "/api/sessions/"+view.ID+"/posts", body); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("session status = %d, want 413", rec.Code)
	}
	if rec := serve(http.MethodGet, "/api/sessions/"+view.ID+"/export", nil); rec.Code != http.StatusNotFound {
		t.Errorf("oversized request must not generate a post, export status = %d", rec.Code)
	}
}

func TestRequestLogUsesConfiguredLogger(t *testing.T) {
	agent, err := generator.NewAgent(generator.MockFactory)
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	srv, err := New(agent, config.Config{}, WithLogger(logger), WithProxyClients(&fakeLLM{}, &fakeImages{}))
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{"http request", "path=/healthz", "status=200"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %q:\n%s", want, logs.String())
		}
	}
}
