package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

func geminiFor(t *testing.T, srv *httptest.Server, cfg models.ModelConfig) Adapter {
	t.Helper()
	return NewGemini(cfg, "test-key", Options{Client: srv.Client(), BaseURL: srv.URL})
}

func TestGeminiGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		io.WriteString(w, `{
			"candidates":[{"content":{"role":"model","parts":[{"text":"hello "},{"text":"world"}]}}],
			"usageMetadata":{"promptTokenCount":8,"candidatesTokenCount":2,"totalTokenCount":10}
		}`)
	}))
	defer srv.Close()

	a := geminiFor(t, srv, models.ModelConfig{ModelID: "gemini-1.5-flash"})
	res, err := a.Generate(context.Background(), nil, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hello world" {
		t.Errorf("expected concatenated parts, got %q", res.Text)
	}
	if res.Usage == nil || res.Usage.TotalTokens != 10 {
		t.Errorf("usage = %+v", res.Usage)
	}
}

func TestGeminiFunctionCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"candidates":[{"content":{"role":"model","parts":[
				{"functionCall":{"name":"fetch_url","args":{"url":"https://example.com"}}}
			]}}]
		}`)
	}))
	defer srv.Close()

	a := geminiFor(t, srv, models.ModelConfig{ModelID: "gemini-1.5-pro"})
	res, err := a.Generate(context.Background(), nil, "fetch it", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ToolCall == nil || res.ToolCall.Skill != "fetch_url" {
		t.Fatalf("expected fetch_url call, got %+v", res.ToolCall)
	}
	if params := paramsMap(t, res.ToolCall); params["url"] != "https://example.com" {
		t.Errorf("params = %v", params)
	}
	if res.Usage != nil {
		t.Error("expected nil usage when usageMetadata absent")
	}
}

func TestGeminiHistoryRoles(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	a := geminiFor(t, srv, models.ModelConfig{ModelID: "gemini-1.5-flash", SystemPrompt: "be brief"})
	history := []models.Message{{Role: "assistant", Content: "earlier answer"}}
	if _, err := a.Generate(context.Background(), history, "next", nil); err != nil {
		t.Fatal(err)
	}

	// Assistant turns map to the "model" role on the Gemini wire.
	if !strings.Contains(body, `"role":"model"`) {
		t.Errorf("expected model role in request, got %s", body)
	}
	if !strings.Contains(body, "systemInstruction") {
		t.Errorf("expected systemInstruction in request, got %s", body)
	}
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"invalid argument"}}`)
	}))
	defer srv.Close()

	a := geminiFor(t, srv, models.ModelConfig{ModelID: "gemini-1.5-flash"})
	_, err := a.Generate(context.Background(), nil, "hi", nil)
	if err == nil || !strings.Contains(err.Error(), "Gemini API Error") {
		t.Errorf("expected vendor prefix, got %v", err)
	}
}
