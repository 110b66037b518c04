package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Resolve(models.ModelConfig{ModelID: "m", Provider: "nope"}, "key")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistryNeedsKey(t *testing.T) {
	r := NewRegistry(nil)

	for _, id := range []string{"openai", "anthropic", "groq", "google", "gemini"} {
		needs, err := r.NeedsKey(id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if !needs {
			t.Errorf("%s: expected key requirement", id)
		}
	}

	needs, err := r.NeedsKey("ollama")
	if err != nil {
		t.Fatal(err)
	}
	if needs {
		t.Error("ollama: expected keyless")
	}

	if _, err := r.NeedsKey("nope"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistryConfigureUnknown(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Configure("nope", "http://x", nil); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistryConfiguredBaseURLAndHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Org")
		io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	r := NewRegistry(srv.Client())
	if err := r.Configure("openai", srv.URL, map[string]string{"X-Org": "team-7"}); err != nil {
		t.Fatal(err)
	}

	a, err := r.Resolve(models.ModelConfig{ModelID: "gpt-4o", Provider: "openai"}, "key")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Generate(context.Background(), nil, "hi", nil); err != nil {
		t.Fatal(err)
	}
	if gotHeader != "team-7" {
		t.Errorf("expected custom header forwarded, got %q", gotHeader)
	}
}

func TestModelBaseURLWinsOverConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	r := NewRegistry(srv.Client())
	if err := r.Configure("openai", "http://127.0.0.1:1", nil); err != nil {
		t.Fatal(err)
	}

	a, err := r.Resolve(models.ModelConfig{ModelID: "gpt-4o", Provider: "openai", BaseURL: srv.URL}, "key")
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Generate(context.Background(), nil, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "ok" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestOllamaKeyless(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no auth header, got %q", got)
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"local"}}]}`)
	}))
	defer srv.Close()

	r := NewRegistry(srv.Client())
	a, err := r.Resolve(models.ModelConfig{ModelID: "llama3", Provider: "ollama", BaseURL: srv.URL}, "")
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Generate(context.Background(), nil, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "local" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("2.5"); d.Seconds() != 2.5 {
		t.Errorf("expected 2.5s, got %s", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("expected 0, got %s", d)
	}
	if d := parseRetryAfter("garbage"); d != 0 {
		t.Errorf("expected 0, got %s", d)
	}
}
