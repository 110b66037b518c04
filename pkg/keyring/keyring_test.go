package keyring

import "testing"

func TestStatic(t *testing.T) {
	s := Static{"groq": "gsk_123", "openai": ""}

	if key, ok := s.APIKey("groq"); !ok || key != "gsk_123" {
		t.Errorf("groq: got %q, %v", key, ok)
	}
	// An empty configured key counts as absent.
	if _, ok := s.APIKey("openai"); ok {
		t.Error("expected empty key to be absent")
	}
	if _, ok := s.APIKey("anthropic"); ok {
		t.Error("expected unknown provider to be absent")
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")
	t.Setenv("GOOGLE_API_KEY", "goog_env")

	var e Env
	if key, ok := e.APIKey("groq"); !ok || key != "gsk_env" {
		t.Errorf("groq: got %q, %v", key, ok)
	}
	// gemini aliases onto the google variable.
	if key, ok := e.APIKey("gemini"); !ok || key != "goog_env" {
		t.Errorf("gemini: got %q, %v", key, ok)
	}
	if _, ok := e.APIKey("anthropic"); ok {
		t.Error("expected unset variable to be absent")
	}
}

func TestChain(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")

	c := Chain{Static{"groq": "gsk_static"}, Env{}}
	if key, _ := c.APIKey("groq"); key != "gsk_static" {
		t.Errorf("expected first source to win, got %q", key)
	}

	c = Chain{Static{}, Env{}}
	if key, _ := c.APIKey("groq"); key != "gsk_env" {
		t.Errorf("expected env fallback, got %q", key)
	}

	if _, ok := c.APIKey("anthropic"); ok {
		t.Error("expected miss through the whole chain")
	}
}
