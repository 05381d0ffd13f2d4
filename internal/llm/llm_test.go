package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
}

func TestPickHTTPClientUsesLongerTimeout(t *testing.T) {
	client := pickHTTPClient(nil)
	if client.Timeout != defaultLLMHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultLLMHTTPTimeout, client.Timeout)
	}
}

func TestNewFromConfigPrefersGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "")

	backend, err := NewFromConfig(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if !strings.HasPrefix(backend.Name(), "Gemini (gemini-2.5-flash)") {
		t.Fatalf("expected gemini backend, got %s", backend.Name())
	}
}

func TestNewFromConfigFallsBackToOllama(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434/")
	t.Setenv("OLLAMA_MODEL", "")

	backend, err := NewFromConfig(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	client, ok := backend.(*ollamaClient)
	if !ok {
		t.Fatalf("expected ollama client, got %T", backend)
	}
	if client.host != "http://ollama.internal:11434" {
		t.Fatalf("host not trimmed: %s", client.host)
	}
	if client.model != defaultOllamaModel {
		t.Fatalf("unexpected model %s", client.model)
	}
}

func TestNewFromConfigOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewFromConfig(context.Background(), Config{Provider: ProviderOpenAI}); err == nil {
		t.Fatal("expected error without an OpenAI key")
	}
}

func TestNewFromConfigRejectsUnknownProvider(t *testing.T) {
	if _, err := NewFromConfig(context.Background(), Config{Provider: "claude-cli"}); err == nil {
		t.Fatal("expected unknown provider error")
	}
}

func TestClipCountsRunes(t *testing.T) {
	t.Parallel()

	if got := Clip("héllo wörld", 5); got != "héllo" {
		t.Fatalf("Clip = %q", got)
	}
	if got := Clip("short", 100); got != "short" {
		t.Fatalf("Clip should not alter short text, got %q", got)
	}
	if got := Clip("anything", 0); got != "anything" {
		t.Fatalf("non-positive limit should disable clipping, got %q", got)
	}
	if got := Clip("  padded  ", 4); got != "  pa" {
		t.Fatalf("Clip must not trim, got %q", got)
	}
}

func TestClipKeepsBytePrefix(t *testing.T) {
	t.Parallel()
	text := "ab\xffcdé\xfeg"
	got := Clip(text, 6)
	if got != "ab\xffcdé" {
		t.Fatalf("Clip = %q", got)
	}
	if !strings.HasPrefix(text, got) {
		t.Fatalf("Clip result %q is not a prefix of %q", got, text)
	}
}

func TestSchemaJSONSchema(t *testing.T) {
	t.Parallel()

	schema := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"tags": {Type: TypeArray, Items: &Schema{Type: TypeString}},
		},
		Required: []string{"tags"},
	}
	doc := schema.JSONSchema()
	if doc["type"] != "object" {
		t.Fatalf("unexpected type: %v", doc["type"])
	}
	props := doc["properties"].(map[string]any)
	tags := props["tags"].(map[string]any)
	if tags["type"] != "array" || tags["items"].(map[string]any)["type"] != "string" {
		t.Fatalf("unexpected tags schema: %#v", tags)
	}
}
