package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]ollamaMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, turn := range req.Turns {
		messages = append(messages, ollamaMessage{Role: chatRole(turn.Role), Content: turn.Text})
	}
	payload := map[string]any{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}
	if req.Schema != nil {
		payload["format"] = req.Schema.JSONSchema()
	}
	if req.Temperature != nil {
		payload["options"] = map[string]any{"temperature": *req.Temperature}
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ollama API error: %s (%s)", resp.Status, string(body))
	}

	var parsed struct {
		Message ollamaMessage `json:"message"`
		Done    bool          `json:"done"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	// An empty reply is not an error here; callers decide what blank means.
	return strings.TrimSpace(parsed.Message.Content), nil
}

// chatRole maps conversation roles onto the OpenAI-style names Ollama shares.
func chatRole(role Role) string {
	if role == RoleModel {
		return "assistant"
	}
	return "user"
}
