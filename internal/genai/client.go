// Package genai calls an OpenAI-compatible chat-completions endpoint
// (OpenRouter by default) to synthesize usernames and image captions for the
// seeding job. Callers are expected to supply their own fallbacks; every
// failure surfaces as an error, never as degraded output.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "x-ai/grok-4-fast:free"
)

// Client is a minimal chat-completions client.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient constructs a Client. Empty baseURL and model fall back to the
// OpenRouter defaults.
func NewClient(baseURL, apiKey, model string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// GenerateUsername asks the model for a realistic social-media username.
func (c *Client) GenerateUsername(ctx context.Context) (string, error) {
	content, err := c.chat(ctx, []message{{
		Role: "user",
		Content: []contentPart{{
			Type: "text",
			Text: `Generate a realistic username for a social media user. Return as JSON like {"username":"..."}`,
		}},
	}})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return "", fmt.Errorf("parse username payload: %w", err)
	}
	if strings.TrimSpace(parsed.Username) == "" {
		return "", errors.New("empty username returned")
	}
	return strings.TrimSpace(parsed.Username), nil
}

// CaptionImage asks the model for a short caption describing the image at url.
func (c *Client) CaptionImage(ctx context.Context, url string) (string, error) {
	content, err := c.chat(ctx, []message{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: "Generate a short, creative social media caption for this image."},
			{Type: "image_url", ImageURL: &imageRef{URL: url}},
		},
	}})
	if err != nil {
		return "", err
	}
	caption := strings.TrimSpace(content)
	if caption == "" {
		return "", errors.New("empty caption returned")
	}
	return caption, nil
}

func (c *Client) chat(ctx context.Context, messages []message) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("missing API key")
	}
	payload := map[string]any{
		"model":    c.model,
		"messages": messages,
	}
	buf, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completion error: %s", resp.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return out.Choices[0].Message.Content, nil
}
