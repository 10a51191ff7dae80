package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"campaign-backend/internal/llm"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/suggestion"
)

const defaultBaseURL = "https://api.openai.com/v1"

const (
	advisoryTemperature = float32(0.3)
	chatTemperature     = float32(0.7)
	advisoryMaxTokens   = 1000
	chatMaxTokens       = 800
)

// Client implements llm.Advisor and llm.Replier using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		apiURL:     base + "/chat/completions",
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Suggest asks the model for a suggestion bundle. The raw content is
// returned as-is; parsing and validation belong to the caller.
func (c *Client) Suggest(ctx context.Context, product suggestion.ProductInfo) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: llm.AdvisorySystemPrompt()},
		{Role: "user", Content: llm.AdvisoryPrompt(product)},
	}
	return c.complete(ctx, "advisory", messages, advisoryTemperature, advisoryMaxTokens)
}

// Reply produces a conversational answer, attaching the user's images as
// image parts.
func (c *Client) Reply(ctx context.Context, in llm.ReplyInput) (string, error) {
	parts := []contentPart{{Type: "text", Text: llm.ChatText(in)}}
	for _, img := range in.Images {
		url, err := imageDataURL(img)
		if err != nil {
			telemetry.Warn("llm.image_skipped", map[string]any{"error": err.Error()})
			continue
		}
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
	}
	messages := []chatMessage{
		{Role: "system", Content: llm.ChatSystemPrompt()},
		{Role: "user", Content: parts},
	}
	return c.complete(ctx, "chat", messages, chatTemperature, chatMaxTokens)
}

func (c *Client) complete(ctx context.Context, purpose string, messages []chatMessage, temp float32, maxTokens int) (string, error) {
	reqBody := chatRequest{Model: c.model, Messages: messages, MaxTokens: maxTokens}
	if !isGPT5(c.model) {
		reqBody.Temperature = &temp
	}
	content, err := c.send(ctx, purpose, reqBody)
	if err != nil && reqBody.Temperature != nil && isTemperatureUnsupported(err) {
		reqBody.Temperature = nil
		content, err = c.send(ctx, purpose, reqBody)
	}
	return content, err
}

func (c *Client) send(ctx context.Context, purpose string, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}

	fields := map[string]any{"model": c.model, "purpose": purpose}
	if u := parsed.Usage; u != nil {
		fields["prompt_tokens"] = u.PromptTokens
		fields["completion_tokens"] = u.CompletionTokens
		fields["total_tokens"] = u.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func isTemperatureUnsupported(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

var dataURIPattern = regexp.MustCompile(`^data:image/(png|jpeg|gif|webp|svg\+xml|bmp);base64,`)

var extMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
}

// imageDataURL turns an image reference into something the API accepts:
// data URIs and http(s) URLs pass through, local paths are inlined.
func imageDataURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		if !dataURIPattern.MatchString(ref) {
			return "", fmt.Errorf("invalid data URI")
		}
		return ref, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime, ok := extMIME[strings.ToLower(filepath.Ext(ref))]
	if !ok {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

var (
	_ llm.Advisor = (*Client)(nil)
	_ llm.Replier = (*Client)(nil)
)
