package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hinter/internal/config"
	"hinter/internal/services"
)

type anthropicClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	template  string
	client    *http.Client
}

func newAnthropic(cfg *config.Config) *anthropicClient {
	return &anthropicClient{
		apiKey:    cfg.Provider.APIKey,
		baseURL:   cfg.Provider.BaseURL,
		model:     cfg.Provider.Model,
		maxTokens: cfg.Provider.MaxTokens,
		template:  cfg.Provider.PromptTemplate,
		client: &http.Client{
			Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		},
	}
}

func (c *anthropicClient) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string          `json:"role"`
	Content []anthropicPart `json:"content"`
}

type anthropicPart struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	image, err := encodeScreenshot(req.ScreenshotPath)
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "encode_screenshot", "", err)
	}

	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicPart{
				{
					Type: "image",
					Source: &anthropicSource{
						Type:      "base64",
						MediaType: "image/png",
						Data:      image,
					},
				},
				{
					Type: "text",
					Text: buildPrompt(c.template, req.System, req.Game),
				},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "encode_payload", "", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "build_request", "", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "call_api", "anthropic", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "read_response", "", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "decode_response",
			fmt.Sprintf("status %d", resp.StatusCode), err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil {
			detail = fmt.Sprintf("status %d: %s: %s", resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
		}
		return "", services.Wrap(services.ErrProviderFailure, "request", "call_api", detail, nil)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", services.Wrap(services.ErrProviderFailure, "request", "call_api", "empty response", nil)
}
