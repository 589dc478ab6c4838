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

type openAIClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	template  string
	client    *http.Client
}

func newOpenAI(cfg *config.Config) *openAIClient {
	return &openAIClient{
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

func (c *openAIClient) Name() string { return "openai" }

type openAIRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string       `json:"role"`
	Content []openAIPart `json:"content"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (string, error) {
	image, err := encodeScreenshot(req.ScreenshotPath)
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "encode_screenshot", "", err)
	}

	payload := openAIRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openAIMessage{{
			Role: "user",
			Content: []openAIPart{
				{
					Type:     "image_url",
					ImageURL: &openAIImageURL{URL: "data:image/png;base64," + image},
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
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "call_api", "openai", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrProviderFailure, "request", "read_response", "", err)
	}

	var parsed openAIResponse
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

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", services.Wrap(services.ErrProviderFailure, "request", "call_api", "empty response", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}
