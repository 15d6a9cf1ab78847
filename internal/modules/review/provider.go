package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/pawlink/core/internal/config"
)

const (
	defaultTextModel   = "gpt-4o-mini"
	completionTimeout  = 30 * time.Second
	defaultTemperature = 0.7
)

// CompletionClient abstracts the chat-completions endpoint. Both calls return
// the raw completion text; callers extract the embedded JSON payload.
type CompletionClient interface {
	CompleteText(ctx context.Context, prompt string, maxTokens int) (string, error)
	CompleteVision(ctx context.Context, instruction, imageURL string, maxTokens int) (string, error)
}

// NewCompletionClient selects the configured provider and builds a client for
// it. A missing or key-less provider is a configuration error and fails fast;
// runtime call failures are handled fail-soft downstream.
func NewCompletionClient(cfg config.AIConfig) (CompletionClient, error) {
	provider := selectProvider(cfg)
	if provider == nil {
		return nil, errors.New("no enabled AI provider configured")
	}
	if strings.TrimSpace(provider.APIKey) == "" {
		return nil, fmt.Errorf("AI provider %q has no api key", provider.ID)
	}

	model := strings.TrimSpace(provider.DefaultModel)
	if model == "" {
		model = defaultTextModel
	}
	visionModel := strings.TrimSpace(provider.VisionModel)
	if visionModel == "" {
		visionModel = model
	}

	if isOpenAICompatibleType(provider.Type) {
		return &compatClient{
			endpoint:    normalizeCompatibleEndpoint(provider.Endpoint),
			apiKey:      strings.TrimSpace(provider.APIKey),
			model:       model,
			visionModel: visionModel,
			hc:          &http.Client{Timeout: completionTimeout},
		}, nil
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(strings.TrimSpace(provider.APIKey)),
		openaioption.WithMaxRetries(0),
		openaioption.WithRequestTimeout(completionTimeout),
	}
	if endpoint := strings.TrimSpace(provider.Endpoint); endpoint != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	return &sdkClient{
		client:      openaiclient.NewClient(opts...),
		model:       model,
		visionModel: visionModel,
	}, nil
}

func selectProvider(cfg config.AIConfig) *config.AIProvider {
	preferred := strings.TrimSpace(cfg.Provider)
	if preferred != "" {
		for i := range cfg.Providers {
			p := &cfg.Providers[i]
			if p.Enabled && strings.TrimSpace(p.ID) == preferred {
				return p
			}
		}
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].Enabled {
			return &cfg.Providers[i]
		}
	}
	return nil
}

func isOpenAICompatibleType(raw string) bool {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	return t == "openai-compatible" || t == "openaicompatible"
}

// sdkClient calls the endpoint through the official OpenAI SDK.
type sdkClient struct {
	client      openaiclient.Client
	model       string
	visionModel string
}

func (c *sdkClient) CompleteText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(c.model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.UserMessage(prompt),
		},
		MaxTokens:   openaiclient.Int(int64(maxTokens)),
		Temperature: openaiclient.Float(defaultTemperature),
	})
	if err != nil {
		return "", err
	}
	return firstChoiceContent(resp)
}

func (c *sdkClient) CompleteVision(ctx context.Context, instruction, imageURL string, maxTokens int) (string, error) {
	parts := []openaiclient.ChatCompletionContentPartUnionParam{
		openaiclient.TextContentPart(instruction),
		openaiclient.ImageContentPart(openaiclient.ChatCompletionContentPartImageImageURLParam{
			URL: imageURL,
		}),
	}
	resp, err := c.client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(c.visionModel),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.UserMessage(parts),
		},
		MaxTokens:   openaiclient.Int(int64(maxTokens)),
		Temperature: openaiclient.Float(defaultTemperature),
	})
	if err != nil {
		return "", err
	}
	return firstChoiceContent(resp)
}

func firstChoiceContent(resp *openaiclient.ChatCompletion) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("empty response from model")
	}
	return content, nil
}

// compatClient speaks raw chat-completions HTTP against any OpenAI-compatible
// endpoint. Tests point this at httptest servers.
type compatClient struct {
	endpoint    string
	apiKey      string
	model       string
	visionModel string
	hc          *http.Client
}

func (c *compatClient) CompleteText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return c.call(ctx, c.model, prompt, maxTokens)
}

func (c *compatClient) CompleteVision(ctx context.Context, instruction, imageURL string, maxTokens int) (string, error) {
	content := []map[string]interface{}{
		{"type": "text", "text": instruction},
		{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
	}
	return c.call(ctx, c.visionModel, content, maxTokens)
}

func (c *compatClient) call(ctx context.Context, model string, content interface{}, maxTokens int) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": content},
		},
		"max_tokens":  maxTokens,
		"temperature": defaultTemperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("completion endpoint error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", fmt.Errorf("completion endpoint error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	content2 := result.Choices[0].Message.Content
	if strings.TrimSpace(content2) == "" {
		return "", errors.New("empty response from model")
	}
	return content2, nil
}

// normalizeCompatibleEndpoint strips a trailing /v1 so the /v1/chat/completions
// suffix is appended exactly once.
func normalizeCompatibleEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.openai.com"
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		cleaned := strings.TrimRight(base, "/")
		return strings.TrimSuffix(cleaned, "/v1")
	}
	parsed.Path = strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), "/v1")
	return strings.TrimRight(parsed.String(), "/")
}
