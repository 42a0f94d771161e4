package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/radekstepan/apply-llm-changes/internal/config"
	"github.com/radekstepan/apply-llm-changes/internal/pathutil"
	"github.com/radekstepan/apply-llm-changes/internal/ui"
)

// Client calls an OpenAI-compatible chat-completion endpoint, one request
// per unresolved code block.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client

	keyWarning sync.Once
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
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

// Ask queries the model for a path. Without an API key every call returns
// NoPath immediately; the condition is logged once per run.
func (c *Client) Ask(ctx context.Context, w Window) (string, error) {
	if c.apiKey == "" {
		c.keyWarning.Do(func() {
			ui.Warning("No API key configured; the path oracle is disabled for this run.")
		})
		return NoPath, nil
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   64,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(w)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var reply string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		reply, err = c.complete(ctx, body)
		return err
	})
	if err != nil {
		return "", err
	}
	return sanitize(reply), nil
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("oracle transport: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", retry.RetryableError(fmt.Errorf("oracle api status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("oracle error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from oracle")
	}
	return apiResp.Choices[0].Message.Content, nil
}

var fenceWrapRe = regexp.MustCompile("(?s)^```[a-z]*\\s*(.*?)\\s*```$")

// sanitize unwraps accidental code fencing and coerces anything that does
// not validate as a path to NoPath. The prompt asks for a bare path, so a
// reply containing spaces is commentary and is rejected outright.
func sanitize(reply string) string {
	s := strings.TrimSpace(reply)
	if m := fenceWrapRe.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	}
	if s == NoPath || s == "" || strings.ContainsAny(s, " \t") {
		return NoPath
	}
	normalized, err := pathutil.Normalize(s)
	if err != nil {
		return NoPath
	}
	return normalized
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
