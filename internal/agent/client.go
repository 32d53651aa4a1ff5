package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"nonomi/internal/providers"
	"nonomi/internal/structures"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	apiKeyHeader     = "X-API-KEY"
	maxResponseBytes = 1 << 20
)

var (
	ErrDisabled   = errors.New("agent relay disabled")
	ErrEmptyImage = errors.New("empty image")
)

type ClientInterface interface {
	Describe(ctx context.Context, image []byte, prompt string) (string, error)
}

type imageUrl struct {
	Url string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageUrl *imageUrl `json:"image_url,omitempty"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type describeRequest struct {
	Messages []message `json:"messages"`
}

type describeResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Client relays a captured frame to the vision agent and returns its
// short description.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	prompt     string
	enabled    bool
	logger     providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) ClientInterface {
	timeout := conf.Agent.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        conf.Agent.Url,
		apiKey:     conf.Agent.ApiKey,
		prompt:     conf.Agent.Prompt,
		enabled:    conf.Agent.Enabled,
		logger:     logger,
	}
}

func (c *Client) Describe(ctx context.Context, image []byte, prompt string) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = c.prompt
	}

	body, err := json.Marshal(describeRequest{Messages: []message{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageUrl: &imageUrl{Url: dataUrl(image)}},
		},
	}}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("agent response: %w", err)
	}

	var out describeResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return "", fmt.Errorf("agent returned %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("agent returned %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode agent response: %w", decodeErr)
	}

	c.logger.Debugf(providers.TypePost, "Agent replied in %s (%d chars)", time.Since(start), len(out.Result))
	return out.Result, nil
}

func dataUrl(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}
