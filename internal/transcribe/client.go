package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"nonomi/internal/providers"
	"nonomi/internal/structures"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	ErrDisabled   = errors.New("transcription relay disabled")
	ErrEmptyChunk = errors.New("empty audio chunk")
)

// Chunk is one recorded slice of the wearer's microphone.
type Chunk struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ClientInterface interface {
	Transcribe(ctx context.Context, chunk Chunk) (string, error)
}

// Client relays audio chunks to an OpenAI compatible transcription API.
type Client struct {
	api    oai.Client
	model  string
	logger providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) ClientInterface {
	if !conf.Transcribe.Enabled {
		return &noopClient{}
	}

	timeout := conf.Transcribe.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(conf.Transcribe.ApiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		// the listening panel sends a fresh chunk every few seconds
		option.WithMaxRetries(0),
	}
	if conf.Transcribe.Url != "" {
		opts = append(opts, option.WithBaseURL(baseUrl(conf.Transcribe.Url)))
	}

	return &Client{
		api:    oai.NewClient(opts...),
		model:  conf.Transcribe.Model,
		logger: logger,
	}
}

func (c *Client) Transcribe(ctx context.Context, chunk Chunk) (string, error) {
	if chunk.Body == nil {
		return "", ErrEmptyChunk
	}

	start := time.Now()
	resp, err := c.api.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:  namedReader{Reader: chunk.Body, name: chunk.Filename, contentType: chunk.ContentType},
		Model: oai.AudioModel(c.model),
	})
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("transcription returned %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("transcription request: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	c.logger.Debugf(providers.TypePost, "Transcribed %s in %s (%d chars)", chunk.Filename, time.Since(start), len(text))
	return text, nil
}

// baseUrl accepts either the API root or the full transcription endpoint.
func baseUrl(u string) string {
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, "/audio/transcriptions")
	return u + "/"
}

// namedReader carries the upload's file name and type into the multipart
// form the SDK builds.
type namedReader struct {
	io.Reader
	name        string
	contentType string
}

func (n namedReader) Filename() string {
	if n.name == "" {
		return "chunk.wav"
	}
	return n.name
}

func (n namedReader) ContentType() string {
	if n.contentType == "" {
		return "application/octet-stream"
	}
	return n.contentType
}

type noopClient struct{}

func (n *noopClient) Transcribe(_ context.Context, _ Chunk) (string, error) {
	return "", ErrDisabled
}
