package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"nonomi/internal/models"
	"nonomi/internal/status/interfaces"
	"nonomi/internal/structures"
)

const maxStatusBodySize = 8 << 20 // 8 MB

type HTTPFetcher struct {
	url     string
	headers map[string]string
	client  *http.Client
	decoder interfaces.DecoderInterface
}

func NewHTTPFetcher(conf *structures.Config, decoder interfaces.DecoderInterface) interfaces.FetcherInterface {
	return &HTTPFetcher{
		url:     conf.Poller.Url,
		headers: conf.Poller.Headers,
		client:  &http.Client{Timeout: conf.Poller.Timeout},
		decoder: decoder,
	}
}

// Fetch performs one uncached GET of the status document.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*models.StatusRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, networkError(f.url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "zstd, gzip")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, networkError(f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, networkError(f.url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBodySize+1))
	if err != nil {
		return nil, networkError(f.url, err)
	}
	if len(body) > maxStatusBodySize {
		return nil, decodeError(f.url, fmt.Errorf("body exceeds %d bytes", maxStatusBodySize))
	}

	body, err = f.decoder.Decode(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		return nil, decodeError(f.url, err)
	}

	rec, err := models.DecodeStatusRecord(body)
	if err != nil {
		return nil, decodeError(f.url, err)
	}
	return rec, nil
}
