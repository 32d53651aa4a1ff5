package interfaces

import (
	"context"
	"nonomi/internal/models"
)

type FetcherInterface interface {
	Fetch(ctx context.Context) (*models.StatusRecord, error)
}

type DecoderInterface interface {
	Decode(encoding string, body []byte) ([]byte, error)
	Close()
}
