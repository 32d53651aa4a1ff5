package status

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"nonomi/internal/status/interfaces"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var errDecodedTooLarge = fmt.Errorf("decoded body exceeds %d bytes", maxStatusBodySize)

// ContentDecoder undoes the Content-Encoding of a status body. The
// fetcher negotiates encodings itself, so net/http never decodes for it.
// Decoded output is capped at maxSize.
type ContentDecoder struct {
	zstd    *zstd.Decoder
	maxSize int
}

func (d *ContentDecoder) Decode(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "zstd":
		out, err := d.zstd.DecodeAll(body, nil)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || len(out) > d.maxSize {
			return nil, errDecodedTooLarge
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, int64(d.maxSize)+1))
		if err != nil {
			return nil, err
		}
		if len(out) > d.maxSize {
			return nil, errDecodedTooLarge
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

func (d *ContentDecoder) Close() {
	d.zstd.Close()
}

// NewContentDecoder returns the decoder and a cleanup that releases it.
// One status body is decoded at a time, so a single zstd worker is enough.
func NewContentDecoder() (interfaces.DecoderInterface, func(), error) {
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxStatusBodySize),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	d := &ContentDecoder{zstd: decoder, maxSize: maxStatusBodySize}
	return d, d.Close, nil
}
