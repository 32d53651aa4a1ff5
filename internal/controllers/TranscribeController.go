package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"nonomi/internal/providers"
	"nonomi/internal/transcribe"
	"strings"
)

const (
	maxTranscribeUpload  = 32 << 20 // 32 MB
	transcribeFormMemory = 4 << 20
	audioFormField       = "audio"
)

type TranscribeController struct {
	logger providers.Logger
	client transcribe.ClientInterface
}

func NewTranscribeController(logger providers.Logger, client transcribe.ClientInterface) *TranscribeController {
	return &TranscribeController{
		logger: logger,
		client: client,
	}
}

// Stream transcribes the "audio" parts of a multipart upload in order and
// answers with one server-sent event per part. A failed part becomes an
// error event and the rest still run.
func (tc *TranscribeController) Stream(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTranscribeUpload)
	if err := r.ParseMultipartForm(transcribeFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File[audioFormField]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "no audio chunks")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	for i, part := range parts {
		if r.Context().Err() != nil {
			return
		}

		text, err := tc.transcribe(r.Context(), part)
		switch {
		case errors.Is(err, transcribe.ErrDisabled), errors.Is(err, transcribe.ErrEmptyChunk):
			writeEvent(w, "error", err.Error())
		case err != nil:
			tc.logger.Warnf(providers.TypePost, "Transcription of chunk %d (%s) failed: %s", i, part.Filename, err)
			writeEvent(w, "error", "transcription failed")
		default:
			writeEvent(w, "", text)
		}
		_ = rc.Flush()
	}
}

func (tc *TranscribeController) transcribe(ctx context.Context, part *multipart.FileHeader) (string, error) {
	f, err := part.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if part.Size == 0 {
		return "", transcribe.ErrEmptyChunk
	}

	return tc.client.Transcribe(ctx, transcribe.Chunk{
		Filename:    part.Filename,
		ContentType: part.Header.Get("Content-Type"),
		Body:        f,
	})
}

// writeEvent writes one event in text/event-stream framing. Multi-line
// data is split across data fields.
func writeEvent(w http.ResponseWriter, event, data string) {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", strings.TrimSuffix(line, "\r"))
	}
	b.WriteString("\n")
	_, _ = w.Write([]byte(b.String()))
}
