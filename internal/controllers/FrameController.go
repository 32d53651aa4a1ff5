package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"io"
	"net/http"
	"nonomi/internal/agent"
	"nonomi/internal/providers"
)

const maxFrameSize = 8 << 20 // 8 MB

type FrameController struct {
	logger providers.Logger
	client agent.ClientInterface
}

type frameResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewFrameController(logger providers.Logger, client agent.ClientInterface) *FrameController {
	return &FrameController{
		logger: logger,
		client: client,
	}
}

// Describe relays the raw image body to the agent. An optional prompt
// query parameter replaces the configured prompt.
func (fc *FrameController) Describe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFrameSize)
	image, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fc.fail(w, http.StatusRequestEntityTooLarge, "frame too large")
			return
		}
		fc.fail(w, http.StatusBadRequest, "Bad Request")
		return
	}

	result, err := fc.client.Describe(r.Context(), image, r.URL.Query().Get("prompt"))
	switch {
	case errors.Is(err, agent.ErrEmptyImage):
		fc.fail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, agent.ErrDisabled):
		fc.fail(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		fc.logger.Errorf(providers.TypePost, "Agent relay failed: %s", err)
		fc.fail(w, http.StatusBadGateway, "agent unavailable")
		return
	}

	gson, err := json.Marshal(frameResponse{Result: result})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (fc *FrameController) fail(w http.ResponseWriter, code int, msg string) {
	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	gson, _ := json.Marshal(errorResponse{Error: msg})
	writeJSON(w, code, gson)
}
