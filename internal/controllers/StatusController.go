package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"nonomi/internal/services"
	"nonomi/internal/status/interfaces"
)

type StatusController struct {
	logger  providers.Logger
	service services.StatusServiceInterface
	poller  interfaces.PollerInterface
	cache   providers.CacheProviderInterface
}

type statusResponse struct {
	Status  *models.StatusRecord `json:"status"`
	Error   string               `json:"error"`
	Version uint64               `json:"version"`
	Polling bool                 `json:"polling"`
}

func NewStatusController(logger providers.Logger, service services.StatusServiceInterface, poller interfaces.PollerInterface, cache providers.CacheProviderInterface) *StatusController {
	return &StatusController{
		logger:  logger,
		service: service,
		poller:  poller,
		cache:   cache,
	}
}

// GetStatus serves the current record. Bodies are cached per state
// version, so a cached entry is never stale.
func (sc *StatusController) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := sc.service.Snapshot()
	polling := sc.poller.Running()
	cacheKey := fmt.Sprintf("status:%d:%t", snap.Version, polling)

	if data, ok := sc.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	gson, err := json.Marshal(statusResponse{
		Status:  snap.Status,
		Error:   snap.Error,
		Version: snap.Version,
		Polling: polling,
	})
	if err != nil {
		sc.logger.Errorf(providers.TypeGet, "Unable to encode status: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sc.cache.Set(cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
