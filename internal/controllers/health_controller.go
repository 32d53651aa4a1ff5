package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	feed "nonomi/internal/feed/interfaces"
	"nonomi/internal/status/interfaces"
	"time"
)

type HealthController struct {
	poller    interfaces.PollerInterface
	publisher feed.PublisherInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Polling       bool    `json:"polling"`
	LastTimestamp int64   `json:"last_timestamp"`
	LastError     string  `json:"last_error,omitempty"`
	Subscribers   int     `json:"subscribers"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Polling:       hc.poller.Running(),
		LastTimestamp: hc.poller.LastTimestamp(),
		Subscribers:   hc.publisher.Subscribers(),
	}
	if err := hc.poller.LastError(); err != nil {
		resp.LastError = err.Error()
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(poller interfaces.PollerInterface, publisher feed.PublisherInterface) *HealthController {
	return &HealthController{
		poller:    poller,
		publisher: publisher,
		startTime: time.Now(),
	}
}
