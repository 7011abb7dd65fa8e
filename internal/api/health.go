package api

import (
	"net/http"
	"os/exec"
	"time"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	ffmpegPath string
	version    string
	startTime  time.Time
}

func NewHealthHandler(ffmpegPath, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		ffmpegPath: ffmpegPath,
		version:    version,
		startTime:  startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// The binary was resolved at startup, but it can disappear from
	// under a running service (container image swap, unmounted volume).
	if _, err := exec.LookPath(h.ffmpegPath); err != nil {
		checks["transcoder"] = "missing"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["transcoder"] = "ok"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
