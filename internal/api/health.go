package api

import (
	"net/http"
	"time"

	"github.com/snarg/accent-trainer/internal/accent"
	"github.com/snarg/accent-trainer/internal/events"
	"github.com/snarg/accent-trainer/internal/trainer"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Accents       int               `json:"accents"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	ctrl      *trainer.Controller
	accents   *accent.Set
	bus       *events.Bus
	version   string
	startTime time.Time
}

func NewHealthHandler(ctrl *trainer.Controller, accents *accent.Set, bus *events.Bus, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		ctrl:      ctrl,
		accents:   accents,
		bus:       bus,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Snapshot()

	checks := map[string]string{
		"trainer":  snap.State,
		"playback": snap.Playback.State,
	}
	if h.bus.SubscriberCount() > 0 {
		checks["sse"] = "subscribed"
	} else {
		checks["sse"] = "idle"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Accents:       h.accents.Len(),
		Checks:        checks,
	})
}
