package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type ThirdPartyStates interface {
	States() map[string]string
}

type HealthHandler struct {
	thirdParty ThirdPartyStates
	redis      Pinger
	db         Pinger
	startTime  time.Time
}

type healthReport struct {
	Status     string            `json:"status"`
	Time       string            `json:"time"`
	Database   string            `json:"database"`
	Redis      string            `json:"redis"`
	ThirdParty map[string]string `json:"third_party"`
	Uptime     string            `json:"uptime"`
	GoVersion  string            `json:"go_version"`
}

// Health reports dependency status. Missing optional dependencies show as
// "disabled"; only a configured dependency that fails degrades the status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := healthReport{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339),
		Database:   check(ctx, h.db),
		Redis:      check(ctx, h.redis),
		ThirdParty: map[string]string{},
		Uptime:     fmt.Sprintf("%v", time.Since(h.startTime).Round(time.Second)),
		GoVersion:  runtime.Version(),
	}
	if h.thirdParty != nil {
		health.ThirdParty = h.thirdParty.States()
	}
	if health.Database == "error" || health.Redis == "error" {
		health.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
