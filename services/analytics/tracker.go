// Package analytics pushes funnel events (VIN searches, purchases) onto the
// job queue for delivery to Google Analytics. Every helper is best effort.
package analytics

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"vinreport-web/queue"
)

const (
	EventVINSearch = "vin_search"
	EventPurchase  = "purchase"

	enqueueTimeout = 500 * time.Millisecond
)

type EventQueue interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
}

type Event struct {
	Name     string
	ClientID string
	Params   map[string]interface{}
}

// Tracker is safe to use as a nil pointer; all methods then do nothing.
type Tracker struct {
	queue EventQueue
}

// NewTracker returns nil when q is nil so callers can hold a disabled
// tracker without checking.
func NewTracker(q EventQueue) *Tracker {
	if q == nil {
		return nil
	}
	return &Tracker{queue: q}
}

func (t *Tracker) Enabled() bool {
	return t != nil && t.queue != nil
}

// Event enqueues a named event. Errors are logged and dropped.
func (t *Tracker) Event(ctx context.Context, ev Event) {
	if !t.Enabled() || ev.Name == "" {
		return
	}
	if ev.ClientID == "" {
		ev.ClientID = uuid.New().String()
	}

	// detached from the request so a client disconnect does not drop the event
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	err := t.queue.Enqueue(ctx, queue.JobTypeAnalyticsEvent, map[string]interface{}{
		"name":      ev.Name,
		"client_id": ev.ClientID,
		"params":    ev.Params,
	})
	if err != nil {
		log.Printf("Warning: dropped analytics event %s: %v", ev.Name, err)
	}
}

func (t *Tracker) VINSearch(ctx context.Context, clientID, vin string) {
	t.Event(ctx, Event{
		Name:     EventVINSearch,
		ClientID: clientID,
		Params:   map[string]interface{}{"vin": vin},
	})
}

func (t *Tracker) Purchase(ctx context.Context, clientID, vin string, value float64, currency, transactionID string) {
	params := map[string]interface{}{
		"vin":      vin,
		"value":    value,
		"currency": currency,
	}
	if transactionID != "" {
		params["transaction_id"] = transactionID
	}
	t.Event(ctx, Event{Name: EventPurchase, ClientID: clientID, Params: params})
}

// ClientID reuses the browser's GA client ID from the _ga cookie
// ("GA1.1.<random>.<timestamp>") so server events land in the same session.
func ClientID(r *http.Request) string {
	c, err := r.Cookie("_ga")
	if err != nil {
		return ""
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) < 4 {
		return ""
	}
	return parts[len(parts)-2] + "." + parts[len(parts)-1]
}
