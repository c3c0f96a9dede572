package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultCollectURL = "https://www.google-analytics.com/mp/collect"

var ErrMalformedEvent = errors.New("malformed analytics event")

// Dispatcher sends events to the GA4 Measurement Protocol.
type Dispatcher struct {
	endpoint      string
	measurementID string
	apiSecret     string
	client        *http.Client
}

func NewDispatcher(endpoint, measurementID, apiSecret string) *Dispatcher {
	if endpoint == "" {
		endpoint = DefaultCollectURL
	}
	return &Dispatcher{
		endpoint:      endpoint,
		measurementID: measurementID,
		apiSecret:     apiSecret,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

type mpEvent struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params,omitempty"`
}

type mpPayload struct {
	ClientID string    `json:"client_id"`
	Events   []mpEvent `json:"events"`
}

func (d *Dispatcher) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(mpPayload{
		ClientID: ev.ClientID,
		Events:   []mpEvent{{Name: ev.Name, Params: ev.Params}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	q := url.Values{}
	q.Set("measurement_id", d.measurementID)
	q.Set("api_secret", d.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send analytics event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("analytics collect returned status %d", resp.StatusCode)
	}
	return nil
}

// EventFromJob rebuilds an Event from queued job data.
func EventFromJob(data map[string]interface{}) (Event, error) {
	name, _ := data["name"].(string)
	clientID, _ := data["client_id"].(string)
	if name == "" || clientID == "" {
		return Event{}, ErrMalformedEvent
	}
	params, _ := data["params"].(map[string]interface{})
	return Event{Name: name, ClientID: clientID, Params: params}, nil
}
