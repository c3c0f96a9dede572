// Package stripe holds the Stripe checkout entry point: a process-wide,
// fail-closed loader for the Stripe.js client and a lazily built checkout
// component.
package stripe

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"vinreport-web/services/thirdparty"
)

const (
	ClientName    = "stripe"
	LiveKeyPrefix = "pk_live_"
	Capability    = "Stripe"
)

var ErrNotLiveKey = errors.New("stripe publishable key is not a live key")

// Client is the initialised payment client shared by every page.
type Client struct {
	PublishableKey string
	ScriptURL      string
}

// Status mirrors what a page needs: whether to show a placeholder, and the
// client once ready. Client is nil when loading or unavailable.
type Status struct {
	Loading bool
	Client  *Client
}

type Loader struct {
	registry   *thirdparty.Registry
	http       *http.Client
	key        string
	scriptURL  string
	production bool
	refuseLog  sync.Once
}

func NewLoader(registry *thirdparty.Registry, client *http.Client, publishableKey, scriptURL string, production bool) *Loader {
	return &Loader{
		registry:   registry,
		http:       client,
		key:        publishableKey,
		scriptURL:  scriptURL,
		production: production,
	}
}

// Live reports whether the configured key may be used for real charges.
func (l *Loader) Live() bool {
	return strings.HasPrefix(l.key, LiveKeyPrefix)
}

// Load initialises the client. It refuses non-live keys before touching the
// network.
func (l *Loader) Load(ctx context.Context) (interface{}, error) {
	if !l.Live() {
		return nil, ErrNotLiveKey
	}
	if err := thirdparty.FetchScript(ctx, l.http, l.scriptURL, Capability); err != nil {
		return nil, err
	}
	return &Client{PublishableKey: l.key, ScriptURL: l.scriptURL}, nil
}

// Status starts initialisation on first use and reports the current state
// without blocking.
func (l *Loader) Status() Status {
	if !l.allowed() {
		return Status{}
	}
	res, done := l.registry.Request(ClientName, l.Load).Result()
	if !done {
		return Status{Loading: true}
	}
	return statusOf(res)
}

// Wait is Status but gives initialisation until ctx is done to finish.
func (l *Loader) Wait(ctx context.Context) Status {
	if !l.allowed() {
		return Status{}
	}
	res, err := l.registry.Request(ClientName, l.Load).Wait(ctx)
	if err != nil {
		return Status{Loading: true}
	}
	return statusOf(res)
}

// allowed returns false for a non-live key, logging the refusal once outside
// production.
func (l *Loader) allowed() bool {
	if l.Live() {
		return true
	}
	if !l.production {
		l.refuseLog.Do(func() {
			log.Printf("Stripe disabled: %v", ErrNotLiveKey)
		})
	}
	return false
}

func statusOf(res thirdparty.Result) Status {
	if !res.Ready() {
		return Status{}
	}
	c, ok := res.Handle.(*Client)
	if !ok {
		return Status{}
	}
	return Status{Client: c}
}
