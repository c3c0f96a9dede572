package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinreport-web/services/thirdparty"
)

const origin = "https://vinreport.example"

func stripeJS(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(t *testing.T) *thirdparty.Registry {
	reg := thirdparty.NewRegistry(time.Second)
	t.Cleanup(reg.Close)
	return reg
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoader_RefusesNonLiveKeys(t *testing.T) {
	var hits int32
	srv := stripeJS(t, "window.Stripe = function(){}", &hits)

	for _, key := range []string{"", "pk_test_123", "sk_live_123", "PK_LIVE_123", "live_pk_123"} {
		for _, production := range []bool{true, false} {
			reg := newRegistry(t)
			l := NewLoader(reg, srv.Client(), key, srv.URL, production)

			assert.False(t, l.Live(), key)
			assert.Equal(t, Status{}, l.Status(), key)
			assert.Equal(t, Status{}, l.Wait(waitCtx(t)), key)
			assert.Equal(t, thirdparty.StateNotRequested, reg.State(ClientName))
		}
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestLoader_LoadRejectsNonLiveKeyDirectly(t *testing.T) {
	l := NewLoader(newRegistry(t), nil, "pk_test_123", "http://unused", false)
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotLiveKey)
}

func TestLoader_LiveKeyInitialisesOnce(t *testing.T) {
	var hits int32
	srv := stripeJS(t, "window.Stripe = function(){}", &hits)
	reg := newRegistry(t)

	a := NewLoader(reg, srv.Client(), "pk_live_abc", srv.URL, true)
	b := NewLoader(reg, srv.Client(), "pk_live_abc", srv.URL, true)

	sa := a.Wait(waitCtx(t))
	sb := b.Wait(waitCtx(t))

	require.NotNil(t, sa.Client)
	assert.False(t, sa.Loading)
	assert.Same(t, sa.Client, sb.Client)
	assert.Equal(t, "pk_live_abc", sa.Client.PublishableKey)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, sa, a.Status())
}

func TestLoader_ErrorYieldsNoClient(t *testing.T) {
	srv := stripeJS(t, "console.log('blocked')", nil)
	l := NewLoader(newRegistry(t), srv.Client(), "pk_live_abc", srv.URL, true)

	st := l.Wait(waitCtx(t))
	assert.False(t, st.Loading)
	assert.Nil(t, st.Client)
}

func TestLoader_ReportsLoading(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("Stripe"))
	}))
	defer srv.Close()
	defer close(release)

	l := NewLoader(newRegistry(t), srv.Client(), "pk_live_abc", srv.URL, true)
	assert.Equal(t, Status{Loading: true}, l.Status())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, Status{Loading: true}, l.Wait(ctx))
}

func TestCheckout_Render(t *testing.T) {
	srv := stripeJS(t, "window.Stripe = function(){}", nil)
	l := NewLoader(newRegistry(t), srv.Client(), "pk_live_abc", srv.URL, true)
	c := NewCheckout(l, "https://api.vinreport.example/payment-intents")

	html := string(c.Render(waitCtx(t), origin, "1HGCM82633A004352"))

	assert.Contains(t, html, `id="stripe-payment-element"`)
	assert.Contains(t, html, `"pk_live_abc"`)
	assert.Contains(t, html, "payment-success?vin=1HGCM82633A004352")
	assert.Contains(t, html, "$29.99")
}

func TestCheckout_PlaceholderWhileLoading(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("Stripe"))
	}))
	defer srv.Close()
	defer close(release)

	l := NewLoader(newRegistry(t), srv.Client(), "pk_live_abc", srv.URL, true)
	c := NewCheckout(l, "https://api.vinreport.example/payment-intents")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, placeholderHTML, string(c.Render(ctx, origin, "VIN")))
}

func TestCheckout_UnavailableRendersNothing(t *testing.T) {
	l := NewLoader(newRegistry(t), nil, "pk_test_abc", "http://unused", false)
	assert.Empty(t, NewCheckout(l, "https://api.vinreport.example/payment-intents").Render(context.Background(), origin, "VIN"))

	l = NewLoader(newRegistry(t), nil, "pk_live_abc", "http://unused", true)
	assert.Empty(t, NewCheckout(l, "").Render(context.Background(), origin, "VIN"))
}
