package paypal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinreport-web/models"
	"vinreport-web/services/thirdparty"
)

const origin = "https://vinreport.example"

func newSDKServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "hosted-buttons", r.URL.Query().Get("components"))
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newButton(t *testing.T, srv *httptest.Server) (*Button, *thirdparty.Registry) {
	reg := thirdparty.NewRegistry(time.Second)
	t.Cleanup(reg.Close)
	return NewButton(reg, srv.Client(), "client-abc", "BTN123", srv.URL+"/sdk/js"), reg
}

func mountCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestButton_SDKURL(t *testing.T) {
	b := NewButton(nil, nil, "client-abc", "BTN123", "https://www.paypal.com/sdk/js")
	assert.Equal(t,
		"https://www.paypal.com/sdk/js?client-id=client-abc&components=hosted-buttons&currency=USD&disable-funding=venmo",
		b.SDKURL())
	assert.Equal(t, "paypal-container-BTN123", b.ContainerID())
}

func TestButton_MountWithVIN(t *testing.T) {
	srv := newSDKServer(t, "paypal.HostedButtons = function(){}", nil)
	b, _ := newButton(t, srv)

	doc := models.NewDocument("/history-report")
	doc.DeclareContainer(b.ContainerID())

	require.True(t, b.Mount(mountCtx(t), doc, origin, "1HGCM82633A004352"))

	html := string(doc.ContainerHTML(b.ContainerID()))
	assert.Contains(t, html, "payment-success?vin=1HGCM82633A004352")
	assert.Contains(t, html, `custom: "1HGCM82633A004352"`)
	assert.Contains(t, html, `"BTN123"`)
	assert.Contains(t, html, `"#paypal-container-BTN123"`)
}

func TestButton_MountWithoutVIN(t *testing.T) {
	srv := newSDKServer(t, "paypal.HostedButtons = function(){}", nil)
	b, _ := newButton(t, srv)

	doc := models.NewDocument("/history-report")
	doc.DeclareContainer(b.ContainerID())

	require.True(t, b.Mount(mountCtx(t), doc, origin, ""))

	html := string(doc.ContainerHTML(b.ContainerID()))
	assert.Contains(t, html, `payment-success"`)
	assert.NotContains(t, html, "vin=")
}

func TestButton_UnmountClearsContainer(t *testing.T) {
	srv := newSDKServer(t, "HostedButtons", nil)
	b, _ := newButton(t, srv)

	doc := models.NewDocument("/history-report")
	doc.DeclareContainer(b.ContainerID())
	require.True(t, b.Mount(mountCtx(t), doc, origin, "VIN1"))
	require.NotEmpty(t, doc.ContainerHTML(b.ContainerID()))

	b.Unmount(doc)
	assert.Empty(t, doc.ContainerHTML(b.ContainerID()))
}

func TestButton_RemountDoesNotDuplicate(t *testing.T) {
	var hits int32
	srv := newSDKServer(t, "HostedButtons", &hits)
	b, _ := newButton(t, srv)

	doc := models.NewDocument("/history-report")
	doc.DeclareContainer(b.ContainerID())

	require.True(t, b.Mount(mountCtx(t), doc, origin, "OLDVIN"))
	require.True(t, b.Mount(mountCtx(t), doc, origin, "NEWVIN"))

	html := string(doc.ContainerHTML(b.ContainerID()))
	assert.Contains(t, html, "vin=NEWVIN")
	assert.NotContains(t, html, "OLDVIN")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "SDK is fetched once per process")
}

func TestButton_MissingCapabilityRendersNothing(t *testing.T) {
	srv := newSDKServer(t, "paypal.Buttons = function(){}", nil)
	b, reg := newButton(t, srv)

	doc := models.NewDocument("/history-report")
	doc.DeclareContainer(b.ContainerID())

	assert.False(t, b.Mount(mountCtx(t), doc, origin, "VIN1"))
	assert.Empty(t, doc.ContainerHTML(b.ContainerID()))
	assert.Equal(t, thirdparty.StateFailed, reg.State(ClientName))
}

func TestButton_MissingContainer(t *testing.T) {
	var hits int32
	srv := newSDKServer(t, "HostedButtons", &hits)
	b, _ := newButton(t, srv)

	doc := models.NewDocument("/faq")
	assert.False(t, b.Mount(mountCtx(t), doc, origin, "VIN1"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestButton_DisabledWithoutClientID(t *testing.T) {
	b := NewButton(thirdparty.NewRegistry(time.Second), nil, "", "BTN123", "https://www.paypal.com/sdk/js")
	doc := models.NewDocument("/history-report")
	doc.DeclareContainer(b.ContainerID())

	assert.False(t, b.Enabled())
	assert.False(t, b.Mount(context.Background(), doc, origin, "VIN1"))
}
