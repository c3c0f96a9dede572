// Package paypal renders the PayPal hosted payment button for the paid
// history report.
package paypal

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"

	"vinreport-web/models"
	"vinreport-web/services/thirdparty"
	"vinreport-web/utils"
)

const (
	ClientName = "paypal"
	Capability = "HostedButtons"

	containerPrefix = "paypal-container-"
)

// SDK is the registry handle for a loaded PayPal JS SDK.
type SDK struct {
	URL string
}

var buttonTmpl = template.Must(template.New("paypal-button").Parse(`<script src="{{.SDKURL}}" data-namespace="paypal"></script>
<script>
(function () {
  if (!window.paypal || !window.paypal.HostedButtons) { return; }
  window.paypal.HostedButtons({
    hostedButtonId: {{.ButtonID}},
    custom: {{.VIN}},
    onApprove: function () { window.location.assign({{.ReturnURL}}); }
  }).render({{.Selector}});
})();
</script>`))

type buttonView struct {
	SDKURL    string
	ButtonID  string
	VIN       string
	ReturnURL string
	Selector  string
}

type Button struct {
	registry *thirdparty.Registry
	client   *http.Client
	clientID string
	buttonID string
	sdkBase  string
}

func NewButton(registry *thirdparty.Registry, client *http.Client, clientID, buttonID, sdkBase string) *Button {
	return &Button{
		registry: registry,
		client:   client,
		clientID: clientID,
		buttonID: buttonID,
		sdkBase:  sdkBase,
	}
}

func (b *Button) Enabled() bool {
	return b.clientID != "" && b.buttonID != ""
}

// ContainerID is the fixed element the button renders into. Pages must
// declare it before Mount runs.
func (b *Button) ContainerID() string {
	return containerPrefix + b.buttonID
}

func (b *Button) SDKURL() string {
	q := url.Values{}
	q.Set("client-id", b.clientID)
	q.Set("components", "hosted-buttons")
	q.Set("disable-funding", "venmo")
	q.Set("currency", "USD")
	sep := "?"
	if strings.Contains(b.sdkBase, "?") {
		sep = "&"
	}
	return b.sdkBase + sep + q.Encode()
}

// Load fetches the SDK and checks it exposes hosted buttons.
func (b *Button) Load(ctx context.Context) (interface{}, error) {
	u := b.SDKURL()
	if err := thirdparty.FetchScript(ctx, b.client, u, Capability); err != nil {
		return nil, err
	}
	return &SDK{URL: u}, nil
}

// Mount renders the hosted button for vin into the document's container.
// Any failure leaves the container empty; nothing is reported to the
// visitor. It returns whether a button was rendered.
func (b *Button) Mount(ctx context.Context, doc *models.Document, origin, vin string) bool {
	b.Unmount(doc)

	if !b.Enabled() {
		return false
	}

	c, ok := doc.Container(b.ContainerID())
	if !ok {
		log.Printf("PayPal container %s missing from %s", b.ContainerID(), doc.Path)
		return false
	}

	res, err := b.registry.Request(ClientName, b.Load).Wait(ctx)
	if err != nil {
		// still loading, the next page view will pick it up
		return false
	}
	if !res.Ready() {
		return false
	}
	sdk, ok := res.Handle.(*SDK)
	if !ok {
		return false
	}

	var buf bytes.Buffer
	err = buttonTmpl.Execute(&buf, buttonView{
		SDKURL:    sdk.URL,
		ButtonID:  b.buttonID,
		VIN:       vin,
		ReturnURL: utils.PaymentSuccessURL(origin, vin),
		Selector:  "#" + c.ID,
	})
	if err != nil {
		log.Printf("Error rendering PayPal button: %v", err)
		return false
	}

	c.Content = template.HTML(buf.String())
	return true
}

// Unmount clears the container so a later mount never duplicates the button.
func (b *Button) Unmount(doc *models.Document) {
	if c, ok := doc.Container(b.ContainerID()); ok {
		c.Content = ""
	}
}
