package stripe

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"sync"

	"vinreport-web/models"
	"vinreport-web/utils"
)

const placeholderHTML = `<div class="checkout-loading" role="status" aria-live="polite">
  <span class="spinner" aria-hidden="true"></span>
  <span>Loading secure checkout&hellip;</span>
</div>
<script>setTimeout(function () { window.location.reload(); }, 2000);</script>`

const checkoutSource = `<div id="stripe-checkout" class="stripe-checkout">
  <p class="checkout-summary">{{.Description}} &middot; <strong>{{.Price}}</strong></p>
  <form id="stripe-payment-form">
    <div id="stripe-payment-element"></div>
    <button type="submit" class="btn btn-primary">Pay {{.Price}}</button>
  </form>
</div>
<script src="{{.ScriptURL}}"></script>
<script>
(function () {
  if (!window.Stripe) { return; }
  var stripe = window.Stripe({{.PublishableKey}});
  var elements = stripe.elements({ mode: "payment", amount: {{.AmountCents}}, currency: "usd" });
  elements.create("payment").mount("#stripe-payment-element");
  document.getElementById("stripe-payment-form").addEventListener("submit", function (e) {
    e.preventDefault();
    elements.submit().then(function () {
      return fetch({{.IntentURL}}, {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify({ vin: {{.VIN}} })
      });
    }).then(function (r) { return r.json(); }).then(function (data) {
      return stripe.confirmPayment({
        elements: elements,
        clientSecret: data.clientSecret,
        confirmParams: { return_url: {{.ReturnURL}} }
      });
    });
  });
})();
</script>`

type checkoutView struct {
	Description    string
	Price          string
	AmountCents    int
	PublishableKey string
	ScriptURL      string
	IntentURL      string
	VIN            string
	ReturnURL      string
}

// Checkout is the deferred Stripe checkout. Its template is only parsed on
// the first render that has a ready client.
type Checkout struct {
	loader    *Loader
	intentURL string

	once sync.Once
	tmpl *template.Template
	err  error
}

func NewCheckout(loader *Loader, intentURL string) *Checkout {
	return &Checkout{loader: loader, intentURL: intentURL}
}

func (c *Checkout) Enabled() bool {
	return c.intentURL != "" && c.loader.Live()
}

func (c *Checkout) parsed() (*template.Template, error) {
	c.once.Do(func() {
		c.tmpl, c.err = template.New("stripe-checkout").Parse(checkoutSource)
	})
	return c.tmpl, c.err
}

// Render returns the checkout for vin, a loading placeholder while the
// client is still initialising, or nothing when Stripe is unavailable. The
// buyer returns to the payment-success page for vin.
func (c *Checkout) Render(ctx context.Context, origin, vin string) template.HTML {
	if !c.Enabled() {
		return ""
	}

	status := c.loader.Wait(ctx)
	if status.Loading {
		return template.HTML(placeholderHTML)
	}
	if status.Client == nil {
		return ""
	}

	tmpl, err := c.parsed()
	if err != nil {
		log.Printf("Error parsing Stripe checkout template: %v", err)
		return ""
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, checkoutView{
		Description:    models.ReportDescription,
		Price:          models.ReportPriceDisplay,
		AmountCents:    models.ReportPriceCents,
		PublishableKey: status.Client.PublishableKey,
		ScriptURL:      status.Client.ScriptURL,
		IntentURL:      c.intentURL,
		VIN:            vin,
		ReturnURL:      utils.PaymentSuccessURL(origin, vin),
	})
	if err != nil {
		log.Printf("Error rendering Stripe checkout: %v", err)
		return ""
	}
	return template.HTML(buf.String())
}
