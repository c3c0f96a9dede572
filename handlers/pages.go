package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"vinreport-web/models"
	"vinreport-web/services/analytics"
	"vinreport-web/services/content"
	"vinreport-web/services/paypal"
	"vinreport-web/services/stripe"
	"vinreport-web/utils"
)

// checkoutWait bounds how long a checkout page waits on a vendor SDK that
// is still loading before it renders without it.
const checkoutWait = 2 * time.Second

const maxVINLength = 64

type PageHandler struct {
	site
	content  *content.Store
	tracker  *analytics.Tracker
	paypal   *paypal.Button
	checkout *stripe.Checkout
}

type StaticPage struct {
	Template    string
	Title       string
	Description string
}

// Static renders a page that takes no input.
func (h *PageHandler) Static(p StaticPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := h.document(r, p.Title, p.Description)
		h.render(w, r, http.StatusOK, p.Template, doc, nil)
	}
}

type vinPage struct {
	VIN   string
	Price string
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r, "", "Check any vehicle's history by VIN before you buy.")
	h.render(w, r, http.StatusOK, "home", doc, vinPage{VIN: queryVIN(r)})
}

// Search takes the VIN from the landing form and sends the visitor on to
// the history check.
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	vin := r.PostForm.Get("vin")
	if strings.TrimSpace(vin) == "" {
		h.addFlash(w, r, "Please enter a VIN to search.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !acceptableVIN(vin) {
		h.addFlash(w, r, "That VIN is too long.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.tracker.VINSearch(r.Context(), analytics.ClientID(r), vin)
	http.Redirect(w, r, "/car-history-check?"+url.Values{"vin": {vin}}.Encode(), http.StatusSeeOther)
}

func (h *PageHandler) CarHistoryCheck(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r, "Car history check", "Run a full vehicle history check by VIN.")
	h.render(w, r, http.StatusOK, "car_history_check", doc, vinPage{
		VIN:   queryVIN(r),
		Price: models.ReportPriceDisplay,
	})
}

type historyReportPage struct {
	VIN               string
	Description       string
	Price             string
	Stripe            template.HTML
	PayPalContainerID string
}

// HistoryReport is the checkout page. Both payment entry points are bound to
// the VIN of this request.
func (h *PageHandler) HistoryReport(w http.ResponseWriter, r *http.Request) {
	vin := queryVIN(r)
	origin := utils.RequestOrigin(r, h.origin, h.trustProxy)

	doc := h.document(r, "Vehicle history report", models.ReportDescription)
	doc.DeclareContainer(h.paypal.ContainerID())

	ctx, cancel := context.WithTimeout(r.Context(), checkoutWait)
	defer cancel()

	h.paypal.Mount(ctx, doc, origin, vin)
	stripeHTML := h.checkout.Render(ctx, origin, vin)

	h.render(w, r, http.StatusOK, "history_report", doc, historyReportPage{
		VIN:               vin,
		Description:       models.ReportDescription,
		Price:             models.ReportPriceDisplay,
		Stripe:            stripeHTML,
		PayPalContainerID: h.paypal.ContainerID(),
	})
}

// PaymentSuccess is where both providers return the buyer.
func (h *PageHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	vin := queryVIN(r)
	h.tracker.Purchase(r.Context(), analytics.ClientID(r), vin,
		models.ReportPriceValue, models.ReportCurrency, transactionID(r))

	doc := h.document(r, "Payment successful", "")
	h.render(w, r, http.StatusOK, "payment_success", doc, vinPage{VIN: vin})
}

func (h *PageHandler) CarHistoryResults(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r, "Car history results", "")
	h.render(w, r, http.StatusOK, "car_history_results", doc, vinPage{VIN: queryVIN(r)})
}

func (h *PageHandler) Blog(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r, "Blog", "Guides on buying used cars and reading VINs.")
	h.render(w, r, http.StatusOK, "blog", doc, struct {
		Posts []models.BlogPost
	}{h.content.Posts()})
}

func (h *PageHandler) BlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.Post(mux.Vars(r)["id"])
	if errors.Is(err, content.ErrPostNotFound) {
		h.NotFound(w, r)
		return
	}

	doc := h.document(r, post.Title, post.Summary)
	h.render(w, r, http.StatusOK, "blog_post", doc, struct {
		Post models.BlogPost
	}{post})
}

func (h *PageHandler) FAQ(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r, "FAQ", "Answers to common questions about VIN reports.")
	h.render(w, r, http.StatusOK, "faq", doc, struct {
		Entries []models.FAQEntry
	}{h.content.FAQ()})
}

type loanPage struct {
	Price  string
	Down   string
	Rate   string
	Months string
	Error  string
	Quote  *models.LoanQuote
}

// LoanCalculator computes a quote when the form has been submitted and
// echoes the inputs back.
func (h *PageHandler) LoanCalculator(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := loanPage{
		Price:  q.Get("price"),
		Down:   q.Get("down"),
		Rate:   q.Get("rate"),
		Months: q.Get("months"),
	}
	status := http.StatusOK

	if page.Price != "" {
		quote, err := parseLoan(page)
		if err != nil {
			page.Error = "Please check the values: price and term must be positive and the down payment below the price."
			status = http.StatusBadRequest
		} else {
			page.Quote = &quote
		}
	}

	doc := h.document(r, "Car loan calculator", "Estimate your monthly car payment.")
	h.render(w, r, status, "loan_calculator", doc, page)
}

// LoanQuoteAPI is the JSON form of the calculator.
func (h *PageHandler) LoanQuoteAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote, err := parseLoan(loanPage{
		Price:  q.Get("price"),
		Down:   q.Get("down"),
		Rate:   q.Get("rate"),
		Months: q.Get("months"),
	})
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid loan parameters")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "loan quote calculated",
		Data:    quote,
	})
}

func parseLoan(p loanPage) (models.LoanQuote, error) {
	var in models.LoanInput
	var err error

	if in.Price, err = strconv.ParseFloat(p.Price, 64); err != nil {
		return models.LoanQuote{}, err
	}
	if p.Down != "" {
		if in.DownPayment, err = strconv.ParseFloat(p.Down, 64); err != nil {
			return models.LoanQuote{}, err
		}
	}
	if p.Rate != "" {
		if in.AnnualRate, err = strconv.ParseFloat(p.Rate, 64); err != nil {
			return models.LoanQuote{}, err
		}
	}
	if in.TermMonths, err = strconv.Atoi(p.Months); err != nil {
		return models.LoanQuote{}, err
	}

	return utils.CalculateLoan(in)
}

// NotFound renders the catch-all page with a 404.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r, "Page not found", "")
	h.render(w, r, http.StatusNotFound, "not_found", doc, nil)
}

// queryVIN returns the vin query parameter exactly as sent, or "" when it is
// oversized.
func queryVIN(r *http.Request) string {
	vin := r.URL.Query().Get("vin")
	if !acceptableVIN(vin) {
		return ""
	}
	return vin
}

// acceptableVIN bounds the size of the VIN. The value itself is opaque and
// is never rewritten.
func acceptableVIN(vin string) bool {
	return len(vin) <= maxVINLength
}

// transactionID picks the provider reference from the return URL, when the
// provider appended one.
func transactionID(r *http.Request) string {
	q := r.URL.Query()
	for _, key := range []string{"payment_intent", "tx", "token"} {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	return ""
}
