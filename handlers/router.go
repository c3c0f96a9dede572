package handlers

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"vinreport-web/middleware"
	"vinreport-web/services/analytics"
	"vinreport-web/services/auth"
	"vinreport-web/services/content"
	"vinreport-web/services/paypal"
	"vinreport-web/services/scripts"
	"vinreport-web/services/stripe"
	"vinreport-web/views"
)

// Deps is everything the router wires into handlers. Tracker, Queue, Redis,
// DB and RateLimiter may be nil. Without Sessions there are no flash
// messages and the contact form cannot issue CSRF tokens.
type Deps struct {
	Renderer    *views.Renderer
	Static      fs.FS
	Scripts     *scripts.Loader
	Content     *content.Store
	Tracker     *analytics.Tracker
	PayPal      *paypal.Button
	Checkout    *stripe.Checkout
	CSRF        *auth.CSRFService
	Sessions    sessions.Store
	Queue       Enqueuer
	ThirdParty  ThirdPartyStates
	Redis       Pinger
	DB          Pinger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.Metrics
	Origin      string
	TrustProxy  bool
}

var staticPages = map[string]StaticPage{
	"/vindecoder-europe": {"vindecoder_europe", "VIN decoder Europe", "Decode VINs of vehicles registered in Europe."},
	"/vincheck-africa":   {"vincheck_africa", "VIN check Africa", "Check vehicles imported to or registered in Africa."},
	"/sample-report":     {"sample_report", "Sample report", "See what a vehicle history report contains."},
	"/privacy-policy":    {"privacy_policy", "Privacy policy", ""},
	"/terms-conditions":  {"terms_conditions", "Terms and conditions", ""},
}

func NewRouter(d Deps) *mux.Router {
	base := site{
		renderer:   d.Renderer,
		scripts:    d.Scripts,
		sessions:   d.Sessions,
		origin:     d.Origin,
		trustProxy: d.TrustProxy,
	}
	pages := &PageHandler{
		site:     base,
		content:  d.Content,
		tracker:  d.Tracker,
		paypal:   d.PayPal,
		checkout: d.Checkout,
	}
	contact := &ContactHandler{
		site:  base,
		csrf:  d.CSRF,
		queue: d.Queue,
	}
	health := &HealthHandler{
		thirdParty: d.ThirdParty,
		redis:      d.Redis,
		db:         d.DB,
		startTime:  time.Now(),
	}

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.SecurityHeadersMiddleware)
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware)
		router.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}
	if d.RateLimiter != nil {
		router.Use(d.RateLimiter.RateLimitMiddleware())
	}

	router.HandleFunc("/", pages.Home).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/search", pages.Search).Methods(http.MethodPost)
	router.HandleFunc("/car-history-check", pages.CarHistoryCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/history", pages.CarHistoryCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/history-report", pages.HistoryReport).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/loan-calculator", pages.LoanCalculator).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/api/loan-quote", pages.LoanQuoteAPI).Methods(http.MethodGet)
	router.HandleFunc("/payment-success", pages.PaymentSuccess).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/car-history-results", pages.CarHistoryResults).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/blog", pages.Blog).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/blog/{id}", pages.BlogPost).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/faq", pages.FAQ).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/contact", contact.Show).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/contact", contact.Submit).Methods(http.MethodPost)

	for path, page := range staticPages {
		router.HandleFunc(path, pages.Static(page)).Methods(http.MethodGet, http.MethodHead)
	}

	router.HandleFunc("/healthz", health.Health).Methods(http.MethodGet)
	if d.Static != nil {
		router.PathPrefix("/static/").Handler(http.FileServer(http.FS(d.Static))).Methods(http.MethodGet, http.MethodHead)
	}

	// router.Use only wraps matched routes
	router.NotFoundHandler = middleware.LoggingMiddleware(
		middleware.SecurityHeadersMiddleware(http.HandlerFunc(pages.NotFound)))

	return router
}
