package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vinreport-web/config"
	"vinreport-web/database"
	"vinreport-web/handlers"
	"vinreport-web/middleware"
	"vinreport-web/queue"
	"vinreport-web/services/analytics"
	"vinreport-web/services/auth"
	"vinreport-web/services/content"
	"vinreport-web/services/email"
	"vinreport-web/services/paypal"
	"vinreport-web/services/scripts"
	"vinreport-web/services/stripe"
	"vinreport-web/services/thirdparty"
	"vinreport-web/views"
	"vinreport-web/web"
	"vinreport-web/worker"
)

const jobQueueName = "site_jobs"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	renderer, err := views.New(web.FS)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	store, err := content.Load(web.FS)
	if err != nil {
		log.Fatalf("Failed to load site content: %v", err)
	}

	// The database is optional; without it contact messages are only emailed.
	var db *database.Connection
	if cfg.DatabaseEnabled() {
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			log.Printf("Warning: database unavailable, contact messages will not be stored: %v", err)
			db = nil
		} else {
			defer db.Close()
			log.Println("Successfully connected to database")
		}
	}

	// Without Redis the site still serves pages; tracking, contact messages
	// and rate limiting are switched off.
	jobQueue, err := queue.NewQueue(cfg.Redis.URL, jobQueueName)
	if err != nil {
		log.Printf("Warning: Redis unavailable, background jobs disabled: %v", err)
		jobQueue = nil
	} else {
		defer jobQueue.Close()
		log.Println("Successfully connected to Redis")
	}

	httpClient := &http.Client{Timeout: cfg.ThirdParty.LoadTimeout}
	registry := thirdparty.NewRegistry(cfg.ThirdParty.LoadTimeout)
	defer registry.Close()

	paypalButton := paypal.NewButton(registry, httpClient,
		cfg.PayPal.ClientID, cfg.PayPal.HostedButtonID, cfg.PayPal.SDKBaseURL)
	stripeLoader := stripe.NewLoader(registry, httpClient,
		cfg.Stripe.PublishableKey, cfg.Stripe.ScriptURL, cfg.IsProduction())
	checkout := stripe.NewCheckout(stripeLoader, cfg.Stripe.IntentURL)

	preloadThirdParty(registry, paypalButton, stripeLoader, cfg.ThirdParty.LoadTimeout)

	deps := handlers.Deps{
		Renderer:   renderer,
		Static:     web.FS,
		Scripts:    scripts.NewLoader(cfg.Analytics.TrackingID, cfg.Analytics.AdSenseClientID),
		Content:    store,
		PayPal:     paypalButton,
		Checkout:   checkout,
		CSRF:       auth.NewCSRFService(cfg.Session.CSRFSecret, "vinreport-web"),
		Sessions:   handlers.NewSessionStore(cfg.Session.Secret, cfg.Session.Domain, cfg.Session.MaxAge, cfg.IsProduction()),
		ThirdParty: registry,
		Metrics:    middleware.NewMetrics(),
		Origin:     cfg.Server.Origin,
		TrustProxy: cfg.Server.TrustProxy,
	}
	if db != nil {
		deps.DB = db
	}

	var jobWorker *worker.Worker
	if jobQueue != nil {
		deps.Queue = jobQueue
		deps.Redis = handlers.PingFunc(func(ctx context.Context) error {
			return jobQueue.Client().Ping(ctx).Err()
		})
		deps.RateLimiter = middleware.NewRateLimiter(jobQueue.Client(), cfg.Server.TrustProxy)

		opts := worker.Options{ContactInbox: cfg.Contact.Inbox}
		if cfg.Analytics.TrackingID != "" && cfg.Analytics.APISecret != "" {
			deps.Tracker = analytics.NewTracker(jobQueue)
			opts.Events = analytics.NewDispatcher("", cfg.Analytics.TrackingID, cfg.Analytics.APISecret)
		}
		if db != nil {
			opts.Store = db
		}
		if smtp := email.NewSMTPService(cfg.SMTP); smtp.Enabled() {
			opts.Mailer = smtp
		}

		workerConcurrency := cfg.Redis.WorkerConcurrency
		if workerConcurrency < 1 {
			workerConcurrency = 1
		} else if workerConcurrency > 8 {
			workerConcurrency = 8
		}

		jobWorker = worker.NewWorker(jobQueue, opts)
		jobWorker.Start(workerConcurrency)
	}

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        handlers.NewRouter(deps),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if jobWorker != nil {
		log.Println("Stopping worker...")
		jobWorker.Stop()
	}

	log.Println("Server exited properly")
}

// preloadThirdParty starts the vendor SDK loads at boot so the first
// checkout page does not pay for them. Failures only disable the vendor.
func preloadThirdParty(registry *thirdparty.Registry, button *paypal.Button, loader *stripe.Loader, timeout time.Duration) {
	loads := map[string]thirdparty.LoadFunc{}
	if button.Enabled() {
		loads[paypal.ClientName] = button.Load
	}
	if loader.Live() {
		loads[stripe.ClientName] = loader.Load
	}
	if len(loads) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := registry.Preload(ctx, loads); err != nil {
			log.Printf("Warning: third-party preload: %v", err)
		}
		log.Printf("Third-party clients: %v", registry.States())
	}()
}
