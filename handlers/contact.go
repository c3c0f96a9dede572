package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"vinreport-web/models"
	"vinreport-web/queue"
	"vinreport-web/services/auth"
	"vinreport-web/worker"
)

const (
	contactForm  = "contact"
	csrfNonceKey = "csrf_nonce"

	maxNameLength    = 100
	maxSubjectLength = 150
	maxMessageLength = 5000
)

type Enqueuer interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
}

type ContactHandler struct {
	site
	csrf  *auth.CSRFService
	queue Enqueuer
}

type contactPage struct {
	Error     string
	CSRFToken string
	Form      models.ContactMessage
}

func (h *ContactHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, contactPage{})
}

// Submit validates the form and hands the message to the worker. The visitor
// is redirected back with a flash message on success.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, contactPage{Error: "The form could not be read. Please try again."})
		return
	}

	msg := models.ContactMessage{
		Name:    strings.TrimSpace(r.PostForm.Get("name")),
		Email:   strings.TrimSpace(r.PostForm.Get("email")),
		Subject: strings.TrimSpace(r.PostForm.Get("subject")),
		Message: strings.TrimSpace(r.PostForm.Get("message")),
		VIN:     r.PostForm.Get("vin"),
	}

	if err := h.csrf.ValidateToken(r.PostForm.Get("csrf_token"), contactForm, h.sessionNonce(r)); err != nil {
		log.Printf("Rejected contact form from %s: %v", r.RemoteAddr, err)
		h.renderForm(w, r, http.StatusForbidden, contactPage{
			Error: "Your session expired. Please send the message again.",
			Form:  msg,
		})
		return
	}

	if problem := validateContact(msg); problem != "" {
		h.renderForm(w, r, http.StatusBadRequest, contactPage{Error: problem, Form: msg})
		return
	}

	if h.queue == nil {
		h.renderForm(w, r, http.StatusServiceUnavailable, contactPage{
			Error: "Messaging is temporarily unavailable. Please try again later.",
			Form:  msg,
		})
		return
	}

	msg.CreatedAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.queue.Enqueue(ctx, queue.JobTypeContactMessage, worker.ContactJob(msg)); err != nil {
		log.Printf("Error queueing contact message: %v", err)
		h.renderForm(w, r, http.StatusServiceUnavailable, contactPage{
			Error: "Your message could not be sent. Please try again later.",
			Form:  msg,
		})
		return
	}

	h.clearNonce(r)
	h.addFlash(w, r, "Thanks, your message has been sent. We will get back to you shortly.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (h *ContactHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, page contactPage) {
	nonce, err := h.ensureNonce(w, r)
	if err != nil {
		log.Printf("Error preparing contact session: %v", err)
		http.Error(w, "page not available", http.StatusInternalServerError)
		return
	}
	token, err := h.csrf.GenerateToken(contactForm, nonce)
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
		http.Error(w, "page not available", http.StatusInternalServerError)
		return
	}
	page.CSRFToken = token

	doc := h.document(r, "Contact us", "Questions about a report? Send us a message.")
	h.render(w, r, status, "contact", doc, page)
}

// ensureNonce returns the session's CSRF nonce, creating and saving one on
// the first visit.
func (h *ContactHandler) ensureNonce(w http.ResponseWriter, r *http.Request) (string, error) {
	if h.sessions == nil {
		return "", errors.New("no session store configured")
	}
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		log.Printf("Warning: discarding unreadable session: %v", err)
	}
	if nonce, ok := session.Values[csrfNonceKey].(string); ok && nonce != "" {
		return nonce, nil
	}
	nonce := uuid.New().String()
	session.Values[csrfNonceKey] = nonce
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return nonce, nil
}

func (h *ContactHandler) sessionNonce(r *http.Request) string {
	if h.sessions == nil {
		return ""
	}
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	nonce, _ := session.Values[csrfNonceKey].(string)
	return nonce
}

// clearNonce makes an accepted token single use. The following addFlash
// saves the session.
func (h *ContactHandler) clearNonce(r *http.Request) {
	if h.sessions == nil {
		return
	}
	if session, err := h.sessions.Get(r, sessionName); err == nil {
		delete(session.Values, csrfNonceKey)
	}
}

// validateContact returns a message for the visitor, or "" when msg is fine.
func validateContact(msg models.ContactMessage) string {
	switch {
	case msg.Name == "" || msg.Email == "" || msg.Message == "":
		return "Name, email and message are required."
	case len(msg.Name) > maxNameLength || len(msg.Subject) > maxSubjectLength:
		return "Name or subject is too long."
	case !acceptableVIN(msg.VIN):
		return "That VIN is too long."
	case len(msg.Message) > maxMessageLength:
		return "Your message is too long."
	}
	if addr, err := mail.ParseAddress(msg.Email); err != nil || addr.Address != msg.Email {
		return "Please enter a valid email address."
	}
	return ""
}
