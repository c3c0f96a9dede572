package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"vinreport-web/models"
	"vinreport-web/services/scripts"
	"vinreport-web/views"
)

const sessionName = "vinreport"

// site is what every page handler shares: the renderer, the head-script
// loader and the flash session store.
type site struct {
	renderer   *views.Renderer
	scripts    *scripts.Loader
	sessions   sessions.Store
	origin     string
	trustProxy bool
}

// document starts the per-request document with the vendor scripts in place.
func (s *site) document(r *http.Request, title, description string) *models.Document {
	doc := models.NewDocument(r.URL.Path)
	doc.Title = title
	doc.Description = description
	s.scripts.Inject(doc)
	return doc
}

func (s *site) render(w http.ResponseWriter, r *http.Request, status int, name string, doc *models.Document, data interface{}) {
	s.renderer.Render(w, status, name, views.Page{
		Doc:   doc,
		Flash: s.popFlash(w, r),
		Data:  data,
	})
}

func (s *site) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	if s.sessions == nil {
		return
	}
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		log.Printf("Warning: discarding unreadable session: %v", err)
	}
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		log.Printf("Error saving session: %v", err)
	}
}

func (s *site) popFlash(w http.ResponseWriter, r *http.Request) string {
	if s.sessions == nil {
		return ""
	}
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := session.Save(r, w); err != nil {
		log.Printf("Error saving session: %v", err)
	}
	msg, _ := flashes[0].(string)
	return msg
}

// NewSessionStore is the cookie store backing flash messages.
func NewSessionStore(secret, domain string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
