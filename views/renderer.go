// Package views renders pages into the shared layout.
package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"vinreport-web/models"
)

const (
	layoutFile = "templates/layout.tmpl"
	pagesGlob  = "templates/pages/*.tmpl"
)

// Page is what the layout executes: the document (head scripts and
// containers), an optional flash message and page-specific data.
type Page struct {
	Doc   *models.Document
	Flash string
	Data  interface{}
}

type Renderer struct {
	pages map[string]*template.Template
}

// New parses the layout once and clones it for every page template, keyed by
// file name without extension.
func New(fsys fs.FS) (*Renderer, error) {
	base, err := template.ParseFS(fsys, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, pagesGlob)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates under %s", pagesGlob)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		t, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := strings.TrimSuffix(path.Base(file), path.Ext(file))
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	t, ok := r.pages[name]
	if !ok {
		log.Printf("Unknown page template %q", name)
		http.Error(w, "page not available", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", page); err != nil {
		log.Printf("Error rendering page %q: %v", name, err)
		http.Error(w, "page not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
