package models

import "html/template"

// Script is a tag rendered into the page head. Src and Inline are mutually
// exclusive.
type Script struct {
	ID          string
	Src         string
	Async       bool
	CrossOrigin string
	Inline      template.JS
}

// Container is a page element addressed by a fixed ID whose content is
// filled in by a component after the page markup is declared.
type Container struct {
	ID      string
	Content template.HTML
}

// Document is the per-request page model rendered by the layout.
type Document struct {
	Title       string
	Description string
	Path        string

	scripts    []Script
	containers map[string]*Container
	markers    map[string]bool
}

func NewDocument(path string) *Document {
	return &Document{
		Path:       path,
		containers: make(map[string]*Container),
		markers:    make(map[string]bool),
	}
}

func (d *Document) AppendScript(s Script) {
	d.scripts = append(d.scripts, s)
}

func (d *Document) Scripts() []Script {
	return d.scripts
}

// DeclareContainer registers an empty container. Declaring an existing ID
// keeps its content.
func (d *Document) DeclareContainer(id string) *Container {
	if c, ok := d.containers[id]; ok {
		return c
	}
	c := &Container{ID: id}
	d.containers[id] = c
	return c
}

func (d *Document) Container(id string) (*Container, bool) {
	c, ok := d.containers[id]
	return c, ok
}

// ContainerHTML returns the content of the container, empty if undeclared.
// Used from templates.
func (d *Document) ContainerHTML(id string) template.HTML {
	if c, ok := d.containers[id]; ok {
		return c.Content
	}
	return ""
}

// Once returns true the first time it is called with key on this document.
func (d *Document) Once(key string) bool {
	if d.markers[key] {
		return false
	}
	d.markers[key] = true
	return true
}
