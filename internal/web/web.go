// Package web renders the piano page.
package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig"
)

//go:embed index.html
var IndexHTML string

// Key is one piano key on the page.
type Key struct {
	Key   string
	Note  string
	Black bool
}

// Rhythm is one rhythm control on the page.
type Rhythm struct {
	Name    string
	Label   string
	Keys    []string
	Tempo   int // milliseconds
	Pattern []float64
}

// Page is the data the index template renders.
type Page struct {
	Title   string
	Keys    []Key
	Rhythms []Rhythm
	Analyze bool
}

// Renderer executes the index template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("index").Funcs(sprig.FuncMap()).Parse(IndexHTML)
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render returns the page as HTML.
func (r *Renderer) Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}

// Handler serves the page at "/". page is called on every request so the
// key map reflects the current session.
func (r *Renderer) Handler(page func() Page) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		body, err := r.Render(page())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	})
}
