package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2/minify"

	"github.com/ssqa/storefront/internal/models"
)

// pageTemplates are the page files under the templates directory; each is
// parsed together with layout.html
var pageTemplates = []string{
	"home", "product", "cart", "checkout", "order_received",
	"login", "account", "sample", "not_found", "die",
}

// Renderer executes the storefront page templates
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the templates in dir. The site stylesheet and script are
// minified once and inlined into every page.
func NewRenderer(dir string) (*Renderer, error) {
	rawCSS, err := os.ReadFile(filepath.Join(dir, "storefront.css"))
	if err != nil {
		return nil, err
	}
	css, err := minify.CSS(string(rawCSS))
	if err != nil {
		return nil, fmt.Errorf("failed to minify storefront.css: %w", err)
	}
	rawJS, err := os.ReadFile(filepath.Join(dir, "storefront.js"))
	if err != nil {
		return nil, err
	}
	js, err := minify.JS(string(rawJS))
	if err != nil {
		return nil, fmt.Errorf("failed to minify storefront.js: %w", err)
	}

	funcs := template.FuncMap{
		"inlineCSS":  func() template.CSS { return template.CSS(css) },
		"inlineJS":   func() template.JS { return template.JS(js) },
		"price":      models.FormatPrice,
		"priceHTML":  priceHTML,
		"paragraphs": paragraphs,
		"percent":    func(rating int) int { return rating * 20 },
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageTemplates))}
	for _, name := range pageTemplates {
		tmpl, err := template.New(name+".html").Funcs(funcs).ParseFiles(
			filepath.Join(dir, name+".html"),
			filepath.Join(dir, "layout.html"),
		)
		if err != nil {
			return nil, err
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes the named page with status
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := r.pages[name]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// priceHTML renders a product price, striking the regular price through
// during a sale
func priceHTML(p *models.Product) template.HTML {
	amount := func(cents int64) string {
		return `<span class="woocommerce-Price-amount amount"><bdi><span class="woocommerce-Price-currencySymbol">$</span>` +
			models.FormatAmount(cents) + `</bdi></span>`
	}
	if p.OnSale() {
		return template.HTML(`<del aria-hidden="true">` + amount(p.RegularPrice) + `</del> <ins>` + amount(p.SalePrice) + `</ins>`)
	}
	return template.HTML(amount(p.RegularPrice))
}

// paragraphs splits text on blank lines
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// absoluteURL resolves a site path against the scheme and host of r
func absoluteURL(r *http.Request, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}
