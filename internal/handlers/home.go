package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/ssqa/storefront/internal/models"
)

// ProductTile is a product as listed on the shop front and under related products
type ProductTile struct {
	*models.Product
	URL      string
	ImageURL string
}

func tiles(r *http.Request, products []*models.Product) []ProductTile {
	out := make([]ProductTile, 0, len(products))
	for _, p := range products {
		out = append(out, ProductTile{
			Product:  p,
			URL:      "/product/" + p.Slug + "/",
			ImageURL: absoluteURL(r, p.Image),
		})
	}
	return out
}

// HomeData represents the data passed to the home template
type HomeData struct {
	Page
	Products []ProductTile
}

// HomeHandler serves the shop front. A GET with ?add-to-cart=<id> adds a
// simple product and comes back to the shop.
type HomeHandler struct {
	shop *Shop
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(shop *Shop) *HomeHandler {
	return &HomeHandler{shop: shop}
}

// ServeHTTP handles the GET / request
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if raw := r.URL.Query().Get("add-to-cart"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			if _, err := h.shop.Carts.AddToCart(h.shop.cartID(w, r), id, 1, nil); err != nil {
				log.Printf("Add to cart from the shop failed: %v", err)
			}
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := HomeData{
		Page:     h.shop.page(r, "Shop", "home archive post-type-archive-product"),
		Products: tiles(r, h.shop.Catalog.Products()),
	}
	h.shop.Renderer.Render(w, http.StatusOK, "home", data)
}
