package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/services"
)

// Attribute is one row of the Additional information tab
type Attribute struct {
	Name  string
	Value string
}

// VariationField is one attribute select of a variable product
type VariationField struct {
	// ID is the select id, the attribute name without its "attribute_" prefix
	ID       string
	Name     string
	Label    string
	Options  []models.VariationOption
	Selected string
}

// Commenter prefills the review form
type Commenter struct {
	Name  string
	Email string
}

// ProductData represents the data passed to the product template
type ProductData struct {
	Page
	Product     *models.Product
	URL         string
	ImageURL    string
	GalleryURLs []string
	Attributes  []Attribute
	Variations  []VariationField
	Related     []ProductTile
	Reviews     []*models.Review
	ReviewCount int
	Commenter   Commenter
	// Added is the add-to-cart confirmation, empty when nothing was added
	Added string
}

// ProductHandler handles the product page requests. A POST adds the product
// to the cart and renders the page again with a notice.
type ProductHandler struct {
	shop    *Shop
	reviews services.ReviewService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(shop *Shop, reviews services.ReviewService) *ProductHandler {
	return &ProductHandler{
		shop:    shop,
		reviews: reviews,
	}
}

// ServeHTTP handles GET and POST /product/{slug}/
func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	product, err := h.shop.Catalog.ProductBySlug(r.PathValue("slug"))
	if err != nil {
		h.shop.notFound(w, r)
		return
	}

	data := h.productData(r, product)
	if r.Method == http.MethodPost {
		h.addToCart(w, r, product, &data)
	}
	h.shop.Renderer.Render(w, http.StatusOK, "product", data)
}

func (h *ProductHandler) addToCart(w http.ResponseWriter, r *http.Request, product *models.Product, data *ProductData) {
	if err := r.ParseForm(); err != nil {
		data.Errors = append(data.Errors, "Could not read the form.")
		return
	}

	qty := 1
	if raw := r.PostForm.Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			data.Errors = append(data.Errors, "Please enter a valid quantity for this product.")
			return
		}
		qty = n
	}

	variation := make(map[string]string, len(product.Variations))
	for i, v := range product.Variations {
		value := r.PostForm.Get(v.Attribute)
		variation[v.Attribute] = value
		data.Variations[i].Selected = value
	}

	cart, err := h.shop.Carts.AddToCart(h.shop.cartID(w, r), product.ID, qty, variation)
	switch {
	case errors.Is(err, models.ErrVariationRequired):
		data.Errors = append(data.Errors, fmt.Sprintf("Please choose product options by visiting “%s”.", product.Name))
		return
	case errors.Is(err, models.ErrInvalidQuantity):
		data.Errors = append(data.Errors, "Please enter a valid quantity for this product.")
		return
	case err != nil:
		log.Printf("Add to cart of %s failed: %v", product.Slug, err)
		data.Errors = append(data.Errors, "Sorry, this product cannot be purchased.")
		return
	}

	data.withCart(cart)
	if qty == 1 {
		data.Added = fmt.Sprintf("“%s” has been added to your cart.", product.Name)
	} else {
		data.Added = fmt.Sprintf("%d × “%s” have been added to your cart.", qty, product.Name)
	}
}

func (h *ProductHandler) productData(r *http.Request, product *models.Product) ProductData {
	data := ProductData{
		Page:     h.shop.page(r, product.Name, "product-template-default single single-product"),
		Product:  product,
		URL:      "/product/" + product.Slug + "/",
		ImageURL: absoluteURL(r, product.Image),
	}
	data.Breadcrumb = []string{"Home", "Clothing", product.Category, product.Name}
	if product.Category == "" {
		data.Breadcrumb = []string{"Home", product.Name}
	}

	for _, src := range product.Gallery {
		data.GalleryURLs = append(data.GalleryURLs, absoluteURL(r, src))
	}

	names := make([]string, 0, len(product.Attributes))
	for name := range product.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data.Attributes = append(data.Attributes, Attribute{Name: name, Value: product.Attributes[name]})
	}

	for _, v := range product.Variations {
		data.Variations = append(data.Variations, VariationField{
			ID:      strings.TrimPrefix(v.Attribute, "attribute_"),
			Name:    v.Attribute,
			Label:   v.Label,
			Options: v.Options,
		})
	}

	var related []*models.Product
	for _, slug := range product.Related {
		if p, err := h.shop.Catalog.ProductBySlug(slug); err == nil {
			related = append(related, p)
		}
	}
	data.Related = tiles(r, related)

	commenter := h.shop.Sessions.Commenter(r)
	if data.Customer != nil {
		data.Commenter = Commenter{Name: data.Customer.DisplayName(), Email: data.Customer.Email}
		if commenter == "" {
			commenter = data.Customer.Email
		}
	}
	data.Reviews = h.reviews.Visible(product.ID, commenter)
	for _, review := range data.Reviews {
		if review.IsApproved() {
			data.ReviewCount++
		}
	}
	return data
}
