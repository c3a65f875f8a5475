package handlers

import (
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/models"
)

// restTimeLayout is how the API writes dates
const restTimeLayout = "2006-01-02T15:04:05"

// ErrorResponse is the JSON error body of the REST API
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Data    ErrorResponseData `json:"data"`
}

// ErrorResponseData carries the HTTP status of an error response
type ErrorResponseData struct {
	Status int `json:"status"`
}

// ImageResource is a product image
type ImageResource struct {
	ID  int    `json:"id"`
	Src string `json:"src"`
}

// CategoryResource is a product category
type CategoryResource struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductResource is a product as GET /products returns it
type ProductResource struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	Permalink        string             `json:"permalink"`
	Type             string             `json:"type"`
	SKU              string             `json:"sku"`
	Price            string             `json:"price"`
	RegularPrice     string             `json:"regular_price"`
	SalePrice        string             `json:"sale_price"`
	OnSale           bool               `json:"on_sale"`
	PriceHTML        string             `json:"price_html"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"short_description"`
	Images           []ImageResource    `json:"images"`
	Categories       []CategoryResource `json:"categories"`
	Related          []int64            `json:"related_ids"`
}

func productResource(r *http.Request, catalog ProductCatalog, p *models.Product) ProductResource {
	res := ProductResource{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Permalink:        absoluteURL(r, "/product/"+p.Slug+"/"),
		Type:             p.Type,
		SKU:              p.SKU,
		Price:            models.FormatAmount(p.Price()),
		RegularPrice:     models.FormatAmount(p.RegularPrice),
		OnSale:           p.OnSale(),
		PriceHTML:        string(priceHTML(p)),
		Description:      htmlParagraphs(p.Description),
		ShortDescription: htmlParagraphs(p.ShortDescription),
		Images:           []ImageResource{},
		Categories:       []CategoryResource{},
		Related:          []int64{},
	}
	if res.Type == "" {
		res.Type = models.ProductTypeSimple
	}
	if p.OnSale() {
		res.SalePrice = models.FormatAmount(p.SalePrice)
	}
	for i, src := range append([]string{p.Image}, p.Gallery...) {
		if src != "" {
			res.Images = append(res.Images, ImageResource{ID: i + 1, Src: absoluteURL(r, src)})
		}
	}
	if p.Category != "" {
		res.Categories = append(res.Categories, CategoryResource{
			Name: p.Category,
			Slug: strings.ToLower(strings.ReplaceAll(p.Category, " ", "-")),
		})
	}
	for _, slug := range p.Related {
		if related, err := catalog.ProductBySlug(slug); err == nil {
			res.Related = append(res.Related, related.ID)
		}
	}
	return res
}

// htmlParagraphs renders text the way the API returns post content
func htmlParagraphs(text string) string {
	var b strings.Builder
	for _, p := range paragraphs(text) {
		b.WriteString("<p>" + html.EscapeString(p) + "</p>\n")
	}
	return b.String()
}

// CouponResource is a coupon as the API returns it
type CouponResource struct {
	ID           int64   `json:"id"`
	Code         string  `json:"code"`
	DiscountType string  `json:"discount_type"`
	Amount       string  `json:"amount"`
	DateExpires  *string `json:"date_expires"`
	DateCreated  string  `json:"date_created"`
}

func couponResource(c *models.Coupon) CouponResource {
	res := CouponResource{
		ID:           c.ID,
		Code:         c.Code,
		DiscountType: c.DiscountType,
		DateCreated:  c.CreatedAt.Format(restTimeLayout),
	}
	if c.DiscountType == models.DiscountPercent {
		res.Amount = models.FormatAmount(c.Amount * 100)
	} else {
		res.Amount = models.FormatAmount(c.Amount)
	}
	if c.ExpiresAt != nil {
		expires := c.ExpiresAt.Format(restTimeLayout)
		res.DateExpires = &expires
	}
	return res
}

// CustomerResource is a customer as the API returns it
type CustomerResource struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	DateCreated string `json:"date_created"`
}

func customerResource(c *models.Customer) CustomerResource {
	return CustomerResource{
		ID:          c.ID,
		Email:       c.Email,
		Username:    c.Username,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Role:        "customer",
		DateCreated: c.CreatedAt.Format(restTimeLayout),
	}
}

// BillingResource is the billing address of an order
type BillingResource struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// LineItemResource is one product line of an order
type LineItemResource struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

// OrderResource is an order as the API returns it
type OrderResource struct {
	ID          int64              `json:"id"`
	Number      string             `json:"number"`
	Status      string             `json:"status"`
	Currency    string             `json:"currency"`
	Total       string             `json:"total"`
	CustomerID  int64              `json:"customer_id"`
	Billing     BillingResource    `json:"billing"`
	LineItems   []LineItemResource `json:"line_items"`
	DateCreated string             `json:"date_created"`
}

func orderResource(o *models.Order) OrderResource {
	b := o.Billing
	res := OrderResource{
		ID:         o.ID,
		Number:     strconv.FormatInt(o.ID, 10),
		Status:     string(o.Status),
		Currency:   o.Currency,
		Total:      models.FormatAmount(o.Total),
		CustomerID: o.CustomerID,
		Billing: BillingResource{
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Address1:  b.Address1,
			City:      b.City,
			State:     b.State,
			Postcode:  b.Postcode,
			Country:   b.Country,
			Email:     b.Email,
			Phone:     b.Phone,
		},
		LineItems:   make([]LineItemResource, 0, len(o.Items)),
		DateCreated: o.CreatedAt.Format(restTimeLayout),
	}
	for _, item := range o.Items {
		res.LineItems = append(res.LineItems, LineItemResource{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Total:     models.FormatAmount(item.Total),
		})
	}
	return res
}

// ReviewResource is a product review as the API returns it
type ReviewResource struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"product_id"`
	Status        string `json:"status"`
	Reviewer      string `json:"reviewer"`
	ReviewerEmail string `json:"reviewer_email"`
	Review        string `json:"review"`
	Rating        int    `json:"rating"`
	Verified      bool   `json:"verified"`
	DateCreated   string `json:"date_created"`
}

func reviewResource(r *models.Review) ReviewResource {
	return ReviewResource{
		ID:            r.ID,
		ProductID:     r.ProductID,
		Status:        string(r.Status),
		Reviewer:      r.Reviewer,
		ReviewerEmail: r.ReviewerEmail,
		Review:        htmlParagraphs(r.Review),
		Rating:        r.Rating,
		DateCreated:   r.CreatedAt.Format(restTimeLayout),
	}
}

// parseExpires reads a date_expires value in the store's local time
func parseExpires(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(restTimeLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
