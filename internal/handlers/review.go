package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/services"
)

// DieData represents the data passed to the error page template
type DieData struct {
	Page
	Message string
}

// ReviewHandler accepts the product review form
type ReviewHandler struct {
	shop    *Shop
	reviews services.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(shop *Shop, reviews services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		shop:    shop,
		reviews: reviews,
	}
}

// reviewError words a refused review and picks the status of its error page
func reviewError(err error) (string, int) {
	switch {
	case errors.Is(err, services.ErrReviewTooFast):
		return err.Error(), http.StatusTooManyRequests
	case errors.Is(err, services.ErrDuplicateReview):
		return err.Error(), http.StatusConflict
	case errors.Is(err, models.ErrRatingRequired):
		return "Please rate the product.", http.StatusOK
	case errors.Is(err, models.ErrReviewRequired):
		return "Please type your comment text.", http.StatusOK
	case errors.Is(err, models.ErrReviewerRequired):
		return "Please fill the required fields (name, email).", http.StatusOK
	}
	return "Sorry, your review could not be saved.", http.StatusInternalServerError
}

// submit requires the email the form asks for. Rating and text problems are
// reported first.
func (h *ReviewHandler) submit(productID int64, author, email, text string, rating int) (*models.Review, error) {
	if strings.TrimSpace(email) == "" {
		if _, err := models.NewReview(productID, author, "", text, rating); err != nil {
			return nil, err
		}
		return nil, models.ErrReviewerRequired
	}
	return h.reviews.Submit(productID, author, email, text, rating)
}

// ServeHTTP handles POST /wp-comments-post.php
func (h *ReviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	productID, err := strconv.ParseInt(r.PostForm.Get("comment_post_ID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	product, err := h.shop.Catalog.Product(productID)
	if err != nil {
		h.shop.notFound(w, r)
		return
	}

	author := r.PostForm.Get("author")
	email := r.PostForm.Get("email")
	if customer := h.shop.customer(r); customer != nil {
		if strings.TrimSpace(author) == "" {
			author = customer.DisplayName()
		}
		if strings.TrimSpace(email) == "" {
			email = customer.Email
		}
	}
	rating, _ := strconv.Atoi(r.PostForm.Get("rating"))

	review, err := h.submit(product.ID, author, email, r.PostForm.Get("comment"), rating)
	if err != nil {
		message, status := reviewError(err)
		log.Printf("Review of %s refused: %v", product.Slug, err)
		data := DieData{Page: h.shop.page(r, "Comment Submission Failure", "error-page"), Message: message}
		h.shop.Renderer.Render(w, status, "die", data)
		return
	}

	h.shop.Sessions.RememberCommenter(w, review.AuthorKey(), r.PostForm.Get("wp-comment-cookies-consent") == "yes")
	log.Printf("Review %d of %s saved (%s)", review.ID, product.Slug, review.Status)
	http.Redirect(w, r, fmt.Sprintf("/product/%s/#comment-%d", product.Slug, review.ID), http.StatusSeeOther)
}
