package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// ReviewStatus is the moderation state of a review
type ReviewStatus string

// Review statuses
const (
	ReviewApproved ReviewStatus = "approved"
	ReviewHold     ReviewStatus = "hold"
)

// Review errors
var (
	ErrRatingRequired   = errors.New("please select a rating")
	ErrReviewRequired   = errors.New("please type your comment")
	ErrReviewerRequired = errors.New("please fill the required fields (name, email)")
)

// Review is a product review
type Review struct {
	ID            int64        `yaml:"id"`
	ProductID     int64        `yaml:"product_id"`
	Reviewer      string       `yaml:"reviewer"`
	ReviewerEmail string       `yaml:"reviewer_email"`
	Review        string       `yaml:"review"`
	Rating        int          `yaml:"rating"`
	Status        ReviewStatus `yaml:"status"`
	CreatedAt     time.Time    `yaml:"created_at"`
}

// NewReview creates an approved review after checking its fields. The email
// is optional but must be valid when given.
func NewReview(productID int64, reviewer, email, text string, rating int) (*Review, error) {
	reviewer = strings.TrimSpace(reviewer)
	email = strings.TrimSpace(email)
	text = strings.TrimSpace(text)

	if rating < 1 || rating > 5 {
		return nil, ErrRatingRequired
	}
	if text == "" {
		return nil, ErrReviewRequired
	}
	if reviewer == "" {
		return nil, ErrReviewerRequired
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrReviewerRequired
		}
	}

	return &Review{
		ProductID:     productID,
		Reviewer:      reviewer,
		ReviewerEmail: email,
		Review:        text,
		Rating:        rating,
		Status:        ReviewApproved,
		CreatedAt:     time.Now(),
	}, nil
}

// IsApproved reports whether the review is published
func (r *Review) IsApproved() bool {
	return r.Status == ReviewApproved
}

// Hold sends the review to moderation
func (r *Review) Hold() {
	r.Status = ReviewHold
}

// AuthorKey identifies the author for rate limiting and duplicate checks
func (r *Review) AuthorKey() string {
	if r.ReviewerEmail != "" {
		return strings.ToLower(r.ReviewerEmail)
	}
	return strings.ToLower(r.Reviewer)
}

// SameAs reports whether other repeats this review's text from the same author
func (r *Review) SameAs(other *Review) bool {
	return r.ProductID == other.ProductID &&
		r.AuthorKey() == other.AuthorKey() &&
		strings.EqualFold(r.Review, other.Review)
}
