package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ssqa/storefront/internal/models"
)

// Review submission errors, worded as the store shows them
var (
	ErrReviewTooFast   = errors.New("You are posting comments too quickly. Slow down.")
	ErrDuplicateReview = errors.New("Duplicate comment detected; it looks as though you’ve already said that!")
)

// DefaultFloodInterval is the least time between two reviews of one author
const DefaultFloodInterval = 15 * time.Second

// ReviewStore persists reviews
type ReviewStore interface {
	AddReview(review *models.Review) *models.Review
	Reviews(productID int64, includeHeld bool) []*models.Review
	DeleteReview(id int64) (*models.Review, error)
}

// ReviewService handles product reviews
type ReviewService interface {
	// Submit posts a shopper's review. New authors and reviews with links
	// are held for moderation.
	Submit(productID int64, reviewer, email, text string, rating int) (*models.Review, error)
	// Create stores an approved review without flood or moderation checks
	Create(productID int64, reviewer, email, text string, rating int) (*models.Review, error)
	// Visible returns the approved reviews plus those held for authorKey
	Visible(productID int64, authorKey string) []*models.Review
	List(productID int64) []*models.Review
	Delete(id int64) (*models.Review, error)
}

// ReviewServiceImpl implements ReviewService
type ReviewServiceImpl struct {
	store         ReviewStore
	floodInterval time.Duration
	now           func() time.Time

	mu       sync.Mutex
	lastPost map[string]time.Time
}

// NewReviewService creates a new review service
func NewReviewService(store ReviewStore, floodInterval time.Duration) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		store:         store,
		floodInterval: floodInterval,
		now:           time.Now,
		lastPost:      make(map[string]time.Time),
	}
}

// Submit handles a review posted from the storefront form
func (s *ReviewServiceImpl) Submit(productID int64, reviewer, email, text string, rating int) (*models.Review, error) {
	review, err := models.NewReview(productID, reviewer, email, text, rating)
	if err != nil {
		return nil, err
	}
	now := s.now()
	review.CreatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.store.Reviews(0, true)
	for _, r := range existing {
		if r.SameAs(review) {
			return nil, ErrDuplicateReview
		}
	}
	key := review.AuthorKey()
	if last, ok := s.lastPost[key]; ok && now.Sub(last) < s.floodInterval {
		return nil, ErrReviewTooFast
	}

	if needsModeration(review, existing) {
		review.Hold()
	}
	s.lastPost[key] = now
	return s.store.AddReview(review), nil
}

// needsModeration holds reviews with links and reviews by authors without an
// approved review
func needsModeration(review *models.Review, existing []*models.Review) bool {
	text := strings.ToLower(review.Review)
	if strings.Contains(text, "http://") || strings.Contains(text, "https://") || strings.Contains(text, "<a ") {
		return true
	}
	for _, r := range existing {
		if r.IsApproved() && r.AuthorKey() == review.AuthorKey() {
			return false
		}
	}
	return true
}

// Create stores an approved review, as the REST API does
func (s *ReviewServiceImpl) Create(productID int64, reviewer, email, text string, rating int) (*models.Review, error) {
	review, err := models.NewReview(productID, reviewer, email, text, rating)
	if err != nil {
		return nil, err
	}
	return s.store.AddReview(review), nil
}

// Visible returns the approved reviews plus those held for authorKey
func (s *ReviewServiceImpl) Visible(productID int64, authorKey string) []*models.Review {
	authorKey = strings.ToLower(authorKey)
	var visible []*models.Review
	for _, r := range s.store.Reviews(productID, true) {
		if r.IsApproved() || (authorKey != "" && r.AuthorKey() == authorKey) {
			visible = append(visible, r)
		}
	}
	return visible
}

// List returns every review of the product, held ones included
func (s *ReviewServiceImpl) List(productID int64) []*models.Review {
	return s.store.Reviews(productID, true)
}

// Delete removes a review and returns it
func (s *ReviewServiceImpl) Delete(id int64) (*models.Review, error) {
	return s.store.DeleteReview(id)
}
