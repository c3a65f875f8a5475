package pages

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	reviewsTabLink         = browser.CSS(`div.woocommerce-tabs ul.tabs li a[href="#tab-reviews"]`)
	reviewsTabContent      = browser.CSS("div#tab-reviews")
	reviewsForm            = browser.CSS("div#tab-reviews form#commentform")
	reviewsRatingSelect    = browser.CSS("div#tab-reviews p.stars select#rating, div#tab-reviews select#rating")
	reviewsRatingStars     = browser.CSS("div#tab-reviews p.stars")
	reviewsComment         = browser.CSS("div#tab-reviews textarea#comment")
	reviewsAuthor          = browser.CSS("div#tab-reviews input#author")
	reviewsEmail           = browser.CSS("div#tab-reviews input#email")
	reviewsSubmit          = browser.CSS("div#tab-reviews input#submit")
	reviewsSaveDetails     = browser.CSS("div#tab-reviews input#comment_form_cookies_consent, div#tab-reviews .comment-form-cookies-consent input")
	reviewsSaveDetailsText = browser.CSS("div#tab-reviews .comment-form-cookies-consent")
	reviewsList            = browser.CSS("div#tab-reviews ol.commentlist li.comment")
	reviewsErrors          = browser.CSS("div#tab-reviews .woocommerce-error, div#tab-reviews .comment-form .error, div#tab-reviews #commentform .error, div#tab-reviews ul.woocommerce-error li")
	reviewsModerationNote  = browser.CSS("div#tab-reviews em.woocommerce-review__awaiting-approval")
)

// ReviewOutcome is what the storefront did with a submitted review
type ReviewOutcome int

const (
	// ReviewUnknown means no known notice appeared
	ReviewUnknown ReviewOutcome = iota
	// ReviewPublished means the review shows in the list
	ReviewPublished
	// ReviewAwaitingModeration means the review was held for approval
	ReviewAwaitingModeration
	// ReviewRateLimited means the site refused a review posted too soon after another
	ReviewRateLimited
	// ReviewRejected means the site or the browser refused the review
	ReviewRejected
)

// String names the outcome
func (o ReviewOutcome) String() string {
	switch o {
	case ReviewPublished:
		return "published"
	case ReviewAwaitingModeration:
		return "awaiting moderation"
	case ReviewRateLimited:
		return "rate limited"
	case ReviewRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ReviewResult is a classified submission and the text it was classified from
type ReviewResult struct {
	Outcome ReviewOutcome
	Message string
}

var (
	rateLimitPhrases  = []string{"posting comments too quickly", "slow down"}
	moderationPhrases = []string{"awaiting approval", "awaiting moderation"}
	rejectionPhrases  = []string{"duplicate comment", "error:", "please type your comment", "please fill the required fields"}
)

// ClickReviewsTab opens the Reviews tab
func (p *ProductPage) ClickReviewsTab() error {
	return p.wait.WaitAndClick(reviewsTabLink, 0)
}

// ReviewsTabContent returns the text of the open Reviews tab
func (p *ProductPage) ReviewsTabContent() (string, error) {
	return p.wait.WaitAndGetText(reviewsTabContent, 0)
}

// IsReviewsTabContentVisible reports whether the Reviews tab content shows
func (p *ProductPage) IsReviewsTabContentVisible() (bool, error) {
	return p.wait.Exists(reviewsTabContent, 5*time.Second)
}

// IsReviewFormVisible reports whether the review form shows
func (p *ProductPage) IsReviewFormVisible() (bool, error) {
	return p.wait.Exists(reviewsForm, 3*time.Second)
}

// IsReviewRatingVisible accepts either the rating select or the star widget
func (p *ProductPage) IsReviewRatingVisible() (bool, error) {
	ok, err := p.wait.Exists(reviewsRatingSelect, fieldCheckTimeout)
	if ok || err != nil {
		return ok, err
	}
	return p.wait.IsDisplayed(reviewsRatingStars)
}

// IsReviewCommentVisible reports whether the review textarea shows
func (p *ProductPage) IsReviewCommentVisible() (bool, error) {
	return p.wait.Exists(reviewsComment, fieldCheckTimeout)
}

// IsReviewAuthorVisible reports whether the name field shows
func (p *ProductPage) IsReviewAuthorVisible() (bool, error) {
	return p.wait.Exists(reviewsAuthor, fieldCheckTimeout)
}

// IsReviewEmailVisible reports whether the email field shows
func (p *ProductPage) IsReviewEmailVisible() (bool, error) {
	return p.wait.Exists(reviewsEmail, fieldCheckTimeout)
}

// IsReviewSubmitVisible reports whether the Submit button shows
func (p *ProductPage) IsReviewSubmitVisible() (bool, error) {
	return p.wait.Exists(reviewsSubmit, fieldCheckTimeout)
}

// IsSaveDetailsCheckboxVisible reports whether the save details consent shows
func (p *ProductPage) IsSaveDetailsCheckboxVisible() (bool, error) {
	return p.wait.Exists(reviewsSaveDetails, fieldCheckTimeout)
}

// SaveDetailsLabel returns the consent label, "" when it is not shown
func (p *ProductPage) SaveDetailsLabel() (string, error) {
	el, err := p.firstDisplayed(reviewsSaveDetailsText)
	if el == nil || err != nil {
		return "", err
	}
	return el.Text()
}

// FillReviewRating picks 1 to 5 stars. Out of range ratings leave the form untouched.
func (p *ProductPage) FillReviewRating(rating int) error {
	if rating < 1 || rating > 5 {
		return nil
	}
	value := strconv.Itoa(rating)

	ok, err := p.wait.Exists(reviewsRatingSelect, fieldCheckTimeout)
	if err != nil {
		return err
	}
	if ok {
		return p.wait.WaitAndSelectDropdown(reviewsRatingSelect, value, string(browser.SelectByValue), 0)
	}

	star, err := p.firstDisplayed(browser.CSS("div#tab-reviews p.stars a.star-" + value))
	if star == nil || err != nil {
		return err
	}
	return star.Click()
}

// FillReviewComment types the review text
func (p *ProductPage) FillReviewComment(text string) error {
	return p.wait.WaitAndInputText(reviewsComment, text, 0)
}

// FillReviewAuthor types the reviewer name
func (p *ProductPage) FillReviewAuthor(name string) error {
	return p.wait.WaitAndInputText(reviewsAuthor, name, 0)
}

// FillReviewEmail types the reviewer email
func (p *ProductPage) FillReviewEmail(email string) error {
	return p.wait.WaitAndInputText(reviewsEmail, email, 0)
}

// SubmitReview clicks Submit
func (p *ProductPage) SubmitReview() error {
	return p.wait.WaitAndClick(reviewsSubmit, 0)
}

// ReviewsValidationText returns the first visible error in the Reviews tab
func (p *ProductPage) ReviewsValidationText() (string, error) {
	els, err := p.session.FindElements(reviewsErrors)
	if err != nil {
		return "", err
	}
	for _, el := range els {
		shown, err := el.IsDisplayed()
		if err != nil || !shown {
			continue
		}
		text, err := el.Text()
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
	}
	return "", nil
}

// ReviewTexts returns the text of each listed review; none is not an error
func (p *ProductPage) ReviewTexts() ([]string, error) {
	els, err := p.wait.WaitAndGetElements(reviewsList, fieldCheckTimeout, "")
	if errors.Is(err, browser.ErrTimeout) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return texts(els)
}

// ReviewsTabLabel returns e.g. "Reviews (2)"
func (p *ProductPage) ReviewsTabLabel() (string, error) {
	labels, err := p.TabLabels()
	if err != nil {
		return "", err
	}
	for _, label := range labels {
		if strings.Contains(strings.ToLower(label), "review") {
			return label, nil
		}
	}
	return "", nil
}

// ReviewSubmissionOutcome waits for the page to settle on one outcome for
// the review whose text is comment. If none shows within timeout the outcome
// is ReviewUnknown.
func (p *ProductPage) ReviewSubmissionOutcome(comment string, timeout time.Duration) (ReviewResult, error) {
	var result ReviewResult
	err := p.wait.Until("review submission outcome", timeout, func() (bool, error) {
		r, err := p.classifyReview(comment)
		if err != nil {
			return false, err
		}
		result = r
		return r.Outcome != ReviewUnknown, nil
	})
	if errors.Is(err, browser.ErrTimeout) {
		return ReviewResult{Outcome: ReviewUnknown}, nil
	}
	return result, err
}

func (p *ProductPage) classifyReview(comment string) (ReviewResult, error) {
	if text, err := p.session.AlertText(); err == nil {
		return ReviewResult{Outcome: ReviewRejected, Message: text}, nil
	}

	body, err := p.bodyText()
	if err != nil {
		return ReviewResult{}, err
	}
	lower := strings.ToLower(body)

	if phrase := firstContained(lower, rateLimitPhrases); phrase != "" {
		return ReviewResult{Outcome: ReviewRateLimited, Message: phrase}, nil
	}

	if note, err := p.firstDisplayed(reviewsModerationNote); err == nil && note != nil {
		text, _ := note.Text()
		return ReviewResult{Outcome: ReviewAwaitingModeration, Message: text}, nil
	}
	if phrase := firstContained(lower, moderationPhrases); phrase != "" {
		return ReviewResult{Outcome: ReviewAwaitingModeration, Message: phrase}, nil
	}

	if msg, err := p.ReviewsValidationText(); err == nil && msg != "" {
		return ReviewResult{Outcome: ReviewRejected, Message: msg}, nil
	}
	if phrase := firstContained(lower, rejectionPhrases); phrase != "" {
		return ReviewResult{Outcome: ReviewRejected, Message: phrase}, nil
	}

	if comment != "" {
		reviews, err := p.session.FindElements(reviewsList)
		if err != nil {
			return ReviewResult{}, err
		}
		for _, r := range reviews {
			text, err := r.Text()
			if err == nil && strings.Contains(text, comment) {
				return ReviewResult{Outcome: ReviewPublished, Message: text}, nil
			}
		}
	}

	return ReviewResult{Outcome: ReviewUnknown}, nil
}

func firstContained(s string, phrases []string) string {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return phrase
		}
	}
	return ""
}
