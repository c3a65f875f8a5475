// Package pages maps storefront business actions onto waited, stale-tolerant
// element interactions. Every page object is built from a *browser.Session and
// looks elements up right before it uses them.
package pages

import (
	"errors"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

// ErrUnexpectedContent is returned when a page renders but shows the wrong thing
var ErrUnexpectedContent = errors.New("unexpected page content")

// fieldCheckTimeout is how long "is it there" checks wait before answering no
var fieldCheckTimeout = 2 * time.Second

// page is embedded by every page object
type page struct {
	session *browser.Session
	wait    *browser.Waiter
}

func newPage(s *browser.Session) page {
	return page{session: s, wait: s.Wait()}
}

// texts reads the text of each element, dropping empty ones
func texts(els []browser.Element) ([]string, error) {
	out := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

// firstDisplayed returns the first displayed element matched by loc, or nil
func (p page) firstDisplayed(loc browser.Locator) (browser.Element, error) {
	els, err := p.session.FindElements(loc)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		shown, err := el.IsDisplayed()
		if errors.Is(err, browser.ErrStaleReference) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if shown {
			return el, nil
		}
	}
	return nil, nil
}
