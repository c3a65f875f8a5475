package browser

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/ssqa/storefront/internal/config"
)

// actionTimeout bounds a single playwright action so that waits stay in
// charge of how long the suite blocks
const actionTimeout = 5 * time.Second

// displayedScript approximates WebDriver's "is displayed": an <option> is as
// visible as its <select>, everything else needs a box and visible style.
const displayedScript = `e => {
	const el = (e.tagName === 'OPTION' && e.closest('select')) || e;
	for (let n = el; n; n = n.parentElement) {
		const s = getComputedStyle(n);
		if (s.display === 'none') return false;
	}
	const s = getComputedStyle(el);
	if (s.visibility === 'hidden' || s.visibility === 'collapse' || s.opacity === '0') return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

// attributeScript reads a DOM property when it is a scalar and the attribute
// otherwise, which is what WebDriver's getAttribute does
const attributeScript = `(e, name) => {
	const v = e[name];
	if (v === undefined || v === null || typeof v === 'object' || typeof v === 'function') {
		return e.getAttribute(name);
	}
	return String(v);
}`

const selectedTextScript = `e => e.selectedIndex >= 0 ? e.options[e.selectedIndex].text : ''`

// Runtime is a running playwright instance and one launched browser
type Runtime struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// Launch starts playwright and the browser named by cfg
func Launch(cfg config.BrowserConfig) (*Runtime, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var engine playwright.BrowserType
	switch cfg.Engine {
	case config.EngineFirefox:
		engine = pw.Firefox
	case config.EngineWebKit:
		engine = pw.WebKit
	default:
		engine = pw.Chromium
	}

	b, err := engine.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", cfg.Engine, err)
	}

	log.Printf("Launched %s (headless=%v)", cfg.Engine, cfg.Headless)
	return &Runtime{pw: pw, browser: b}, nil
}

// NewSession opens a fresh browser context so sessions never share cookies
func (r *Runtime) NewSession(baseURL string, opts ...WaitOption) (*Session, error) {
	bctx, err := r.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(actionTimeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	d := &pwDriver{context: bctx, page: page}
	page.OnDialog(d.setDialog)

	return NewSession(d, baseURL, opts...), nil
}

// Stop closes the browser and playwright
func (r *Runtime) Stop() error {
	if err := r.browser.Close(); err != nil {
		r.pw.Stop()
		return err
	}
	return r.pw.Stop()
}

type pwDriver struct {
	context playwright.BrowserContext
	page    playwright.Page

	mu     sync.Mutex
	dialog playwright.Dialog
}

func (d *pwDriver) setDialog(dialog playwright.Dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialog = dialog
}

func (d *pwDriver) takeDialog() (playwright.Dialog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil {
		return nil, ErrNoAlert
	}
	dialog := d.dialog
	d.dialog = nil
	return dialog, nil
}

func (d *pwDriver) Navigate(rawURL string) error {
	if _, err := d.page.Goto(rawURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}
	return nil
}

func (d *pwDriver) CurrentURL() (string, error) {
	return d.page.URL(), nil
}

func (d *pwDriver) FindElements(loc Locator) ([]Element, error) {
	selector, err := selectorFor(loc)
	if err != nil {
		return nil, err
	}
	handles, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, translate(err)
	}
	return wrapHandles(handles), nil
}

func (d *pwDriver) ExecuteScript(script string, arg any) (any, error) {
	if el, ok := arg.(*pwElement); ok {
		arg = el.handle
	}
	result, err := d.page.Evaluate(script, arg)
	return result, translate(err)
}

func (d *pwDriver) Cookies() ([]*http.Cookie, error) {
	cookies, err := d.context.Cookies(d.page.URL())
	if err != nil {
		return nil, err
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, cookie)
	}
	return out, nil
}

func (d *pwDriver) AddCookie(c *http.Cookie) error {
	current, err := url.Parse(d.page.URL())
	if err != nil || current.Hostname() == "" {
		return fmt.Errorf("cannot add cookie %s: no page loaded", c.Name)
	}

	path := c.Path
	if path == "" {
		path = "/"
	}
	cookie := playwright.OptionalCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   playwright.String(current.Hostname()),
		Path:     playwright.String(path),
		Secure:   playwright.Bool(c.Secure),
		HttpOnly: playwright.Bool(c.HttpOnly),
	}
	if !c.Expires.IsZero() {
		cookie.Expires = playwright.Float(float64(c.Expires.Unix()))
	}
	return d.context.AddCookies([]playwright.OptionalCookie{cookie})
}

func (d *pwDriver) Screenshot() ([]byte, error) {
	return d.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (d *pwDriver) AlertText() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil {
		return "", ErrNoAlert
	}
	return d.dialog.Message(), nil
}

func (d *pwDriver) AcceptAlert() error {
	dialog, err := d.takeDialog()
	if err != nil {
		return err
	}
	return dialog.Accept()
}

func (d *pwDriver) DismissAlert() error {
	dialog, err := d.takeDialog()
	if err != nil {
		return err
	}
	return dialog.Dismiss()
}

func (d *pwDriver) Quit() error {
	return d.context.Close()
}

type pwElement struct {
	handle playwright.ElementHandle
}

func wrapHandles(handles []playwright.ElementHandle) []Element {
	els := make([]Element, 0, len(handles))
	for _, h := range handles {
		els = append(els, &pwElement{handle: h})
	}
	return els
}

func (e *pwElement) Click() error {
	return translate(e.handle.Click())
}

func (e *pwElement) SendKeys(text string) error {
	return translate(e.handle.Type(text))
}

func (e *pwElement) Clear() error {
	return translate(e.handle.Fill(""))
}

func (e *pwElement) Text() (string, error) {
	text, err := e.handle.InnerText()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(text), nil
}

func (e *pwElement) Attribute(name string) (string, error) {
	v, err := e.handle.Evaluate(attributeScript, name)
	if err != nil {
		return "", translate(err)
	}
	s, _ := v.(string)
	return s, nil
}

func (e *pwElement) IsDisplayed() (bool, error) {
	v, err := e.handle.Evaluate(displayedScript)
	if err != nil {
		return false, translate(err)
	}
	shown, _ := v.(bool)
	return shown, nil
}

func (e *pwElement) IsEnabled() (bool, error) {
	enabled, err := e.handle.IsEnabled()
	return enabled, translate(err)
}

func (e *pwElement) FindElements(loc Locator) ([]Element, error) {
	selector, err := selectorFor(loc)
	if err != nil {
		return nil, err
	}
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, translate(err)
	}
	return wrapHandles(handles), nil
}

func (e *pwElement) Select(by SelectBy, value string) error {
	var values playwright.SelectOptionValues
	switch by {
	case SelectByVisibleText:
		values.Labels = &[]string{value}
	case SelectByValue:
		values.Values = &[]string{value}
	case SelectByIndex:
		index, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: index %q is not a number", ErrInvalidArgument, value)
		}
		values.Indexes = &[]int{index}
	default:
		return fmt.Errorf("%w: invalid select mode %q", ErrInvalidArgument, by)
	}
	_, err := e.handle.SelectOption(values)
	return translate(err)
}

func (e *pwElement) SelectedOptionText() (string, error) {
	v, err := e.handle.Evaluate(selectedTextScript)
	if err != nil {
		return "", translate(err)
	}
	s, _ := v.(string)
	return strings.TrimSpace(s), nil
}

// selectorFor maps a Locator onto a playwright selector
func selectorFor(loc Locator) (string, error) {
	switch loc.Strategy {
	case ByCSS, ByTagName:
		return "css=" + loc.Selector, nil
	case ByID:
		return "css=[id=" + strconv.Quote(loc.Selector) + "]", nil
	case ByName:
		return "css=[name=" + strconv.Quote(loc.Selector) + "]", nil
	case ByXPath:
		return "xpath=" + loc.Selector, nil
	case ByLinkText:
		return "css=a:text-is(" + strconv.Quote(loc.Selector) + ")", nil
	case ByPartialLinkText:
		return "css=a:has-text(" + strconv.Quote(loc.Selector) + ")", nil
	default:
		return "", fmt.Errorf("%w: unsupported locator strategy %q", ErrInvalidArgument, loc.Strategy)
	}
}

// translate maps playwright's detached-node errors onto ErrStaleReference
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range []string{
		"not attached to the DOM",
		"Element is not attached",
		"JSHandle is disposed",
		"Execution context was destroyed",
		"Cannot find context with specified id",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrStaleReference, err)
		}
	}
	return err
}
