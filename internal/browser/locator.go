package browser

import "fmt"

// Strategy is how a Locator selector is interpreted
type Strategy string

// Locator strategies
const (
	ByCSS             Strategy = "css selector"
	ByID              Strategy = "id"
	ByXPath           Strategy = "xpath"
	ByName            Strategy = "name"
	ByTagName         Strategy = "tag name"
	ByLinkText        Strategy = "link text"
	ByPartialLinkText Strategy = "partial link text"
)

// Locator finds elements on a page. Locators are plain values and are safe to
// declare once per page region.
type Locator struct {
	Strategy Strategy
	Selector string
}

// CSS locates elements by CSS selector
func CSS(selector string) Locator { return Locator{Strategy: ByCSS, Selector: selector} }

// ID locates an element by its id attribute
func ID(id string) Locator { return Locator{Strategy: ByID, Selector: id} }

// XPath locates elements by XPath expression
func XPath(expr string) Locator { return Locator{Strategy: ByXPath, Selector: expr} }

// Name locates elements by their name attribute
func Name(name string) Locator { return Locator{Strategy: ByName, Selector: name} }

// TagName locates elements by tag
func TagName(tag string) Locator { return Locator{Strategy: ByTagName, Selector: tag} }

// LinkText locates links by their exact text
func LinkText(text string) Locator { return Locator{Strategy: ByLinkText, Selector: text} }

// PartialLinkText locates links whose text contains text
func PartialLinkText(text string) Locator {
	return Locator{Strategy: ByPartialLinkText, Selector: text}
}

// Child narrows a CSS locator to descendants matching selector
func (l Locator) Child(selector string) Locator {
	return Locator{Strategy: l.Strategy, Selector: l.Selector + " " + selector}
}

// String renders the locator as (strategy, "selector")
func (l Locator) String() string {
	return fmt.Sprintf("(%s, %q)", l.Strategy, l.Selector)
}
