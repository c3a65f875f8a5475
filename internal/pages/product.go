package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	productTitle             = browser.CSS("div.entry-summary h1.product_title.entry-title")
	productImageMain         = browser.CSS("div.woocommerce-product-gallery__image img")
	productAlternateImages   = browser.CSS("div.woocommerce-product-gallery.images ol.flex-control-thumbs li img")
	productShortDescription  = browser.CSS("div.entry-summary div.woocommerce-product-details__short-description")
	productPrice             = browser.CSS("div.entry-summary p.price")
	productAddToCartButton   = browser.CSS(`form.cart button[type="submit"]`)
	productViewCartInMessage = browser.CSS(`div.woocommerce-message[role="alert"] a.button.wc-forward`)
	productCartLinks         = browser.CSS(`a[href*="cart"]`)
	productQuantityField     = browser.CSS("form.cart div.quantity input.input-text.qty")
	productSKU               = browser.CSS("div.product_meta span.sku_wrapper")
	productCategory          = browser.CSS("div.product_meta span.posted_in")
	productDescription       = browser.CSS("div#tab-description p")
	productDescriptionHeader = browser.CSS("div#tab-description h2")
	relatedProductsHeader    = browser.CSS("section.related.products > h2")
	relatedProductsList      = browser.CSS("section.related.products ul li.type-product")
	productTabs              = browser.CSS("div.woocommerce-tabs ul.tabs.wc-tabs li")
	additionalInfoTabLink    = browser.CSS(`div.woocommerce-tabs ul.tabs li a[href="#tab-additional_information"]`)
	additionalInfoContent    = browser.CSS("div#tab-additional_information")
	productBreadcrumb        = browser.CSS("nav.woocommerce-breadcrumb")
	saleBadge                = browser.CSS("span.onsale")
	pageBody                 = browser.TagName("body")
)

const inRelatedProductsScript = `el => el.closest('section.related') !== null`

// ProductPage is a single product detail page
type ProductPage struct {
	page
}

// NewProductPage creates a new product page
func NewProductPage(s *browser.Session) *ProductPage {
	return &ProductPage{page: newPage(s)}
}

// GoTo opens the product with the given slug
func (p *ProductPage) GoTo(slug string) error {
	return p.session.Open("/product/" + slug + "/")
}

// Name returns the product title
func (p *ProductPage) Name() (string, error) {
	return p.wait.WaitAndGetText(productTitle, 0)
}

// MainImageURL prefers data-src, which lazy-loading themes fill before src
func (p *ProductPage) MainImageURL() (string, error) {
	img, err := p.wait.WaitUntilVisible(browser.ByLocator(productImageMain), 0)
	if err != nil {
		return "", err
	}
	src, err := img.Attribute("data-src")
	if err != nil || src != "" {
		return src, err
	}
	return img.Attribute("src")
}

// AlternateImageURLs returns the src of each gallery thumbnail
func (p *ProductPage) AlternateImageURLs() ([]string, error) {
	imgs, err := p.wait.WaitUntilAllVisible(productAlternateImages, 0)
	if err != nil {
		return nil, err
	}
	srcs := make([]string, 0, len(imgs))
	for _, img := range imgs {
		src, err := img.Attribute("src")
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

// ShortDescription returns the summary under the price
func (p *ProductPage) ShortDescription() (string, error) {
	return p.wait.WaitAndGetText(productShortDescription, 0)
}

// Price returns the displayed price text
func (p *ProductPage) Price() (string, error) {
	return p.wait.WaitAndGetText(productPrice, 0)
}

// PriceHTML returns the price markup, which distinguishes sale and regular prices
func (p *ProductPage) PriceHTML() (string, error) {
	els, err := p.wait.WaitAndGetElements(productPrice, 0, "")
	if err != nil {
		return "", err
	}
	return els[0].Attribute("innerHTML")
}

// IsAddToCartButtonVisible reports whether Add to cart shows
func (p *ProductPage) IsAddToCartButtonVisible() (bool, error) {
	return p.wait.Exists(productAddToCartButton, 0)
}

// ClickAddToCart clicks Add to cart
func (p *ProductPage) ClickAddToCart() error {
	return p.wait.WaitAndClick(productAddToCartButton, 0)
}

// ViewCartLink returns the "View cart" link of the add-to-cart notice. Themes
// style that link differently, so when the usual selector never shows, any
// visible cart link whose text mentions the cart is accepted.
func (p *ProductPage) ViewCartLink() (browser.Element, error) {
	link, err := p.wait.WaitUntilVisible(browser.ByLocator(productViewCartInMessage), 0)
	if err == nil || !errors.Is(err, browser.ErrTimeout) {
		return link, err
	}

	links, findErr := p.session.FindElements(productCartLinks)
	if findErr != nil {
		return nil, err
	}
	for _, l := range links {
		shown, derr := l.IsDisplayed()
		if derr != nil || !shown {
			continue
		}
		text, terr := l.Text()
		if terr != nil {
			continue
		}
		text = strings.ToLower(text)
		if strings.Contains(text, "view") || strings.Contains(text, "cart") {
			return l, nil
		}
	}
	return nil, err
}

// ClickViewCart follows the View cart link of the add-to-cart notice
func (p *ProductPage) ClickViewCart() error {
	link, err := p.ViewCartLink()
	if err != nil {
		return err
	}
	return link.Click()
}

// SetQuantity replaces the quantity before adding to cart
func (p *ProductPage) SetQuantity(qty int) error {
	return p.wait.WaitAndClearAndInputText(productQuantityField, strconv.Itoa(qty), 0)
}

// Breadcrumb returns text like "Home / Clothing / Accessories / Beanie"
func (p *ProductPage) Breadcrumb() (string, error) {
	return p.wait.WaitAndGetText(productBreadcrumb, 0)
}

// mainSaleBadge finds the displayed sale badge of the main product, skipping
// the badges of related products. nil means there is none.
func (p *ProductPage) mainSaleBadge() (browser.Element, error) {
	badges, err := p.wait.WaitAndGetElements(saleBadge, fieldCheckTimeout, "")
	if errors.Is(err, browser.ErrTimeout) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, badge := range badges {
		shown, err := badge.IsDisplayed()
		if err != nil || !shown {
			continue
		}
		related, err := p.session.ExecuteScript(inRelatedProductsScript, badge)
		if err != nil {
			continue
		}
		if inRelated, _ := related.(bool); !inRelated {
			return badge, nil
		}
	}
	return nil, nil
}

// IsSaleBadgeVisible reports whether the main product shows a sale badge
func (p *ProductPage) IsSaleBadgeVisible() (bool, error) {
	badge, err := p.mainSaleBadge()
	return badge != nil, err
}

// SaleBadgeText returns "" when the main product has no badge
func (p *ProductPage) SaleBadgeText() (string, error) {
	badge, err := p.mainSaleBadge()
	if badge == nil || err != nil {
		return "", err
	}
	return badge.Text()
}

// SKU returns the label and value, e.g. "SKU: woo-beanie"
func (p *ProductPage) SKU() (string, error) {
	return p.wait.WaitAndGetText(productSKU, 0)
}

// Category returns the label and values, e.g. "Category: Accessories"
func (p *ProductPage) Category() (string, error) {
	return p.wait.WaitAndGetText(productCategory, 0)
}

// Description returns the first description paragraph
func (p *ProductPage) Description() (string, error) {
	return p.wait.WaitAndGetText(productDescription, 0)
}

// FullDescription joins every description paragraph without separators, the
// way the API's HTML reads once tags are stripped
func (p *ProductPage) FullDescription() (string, error) {
	els, err := p.wait.WaitAndGetElements(productDescription, 0, "")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// DescriptionHeader returns the heading of the Description tab
func (p *ProductPage) DescriptionHeader() (string, error) {
	return p.wait.WaitAndGetText(productDescriptionHeader, 0)
}

// RelatedProductsHeader returns the heading of the related products section
func (p *ProductPage) RelatedProductsHeader() (string, error) {
	return p.wait.WaitAndGetText(relatedProductsHeader, 0)
}

// RelatedProducts returns the related product tiles
func (p *ProductPage) RelatedProducts() ([]browser.Element, error) {
	return p.wait.WaitUntilAllVisible(relatedProductsList, 0)
}

// TabLabels returns labels like "Description" and "Reviews (0)"
func (p *ProductPage) TabLabels() ([]string, error) {
	tabs, err := p.wait.WaitUntilAllVisible(productTabs, 0)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		text, err := tab.Text()
		if err != nil {
			return nil, err
		}
		labels = append(labels, text)
	}
	return labels, nil
}

// ClickAdditionalInformationTab opens the Additional information tab
func (p *ProductPage) ClickAdditionalInformationTab() error {
	return p.wait.WaitAndClick(additionalInfoTabLink, 0)
}

// AdditionalInformation returns the text of the Additional information tab
func (p *ProductPage) AdditionalInformation() (string, error) {
	return p.wait.WaitAndGetText(additionalInfoContent, 0)
}

// AlertText returns the message of the open browser dialog
func (p *ProductPage) AlertText() (string, error) {
	return p.session.AlertText()
}

// DismissAlertIfPresent accepts an open dialog such as "Please select a rating"
func (p *ProductPage) DismissAlertIfPresent() error {
	err := p.session.AcceptAlert()
	if errors.Is(err, browser.ErrNoAlert) {
		return nil
	}
	return err
}

func (p *ProductPage) bodyText() (string, error) {
	els, err := p.session.FindElements(pageBody)
	if err != nil {
		return "", err
	}
	if len(els) == 0 {
		return "", fmt.Errorf("%w: page has no body", ErrUnexpectedContent)
	}
	return els[0].Text()
}
