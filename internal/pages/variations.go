package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	variationsTable      = browser.CSS("table.variations")
	variationLabelCells  = browser.CSS("table.variations tr th.label")
	colorAttributeLabel  = browser.CSS(`table.variations tr th.label label[for="pa_color"]`)
	logoAttributeLabel   = browser.CSS(`table.variations tr th.label label[for="logo"], table.variations tr th.label label[for="attribute_logo"]`)
	colorDropdown        = browser.CSS(`table.variations tr select[name="attribute_pa_color"]`)
	colorDropdownOptions = browser.CSS(`table.variations tr select[name="attribute_pa_color"] option`)
	logoDropdown         = browser.CSS("table.variations tr select#logo")
	logoDropdownOptions  = browser.CSS(`table.variations tr select[name="attribute_logo"] option`)
	resetVariations      = browser.CSS("table.variations a.reset_variations")
)

// variationsTimeout covers variation forms rendered late by theme scripts
const variationsTimeout = 15 * time.Second

// ColorLabel returns the Color attribute label
func (p *ProductPage) ColorLabel() (string, error) {
	return p.wait.WaitAndGetText(colorAttributeLabel, 0)
}

// LogoLabel finds the Logo attribute label. Themes render the label cell in
// more than one way, so the cells are scanned for the text before falling back
// to the label element itself.
func (p *ProductPage) LogoLabel() (string, error) {
	if _, err := p.wait.WaitUntilVisible(browser.ByLocator(variationsTable), variationsTimeout); err != nil {
		return "", err
	}
	cells, err := p.session.FindElements(variationLabelCells)
	if err != nil {
		return "", err
	}
	for _, cell := range cells {
		text, err := cell.Text()
		if err == nil && strings.Contains(text, "Logo") {
			return "Logo", nil
		}
	}
	return p.wait.WaitAndGetText(logoAttributeLabel, 0)
}

// ColorOptions returns the value and text of each color option
func (p *ProductPage) ColorOptions() ([]browser.Option, error) {
	return p.wait.WaitAndGetDropdownOptions(colorDropdownOptions, "value", 0)
}

// LogoOptions returns the value and text of each logo option
func (p *ProductPage) LogoOptions() ([]browser.Option, error) {
	return p.wait.WaitAndGetDropdownOptions(logoDropdownOptions, "value", 0)
}

// SelectColor picks a color by its visible text
func (p *ProductPage) SelectColor(text string) error {
	return p.wait.WaitAndSelectDropdown(colorDropdown, text, string(browser.SelectByVisibleText), 0)
}

// SelectLogo picks a logo option by its visible text
func (p *ProductPage) SelectLogo(text string) error {
	return p.wait.WaitAndSelectDropdown(logoDropdown, text, string(browser.SelectByVisibleText), 0)
}

// SelectedColor returns the selected color
func (p *ProductPage) SelectedColor() (string, error) {
	return p.wait.WaitAndGetSelectedOptionText(colorDropdown, 0)
}

// SelectedLogo returns the selected logo option
func (p *ProductPage) SelectedLogo() (string, error) {
	return p.wait.WaitAndGetSelectedOptionText(logoDropdown, 0)
}

// SelectColorAndVerify selects a color and checks the dropdown shows it
func (p *ProductPage) SelectColorAndVerify(text string) error {
	return selectAndVerify(text, p.SelectColor, p.SelectedColor)
}

// SelectLogoAndVerify selects a logo option and checks the dropdown shows it
func (p *ProductPage) SelectLogoAndVerify(text string) error {
	return selectAndVerify(text, p.SelectLogo, p.SelectedLogo)
}

func selectAndVerify(want string, sel func(string) error, selected func() (string, error)) error {
	if err := sel(want); err != nil {
		return err
	}
	got, err := selected()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: expected %q to be selected but found %q", ErrUnexpectedContent, want, got)
	}
	return nil
}

// ResetVariations clears every variation selection
func (p *ProductPage) ResetVariations() error {
	return p.wait.WaitAndClick(resetVariations, 0)
}
