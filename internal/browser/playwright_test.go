package browser

import (
	"errors"
	"testing"
)

func TestSelectorFor(t *testing.T) {
	tests := []struct {
		loc     Locator
		want    string
		wantErr bool
	}{
		{loc: CSS("form.cart button[type=\"submit\"]"), want: `css=form.cart button[type="submit"]`},
		{loc: ID("billing-first_name"), want: `css=[id="billing-first_name"]`},
		{loc: Name("attribute_logo"), want: `css=[name="attribute_logo"]`},
		{loc: XPath("//h1"), want: "xpath=//h1"},
		{loc: TagName("h1"), want: "css=h1"},
		{loc: LinkText("View cart"), want: `css=a:text-is("View cart")`},
		{loc: PartialLinkText("Account details"), want: `css=a:has-text("Account details")`},
		{loc: Locator{Strategy: "shadow", Selector: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.loc.Strategy), func(t *testing.T) {
			got, err := selectorFor(tt.loc)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("selectorFor(%v) = %q, want %q", tt.loc, got, tt.want)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantStale bool
	}{
		{"nil", nil, false},
		{"detached", errors.New("elementHandle.click: Element is not attached to the DOM"), true},
		{"disposed", errors.New("JSHandle is disposed"), true},
		{"navigation", errors.New("Execution context was destroyed, most likely because of a navigation"), true},
		{"timeout", errors.New("Timeout 5000ms exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("translate(nil) = %v", got)
				}
				return
			}
			if errors.Is(got, ErrStaleReference) != tt.wantStale {
				t.Errorf("translate(%q) stale = %v, want %v", tt.err, !tt.wantStale, tt.wantStale)
			}
		})
	}
}
