package browser

import "fmt"

type targetKind int

const (
	targetLocator targetKind = iota
	targetReference
)

// Target is either a Locator to resolve or an Element already in hand.
// Build one with ByLocator or ByReference.
type Target struct {
	kind    targetKind
	locator Locator
	element Element
}

// ByLocator targets whatever loc matches at each check
func ByLocator(loc Locator) Target {
	return Target{kind: targetLocator, locator: loc}
}

// ByReference targets an element already found
func ByReference(el Element) Target {
	return Target{kind: targetReference, element: el}
}

// String describes the target for timeout messages
func (t Target) String() string {
	if t.kind == targetReference {
		return fmt.Sprintf("element %v", t.element)
	}
	return t.locator.String()
}
