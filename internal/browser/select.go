package browser

import (
	"fmt"
	"strconv"
)

// SelectBy is how a dropdown option is picked
type SelectBy string

// Selection modes accepted by ParseSelectBy, matched exactly
const (
	SelectByVisibleText SelectBy = "visible_text"
	SelectByIndex       SelectBy = "index"
	SelectByValue       SelectBy = "value"
)

// ParseSelectBy validates a selection mode and, for index selection, the value
func ParseSelectBy(mode, value string) (SelectBy, error) {
	by := SelectBy(mode)
	switch by {
	case SelectByVisibleText, SelectByValue:
		return by, nil
	case SelectByIndex:
		if _, err := strconv.Atoi(value); err != nil {
			return "", fmt.Errorf("%w: index %q is not a number", ErrInvalidArgument, value)
		}
		return by, nil
	default:
		return "", fmt.Errorf("%w: invalid select mode %q, valid values are 'visible_text', 'index', or 'value'", ErrInvalidArgument, mode)
	}
}

// Option is a dropdown entry
type Option struct {
	Value string
	Text  string
}
