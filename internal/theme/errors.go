package theme

import "fmt"

// ColorError reports a value that is neither a known color name nor a hex color
type ColorError struct {
	Value   string
	Message string
}

func (e *ColorError) Error() string {
	return fmt.Sprintf("color error: %q: %s", e.Value, e.Message)
}
