package fieldpath

import "fmt"

// PathError reports a malformed path or a path that cannot be written
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("field path %q: %s", e.Path, e.Message)
}
