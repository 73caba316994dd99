package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// Fold normalises a name for case-insensitive uniqueness checks.
// Class names and usernames are compared by their folded form.
func Fold(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}
