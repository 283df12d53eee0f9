package tools

import (
	"strings"
)

// CleanName cuts a scraped label at the first NUL and collapses every run of
// whitespace (including non-breaking spaces) into a single space.
func CleanName(tmp string) string {
	nulPosition := strings.Index(tmp, "\u0000")
	if nulPosition != -1 {
		tmp = tmp[:nulPosition]
	}

	return strings.Join(strings.Fields(tmp), " ")
}
