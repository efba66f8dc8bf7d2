// Package ids parses the integer keys that arrive in paths and bodies.
package ids

import (
	"encoding/json"
	"strconv"
	"strings"

	"backend-snapgraph/internal/apperr"
)

// Parse returns raw as a positive id. Anything else is a validation error
// whose message names the field, e.g. "Invalid user ID".
func Parse(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid " + field + " ID")
	}
	return id, nil
}

// FromNumber accepts ids sent either as JSON numbers or numeric strings.
func FromNumber(n json.Number, field string) (int64, error) {
	return Parse(n.String(), field)
}
