// Package utils provides small helpers with no domain knowledge. The HTTP
// layer uses them to read optional numeric query parameters.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// plain integer. Input is not trimmed; " 42" yields the default.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
