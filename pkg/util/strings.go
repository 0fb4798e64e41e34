package util

import "strings"

// NormalizeSymbol uppercases and trims a user-entered trading pair symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
