package woocommerce

import "strings"

// NormalizeOrderNumber reduces an order number to its bare digits so locally
// prefixed numbers ("WC-00123", "MAN-123", "#123") compare equal to the
// remote platform's numeric ids. Leading zeros are dropped; an all-zero or
// digit-free input normalizes to the empty string.
func NormalizeOrderNumber(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return strings.TrimLeft(digits.String(), "0")
}

// SameOrderNumber reports whether two raw order numbers refer to the same
// order after normalization. Two inputs without any digits never match.
func SameOrderNumber(a, b string) bool {
	na, nb := NormalizeOrderNumber(a), NormalizeOrderNumber(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}
