package enums

import "fmt"

// OrderSource records how an order entered the system.
type OrderSource string

const (
	OrderSourceManual      OrderSource = "manual"
	OrderSourceWooCommerce OrderSource = "woocommerce"
)

// String implements fmt.Stringer.
func (s OrderSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderSource.
func (s OrderSource) IsValid() bool {
	return s == OrderSourceManual || s == OrderSourceWooCommerce
}

// ParseOrderSource converts raw input into an OrderSource.
func ParseOrderSource(value string) (OrderSource, error) {
	switch OrderSource(value) {
	case OrderSourceManual:
		return OrderSourceManual, nil
	case OrderSourceWooCommerce:
		return OrderSourceWooCommerce, nil
	default:
		return "", fmt.Errorf("invalid order source %q", value)
	}
}
