package enums

// Priority is the urgency bucket derived from an item's delivery date.
type Priority string

const (
	PriorityBlue   Priority = "blue"
	PriorityYellow Priority = "yellow"
	PriorityRed    Priority = "red"
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityBlue, PriorityYellow, PriorityRed:
		return true
	default:
		return false
	}
}
