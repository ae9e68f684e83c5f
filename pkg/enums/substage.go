package enums

import (
	"fmt"
	"strings"
)

// Substage is a single station in the production sequence.
type Substage string

const (
	SubstageFoiling     Substage = "foiling"
	SubstagePrinting    Substage = "printing"
	SubstagePasting     Substage = "pasting"
	SubstageCutting     Substage = "cutting"
	SubstageLetterpress Substage = "letterpress"
	SubstageEmbossing   Substage = "embossing"
	SubstagePacking     Substage = "packing"
)

// DefaultProductionSequence is the stock station ordering applied when an item
// enters production without an admin-defined custom sequence.
var DefaultProductionSequence = []Substage{
	SubstageFoiling,
	SubstagePrinting,
	SubstagePasting,
	SubstageCutting,
	SubstageLetterpress,
	SubstageEmbossing,
	SubstagePacking,
}

// String implements fmt.Stringer.
func (s Substage) String() string {
	return string(s)
}

// IsValid reports whether the value is one of the stock stations. Custom
// sequences may carry arbitrary station names, so repositories store substages
// as plain text and only intake paths call IsValid.
func (s Substage) IsValid() bool {
	for _, candidate := range DefaultProductionSequence {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubstage converts raw input into a Substage, ignoring case.
func ParseSubstage(value string) (Substage, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", fmt.Errorf("substage is required")
	}
	return Substage(trimmed), nil
}
