package enums

import "fmt"

// Stage tracks where an order item currently sits in the shop workflow.
type Stage string

const (
	StageSales      Stage = "sales"
	StageDesign     Stage = "design"
	StagePrepress   Stage = "prepress"
	StageProduction Stage = "production"
	StageOutsource  Stage = "outsource"
	StageDispatch   Stage = "dispatch"
	StageCompleted  Stage = "completed"
)

var validStages = []Stage{
	StageSales,
	StageDesign,
	StagePrepress,
	StageProduction,
	StageOutsource,
	StageDispatch,
	StageCompleted,
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Stage.
func (s Stage) IsValid() bool {
	for _, candidate := range validStages {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStage converts raw input into a Stage.
func ParseStage(value string) (Stage, error) {
	for _, candidate := range validStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stage %q", value)
}
