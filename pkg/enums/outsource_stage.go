package enums

import "fmt"

// OutsourceStage tracks an item handed to an external vendor.
type OutsourceStage string

const (
	OutsourceStageOutsourced         OutsourceStage = "outsourced"
	OutsourceStageVendorInProgress   OutsourceStage = "vendor_in_progress"
	OutsourceStageVendorDispatched   OutsourceStage = "vendor_dispatched"
	OutsourceStageReceivedFromVendor OutsourceStage = "received_from_vendor"
	OutsourceStageQualityCheck       OutsourceStage = "quality_check"
	OutsourceStageDecisionPending    OutsourceStage = "decision_pending"
)

var validOutsourceStages = []OutsourceStage{
	OutsourceStageOutsourced,
	OutsourceStageVendorInProgress,
	OutsourceStageVendorDispatched,
	OutsourceStageReceivedFromVendor,
	OutsourceStageQualityCheck,
	OutsourceStageDecisionPending,
}

// String implements fmt.Stringer.
func (o OutsourceStage) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutsourceStage.
func (o OutsourceStage) IsValid() bool {
	for _, candidate := range validOutsourceStages {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutsourceStage converts raw input into an OutsourceStage.
func ParseOutsourceStage(value string) (OutsourceStage, error) {
	for _, candidate := range validOutsourceStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outsource stage %q", value)
}
