package rules

import (
	"fmt"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
)

// outsourceTransitions is the allowed-transition table for the vendor
// sub-machine. quality_check -> vendor_in_progress is the QC fail path;
// vendor_in_progress -> outsourced hands the job back before work starts.
// decision_pending is resolved externally into production or dispatch.
var outsourceTransitions = map[enums.OutsourceStage][]enums.OutsourceStage{
	enums.OutsourceStageOutsourced:         {enums.OutsourceStageVendorInProgress},
	enums.OutsourceStageVendorInProgress:   {enums.OutsourceStageVendorDispatched, enums.OutsourceStageOutsourced},
	enums.OutsourceStageVendorDispatched:   {enums.OutsourceStageReceivedFromVendor},
	enums.OutsourceStageReceivedFromVendor: {enums.OutsourceStageQualityCheck},
	enums.OutsourceStageQualityCheck:       {enums.OutsourceStageDecisionPending, enums.OutsourceStageVendorInProgress},
	enums.OutsourceStageDecisionPending:    {},
}

// CanTransitionOutsource reports whether from -> to is in the allowed table.
func CanTransitionOutsource(from, to enums.OutsourceStage) bool {
	for _, candidate := range outsourceTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateOutsourceTransition rejects illegal vendor-stage moves with a typed
// error so the caller leaves the stored stage untouched.
func ValidateOutsourceTransition(from, to enums.OutsourceStage) error {
	if !from.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("unknown outsource stage %q", from))
	}
	if !to.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("unknown outsource stage %q", to))
	}
	if !CanTransitionOutsource(from, to) {
		return errors.New(errors.CodeStateConflict,
			fmt.Sprintf("cannot move outsource stage from %q to %q", from, to)).
			WithDetails(map[string]any{"from": from, "to": to, "allowed": outsourceTransitions[from]})
	}
	return nil
}
