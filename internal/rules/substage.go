package rules

import (
	"fmt"
	"strings"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
)

// SequenceFor returns the production station sequence applied to the item:
// the admin-attached custom sequence when present, otherwise the stock one.
func SequenceFor(item *models.OrderItem) []string {
	if item != nil && len(item.SubstageSequence) > 0 {
		return item.SubstageSequence
	}
	sequence := make([]string, 0, len(enums.DefaultProductionSequence))
	for _, station := range enums.DefaultProductionSequence {
		sequence = append(sequence, station.String())
	}
	return sequence
}

// NextSubstage resolves the station after current in the sequence. final is
// true when current is the last station, in which case next is empty and the
// item should auto-transition to dispatch.
func NextSubstage(sequence []string, current string) (next string, final bool, err error) {
	if len(sequence) == 0 {
		return "", false, errors.New(errors.CodeValidation, "substage sequence is empty")
	}
	for i, station := range sequence {
		if strings.EqualFold(station, strings.TrimSpace(current)) {
			if i == len(sequence)-1 {
				return "", true, nil
			}
			return sequence[i+1], false, nil
		}
	}
	return "", false, errors.New(errors.CodeStateConflict,
		fmt.Sprintf("substage %q is not part of the configured sequence", current)).
		WithDetails(map[string]any{"substage": current, "sequence": sequence})
}

// FirstSubstage is the entry station for an item entering production.
func FirstSubstage(sequence []string) (string, error) {
	if len(sequence) == 0 {
		return "", errors.New(errors.CodeValidation, "substage sequence is empty")
	}
	return sequence[0], nil
}
