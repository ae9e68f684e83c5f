package notifications

import (
	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
)

// mergeAudience unions the recipient groups, dropping duplicates and the
// actor who performed the change.
func mergeAudience(actorID uuid.UUID, groups ...[]models.User) []models.User {
	seen := map[uuid.UUID]struct{}{actorID: {}}
	var audience []models.User
	for _, group := range groups {
		for _, user := range group {
			if _, ok := seen[user.ID]; ok {
				continue
			}
			seen[user.ID] = struct{}{}
			audience = append(audience, user)
		}
	}
	return audience
}
