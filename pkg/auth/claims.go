package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

// Claims carries the dashboard profile consumed by the rule engine. The
// service reads these as-is; session lifecycle lives outside this backend.
type Claims struct {
	UserID             uuid.UUID  `json:"uid"`
	Name               string     `json:"name"`
	Role               enums.Role `json:"role"`
	Department         string     `json:"department,omitempty"`
	ProductionSubstage string     `json:"production_substage,omitempty"`
	IsAdmin            bool       `json:"is_admin"`
	jwt.RegisteredClaims
}
