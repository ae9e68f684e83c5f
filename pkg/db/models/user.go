package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

// User is a dashboard profile. Department and ProductionSubstage drive
// visibility; IsAdmin is cross-cutting.
type User struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string     `gorm:"column:name;type:text;not null"`
	Email              string     `gorm:"column:email;type:text;not null;uniqueIndex:ux_users_email"`
	Role               enums.Role `gorm:"column:role;type:text;not null"`
	Department         *string    `gorm:"column:department;type:text"`
	ProductionSubstage *string    `gorm:"column:production_substage;type:text"`
	IsAdmin            bool       `gorm:"column:is_admin;not null;default:false"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
