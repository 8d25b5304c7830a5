package models

import (
	"strings"
	"time"
)

// Partner roles
const (
	RolePartner       = "partner"
	RoleAdministrator = "administrator"
)

// Partner represents a marketing partner account. Partners are joined by
// unique_code, not by the numeric primary key: referrer_code points at the
// recruiting parent's unique_code, and leads are attributed by marketer_code.
type Partner struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniqueCode   string    `gorm:"uniqueIndex;size:20;not null" json:"unique_code"`
	ReferrerCode *string   `gorm:"size:20;index" json:"referrer_code,omitempty"`
	Nickname     string    `gorm:"size:50;not null" json:"nickname"`
	Level        int       `gorm:"default:0" json:"level"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Phone        string    `gorm:"size:20" json:"phone,omitempty"`
	WebhookURL   string    `gorm:"size:500" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Partner model
func (Partner) TableName() string {
	return "partners"
}

// NormalizeCode canonicalizes a partner code. Codes are case-insensitive
// everywhere; the upper-cased form is the canonical one.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RoleForCode derives the account role from the code prefix convention:
// codes beginning with the reserved administrator prefix are administrators.
func RoleForCode(code, adminPrefix string) string {
	if adminPrefix != "" && strings.HasPrefix(NormalizeCode(code), NormalizeCode(adminPrefix)) {
		return RoleAdministrator
	}
	return RolePartner
}
