package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lead status values
const (
	LeadStatusNew        = "new"
	LeadStatusInProgress = "in_progress"
	LeadStatusContracted = "contracted"
	LeadStatusCancelled  = "cancelled"
)

// LeadStatuses lists every valid lead status, in lifecycle order.
var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusInProgress,
	LeadStatusContracted,
	LeadStatusCancelled,
}

// Lead represents a sales inquiry captured under a partner's attribution
// code. MarketerCode is fixed at creation and never reassigned.
type Lead struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MarketerCode    string          `gorm:"size:20;not null;index" json:"marketer_code"`
	Status          string          `gorm:"size:20;default:new;index" json:"status"`
	CustomerName    string          `gorm:"size:50" json:"customer_name"`
	ContactPhone    string          `gorm:"size:20" json:"contact_phone"`
	InstallLocation string          `gorm:"size:200" json:"install_location"`
	ServiceType     string          `gorm:"size:50" json:"service_type"`
	QuotedPrice     decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"quoted_price"`
	Memo            string          `gorm:"size:1000" json:"memo,omitempty"`
	SubmittedAt     time.Time       `gorm:"index" json:"submitted_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Derived per request via the scope policy; never persisted.
	CanEdit bool `gorm:"-" json:"can_edit"`
}

// TableName specifies the table name for Lead model
func (Lead) TableName() string {
	return "leads"
}

// IsValidStatus reports whether value is one of the four canonical statuses.
func IsValidStatus(value string) bool {
	for _, s := range LeadStatuses {
		if s == value {
			return true
		}
	}
	return false
}

// NormalizeStatus maps unknown stored status values to "new" at read time.
func NormalizeStatus(value string) string {
	if IsValidStatus(value) {
		return value
	}
	return LeadStatusNew
}
