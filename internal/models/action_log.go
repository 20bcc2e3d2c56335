package models

import "time"

type ActionType string

const (
	ActionCreate       ActionType = "create"
	ActionUpdate       ActionType = "update"
	ActionDelete       ActionType = "delete"
	ActionStatusChange ActionType = "status_change"
)

// ActionLog records a mutation an operator performed through the dashboard.
type ActionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	KiosID *uint `gorm:"index" json:"kios_id"`

	UserID   uint     `gorm:"index" json:"user_id"`
	UserName string   `gorm:"size:100" json:"user_name"`
	UserRole UserRole `gorm:"size:20" json:"user_role"`

	// "order", "menu", "kios"
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      ActionType `gorm:"size:20" json:"action"`
	Description string     `gorm:"size:255" json:"description"`

	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`

	RequestID string `gorm:"size:64" json:"request_id"`
}
