package model

import "time"

// Notification 群组通知持久化记录
type Notification struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID string `gorm:"index;not null;type:varchar(64)" json:"group_id"`
	Title   string `gorm:"not null;type:varchar(255)" json:"title"`
	Body    string `gorm:"type:text;not null" json:"body"`
	Payload string `gorm:"type:text" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
