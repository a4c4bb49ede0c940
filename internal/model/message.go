package model

import (
	"time"
)

// Message kinds. A photo message carries an image URL instead of text content.
const (
	MessageKindText  = "text"
	MessageKindPhoto = "photo"
)

// Message 消息模型
type Message struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID   string `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	GroupID  string `gorm:"index;not null;type:varchar(64)" json:"group_id"`
	Kind     string `gorm:"not null;type:varchar(16)" json:"kind"`
	Content  string `gorm:"type:text" json:"content"`
	ImageURL string `gorm:"type:text" json:"image_url,omitempty"`
	SeqID    int64  `gorm:"index;not null" json:"seq_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
