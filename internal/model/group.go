package model

import "time"

type Group struct {
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name       string `gorm:"not null;type:varchar(255)" json:"name"`
	CreatedBy  string `gorm:"not null;type:varchar(64)" json:"created_by"`
	InviteCode string `gorm:"uniqueIndex;not null;type:varchar(32)" json:"invite_code"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupMember 群组成员，(group_id, user_id) 唯一
type GroupMember struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID string `gorm:"uniqueIndex:uniq_group_member;not null;type:varchar(64)" json:"group_id"`
	UserID  string `gorm:"uniqueIndex:uniq_group_member;not null;type:varchar(64)" json:"user_id"`
	IsAdmin bool   `gorm:"not null;default:false" json:"is_admin"`

	JoinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
