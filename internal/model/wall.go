package model

import "time"

// WallPhoto 照片墙条目，由照片消息镜像而来
type WallPhoto struct {
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID    string `gorm:"index;not null;type:varchar(64)" json:"group_id"`
	UserID     string `gorm:"not null;type:varchar(64)" json:"user_id"`
	MessageID  string `gorm:"uniqueIndex;not null;type:varchar(64)" json:"message_id"`
	ImageURL   string `gorm:"type:text;not null" json:"image_url"`
	LikesCount int    `gorm:"not null;default:0" json:"likes_count"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WallPhoto) TableName() string {
	return "wall_photos"
}

// WallPhotoLike (wall_photo_id, user_id) 唯一
type WallPhotoLike struct {
	ID          string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	WallPhotoID string `gorm:"uniqueIndex:uniq_photo_like;not null;type:varchar(64)" json:"wall_photo_id"`
	UserID      string `gorm:"uniqueIndex:uniq_photo_like;not null;type:varchar(64)" json:"user_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WallPhotoLike) TableName() string {
	return "wall_photo_likes"
}
