package model

import "time"

// Streak 群组连续打卡记录，每个群组恰好一行
//
// Invariants: best_streak >= current_streak, both >= 0.
// last_activity_date is the UTC calendar day on which the group last
// reached full completion (every member contributed). NULL until the
// first completed day.
type Streak struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID       string     `gorm:"uniqueIndex;not null;type:varchar(64)" json:"group_id"`
	CurrentStreak int        `gorm:"not null;default:0" json:"current_streak"`
	BestStreak    int        `gorm:"not null;default:0" json:"best_streak"`
	LastActivity  *time.Time `gorm:"column:last_activity_date;type:date" json:"last_activity_date"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Streak) TableName() string {
	return "streaks"
}

// Contribution 每日贡献标记，(group_id, user_id, contribution_date) 唯一
//
// Rows are append-only. The first message a member sends on a given UTC
// day creates the row; later messages that day are no-ops.
type Contribution struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID   string    `gorm:"uniqueIndex:uniq_daily_contribution;not null;type:varchar(64)" json:"group_id"`
	UserID    string    `gorm:"uniqueIndex:uniq_daily_contribution;not null;type:varchar(64)" json:"user_id"`
	Date      time.Time `gorm:"column:contribution_date;uniqueIndex:uniq_daily_contribution;not null;type:date" json:"contribution_date"`
	Kind      string    `gorm:"not null;type:varchar(16)" json:"kind"`
	MessageID string    `gorm:"not null;type:varchar(64)" json:"message_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Contribution) TableName() string {
	return "daily_contributions"
}
