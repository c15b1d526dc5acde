package notification

import "time"

const TypeDefault = "default"

// Table: notifications
type Notification struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID    string    `gorm:"size:32;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Title     string    `gorm:"size:128" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	LoanID    string    `gorm:"size:32;index" json:"loan_id"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_notifications_user_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
