package mysql

import (
	"context"

	"microloan-backend/internal/domain/notification"

	"gorm.io/gorm"
)

type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return translate("create notification", r.db.WithContext(ctx).Create(n).Error)
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, ordered bool) ([]*notification.Notification, error) {
	var out []*notification.Notification
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if ordered {
		q = q.Order("created_at DESC, id DESC")
	}
	res := q.Find(&out)
	return out, translate("list notifications", res.Error)
}
