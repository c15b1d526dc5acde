package mysql

import (
	"context"

	"microloan-backend/internal/domain/user"

	"gorm.io/gorm"
)

// UserRepository only reads; profiles are written by the identity provider.
type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*user.User, error) {
	var out user.User
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out)
	if res.Error != nil {
		return nil, translate("get user", res.Error)
	}
	return &out, nil
}
