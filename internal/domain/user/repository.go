package user

import "context"

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*User, error)
}
