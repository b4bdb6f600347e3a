package usecase

import (
	"context"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
)

type UserUsecase struct {
	users domain.UserRepository
}

func NewUserUsecase(users domain.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

// Register records the user on first contact; repeated /start commands keep
// the original registration date.
func (u *UserUsecase) Register(ctx context.Context, tgID int64, username string) (*domain.User, error) {
	user := &domain.User{
		TgID:             tgID,
		Username:         username,
		RegistrationDate: time.Now(),
	}
	if err := u.users.CreateIfAbsent(ctx, user); err != nil {
		return nil, err
	}

	existing, err := u.users.GetByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}
	return existing, nil
}
