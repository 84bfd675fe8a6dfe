package service

import (
	"context"
	"errors"
	"fmt"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pkg/auth"
	"tush00nka/filehub/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Create(ctx context.Context, email, password string) (*model.User, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: normalizeEmail(email), Password: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, errors.New("invalid user ID")
	}
	return s.userRepo.FindByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, errors.New("invalid email")
	}
	return s.userRepo.FindByEmail(ctx, normalizeEmail(email))
}
