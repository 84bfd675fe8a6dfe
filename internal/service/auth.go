package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pkg/auth"
	"tush00nka/filehub/internal/repository"
)

type authService struct {
	users  UserService
	tokens TokenManager
	log    *slog.Logger
}

func NewAuthService(users UserService, tokens TokenManager, log *slog.Logger) AuthService {
	return &authService{users: users, tokens: tokens, log: log}
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	user, err := s.users.Create(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", "user_id", user.ID)
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	// Подпись верна, но subject не наш идентификатор
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: user}, nil
}
