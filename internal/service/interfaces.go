package service

import (
	"context"
	"io"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pkg/auth"
)

type UserService interface {
	Create(ctx context.Context, email, password string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type FileService interface {
	Upload(ctx context.Context, owner *model.User, in UploadInput) (*model.File, error)
	ListByUser(ctx context.Context, userID string) ([]*model.File, error)
	Metrics(ctx context.Context, userID string) (*model.UploadMetrics, error)
	Delete(ctx context.Context, userID, fileID string) error
	URL(ctx context.Context, file *model.File) (string, error)
	SubscribeUploads(ctx context.Context, userID string) (<-chan *model.File, error)
}

// TokenManager is satisfied by *auth.TokenManager.
type TokenManager interface {
	GenerateToken(userID, email string) (string, error)
	ValidateToken(token string) (*auth.Claims, error)
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
