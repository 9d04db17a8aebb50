package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/jatinkaushik/devprep/internal/db/store"
)

// UserStore is the account persistence the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, p store.CreateUserParams) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
	UpdateUserLogin(ctx context.Context, id uuid.UUID) error
}

// User represents an authenticated account.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OAuthProvider constants.
const (
	OAuthProviderGoogle = "google"
)
