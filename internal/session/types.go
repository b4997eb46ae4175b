// Package session owns the persisted token pair and the authenticated user.
package session

import (
	"context"

	"github.com/ainotes-dev/ainotes/internal/model"
)

// State is the lifecycle position of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Authenticator is the part of the API client the Manager drives.
// Login, Register and RefreshTokens are sent without a bearer credential.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (*model.TokenPair, error)
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	Me(ctx context.Context) (*model.User, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*model.TokenPair, error)
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,max=100"`
	Password string `validate:"required,min=6,max=1024"`
	Confirm  string `validate:"required,eqfield=Password"`
}
