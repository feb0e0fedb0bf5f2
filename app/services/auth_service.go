package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type SigninInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService registers users and issues identity tokens.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenService
}

func NewAuthService(users UserStore, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Signup creates an account and returns a signed token for it.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (string, error) {
	if errs := validate.Struct(in); errs.HasErrors() {
		metrics.RecordAuth("signup", "rejected")
		if errs.Failed("required") {
			return "", apperr.Validation("All fields are required")
		}
		return "", apperr.Validation("Password must be at least 8 characters")
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		metrics.RecordAuth("signup", "rejected")
		return "", apperr.Conflict("User already exists")
	case !errors.Is(err, repositories.ErrNotFound):
		metrics.RecordAuth("signup", "error")
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		metrics.RecordAuth("signup", "error")
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			metrics.RecordAuth("signup", "rejected")
			return "", apperr.Conflict("User already exists")
		}
		metrics.RecordAuth("signup", "error")
		return "", err
	}

	token, err := s.issue(user)
	if err != nil {
		metrics.RecordAuth("signup", "error")
		return "", err
	}
	metrics.RecordAuth("signup", "ok")
	return token, nil
}

// Signin verifies credentials and returns a fresh token.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (string, error) {
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.RecordAuth("signin", "rejected")
			return "", apperr.Validation("Invalid email")
		}
		metrics.RecordAuth("signin", "error")
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckPassword(user.Password, in.Password) {
		metrics.RecordAuth("signin", "rejected")
		return "", apperr.Validation("Invalid password")
	}

	token, err := s.issue(user)
	if err != nil {
		metrics.RecordAuth("signin", "error")
		return "", err
	}
	metrics.RecordAuth("signin", "ok")
	return token, nil
}

// Profile decodes the session token. An empty token yields (nil, nil). A
// token that fails verification is returned as an unclassified error.
func (s *AuthService) Profile(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("profile token: %w", err)
	}
	return claims, nil
}

// TokenTTL is the lifetime of issued tokens, used for the cookie max-age.
func (s *AuthService) TokenTTL() time.Duration { return s.tokens.TTL() }

func (s *AuthService) issue(user *models.User) (string, error) {
	token, err := s.tokens.Issue(auth.Identity{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
