package service

import (
	"context"
	"fmt"

	"unimarket/internal/domain"
	"unimarket/internal/security"
)

// AuthService handles registration and login for the identity the messaging
// core authenticates against.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type RegisterInput struct {
	Username string
	Email    *string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if existing, err := s.users.GetByUsername(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: username already registered", domain.ErrConflict)
	}

	if in.Email != nil && *in.Email != "" {
		if existing, err := s.users.GetByEmail(ctx, *in.Email); err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		} else if existing != nil {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	// one message for both unknown user and bad password
	if user == nil {
		return nil, fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
