package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
	pkgAuth "github.com/polkiloo/eventreg/internal/pkg/auth"
)

// AuthUseCase handles account lifecycle and token management.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
	policy Policy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy, policy Policy) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy, policy: policy}
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := strings.Cut(email, "@")
	return email, ok && local != "" && domain != ""
}

// Register creates an account and returns an auth token. Configured staff emails get the admin role.
func (u *AuthUseCase) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	email, ok := normalizeEmail(email)
	if !ok || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrWeakPassword) {
			return nil, "", fmt.Errorf("%w: %v", domainErrors.ErrInvalidCredentials, err)
		}
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, email, hash, u.policy.roleFor(email))
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, "", domainErrors.ErrAlreadyExists
		}
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(principalOf(usr))
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate validates credentials and returns auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	email, ok := normalizeEmail(email)
	if !ok || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		if errors.Is(err, pkgAuth.ErrPasswordMismatch) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("verify password for user %d: %w", usr.ID, err)
	}

	token, err := u.tokens.IssueToken(principalOf(usr))
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// ParseToken extracts the principal from provided token.
func (u *AuthUseCase) ParseToken(token string) (model.Principal, error) {
	if token == "" {
		return model.Principal{}, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}

func principalOf(usr *model.User) model.Principal {
	return model.Principal{UserID: usr.ID, Email: usr.Email, Role: usr.Role}
}
