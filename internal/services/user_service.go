package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wealth/internal/auth"
	"wealth/internal/cache"
	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/ports"
)

const (
	userCacheSize = 1000
	userCacheTTL  = 5 * time.Minute
)

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserPatch is a partial profile update; nil fields and blank strings keep
// the stored value.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService handles registration, login and profile management.
// Profile reads go through an LRU cache invalidated on every write.
type UserService struct {
	users  ports.UserRepository
	tokens TokenIssuer
	cache  *cache.LRUCache[core.User]
	logger *log.Logger
}

func NewUserService(users ports.UserRepository, tokens TokenIssuer, logger *log.Logger) *UserService {
	if logger == nil {
		logger = log.Discard()
	}
	return &UserService{
		users:  users,
		tokens: tokens,
		cache:  cache.NewLRUCache[core.User](userCacheSize, userCacheTTL),
		logger: logger.WithComponent(log.ComponentUsers),
	}
}

// Cache exposes the profile cache so it can be registered with a
// cache.Manager for periodic cleanup.
func (s *UserService) Cache() *cache.LRUCache[core.User] {
	return s.cache
}

// Register creates an account and returns it with a session token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	u := core.User{
		Name:  strings.TrimSpace(name),
		Email: core.NormalizeEmail(email),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, "", invalid(err)
	}
	if err := core.ValidatePassword(password); err != nil {
		return core.User{}, "", invalid(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", err
	}
	u.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, "", err
	}
	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return core.User{}, "", err
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, created.ID)
	return created, token, nil
}

// Login returns core.ErrInvalidCredentials for an unknown email or a wrong
// password alike.
func (s *UserService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, "", core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", err
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return core.User{}, "", fmt.Errorf("check password: %w", err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "Failed login attempt", log.FieldUserID, u.ID)
		return core.User{}, "", core.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return core.User{}, "", err
	}
	return u, token, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (core.User, error) {
	if u, ok := s.cache.Get(id); ok {
		return u, nil
	}
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	s.cache.Set(id, u)
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, patch UserPatch) (core.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		u.Email = core.NormalizeEmail(*patch.Email)
	}
	if err := u.Validate(); err != nil {
		return core.User{}, invalid(err)
	}
	if patch.Password != nil && *patch.Password != "" {
		if err := core.ValidatePassword(*patch.Password); err != nil {
			return core.User{}, invalid(err)
		}
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return core.User{}, err
		}
		u.PasswordHash = hash
	}

	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return core.User{}, err
	}
	s.cache.Delete(id)
	s.logger.InfoContext(ctx, "User profile updated", log.FieldUserID, id)
	return updated, nil
}

// DeleteProfile removes the account and every record it owns.
func (s *UserService) DeleteProfile(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}
