package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"users-be/internal/cache"
	"users-be/internal/entities"
	"users-be/internal/models"
	"users-be/internal/repository"
)

const (
	userListCacheKey = "users:all"
	userListGenKey   = "users:all:gen" // bumped on every write; the list lives at users:all:<gen>

	// bcrypt.GenerateFromPassword rejects longer passwords.
	maxPasswordBytes = 72
)

// UserService defines the user management business logic
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*entities.User, error)
	FindAll(ctx context.Context) ([]*entities.User, error)
	FindOne(ctx context.Context, email, username string) (*entities.User, error)
	Delete(ctx context.Context, email string) (*entities.User, error)
}

// UserServiceConfig holds the settings the service reads at call time.
type UserServiceConfig struct {
	SaltRounds int           // bcrypt cost; out-of-range values fall back to bcrypt.DefaultCost
	CacheTTL   time.Duration // lifetime of the cached user list; zero or less disables the cache
}

type userService struct {
	repo   repository.UserRepository
	cache  cache.Cache
	cfg    UserServiceConfig
	logger *zap.Logger
}

// NewUserService creates a new user service. cacheClient may be nil.
func NewUserService(repo repository.UserRepository, cacheClient cache.Cache, cfg UserServiceConfig, logger *zap.Logger) UserService {
	if cfg.SaltRounds < bcrypt.MinCost || cfg.SaltRounds > bcrypt.MaxCost {
		cfg.SaltRounds = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &userService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
	// Only set cache if provided (allows graceful degradation)
	if cacheClient != nil {
		if cfg.CacheTTL > 0 {
			svc.cache = cacheClient
		} else {
			logger.Warn("user list cache disabled: non-positive TTL", zap.Duration("ttl", cfg.CacheTTL))
		}
	}
	return svc
}

// Register creates a new user account
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*entities.User, error) {
	if req == nil {
		return nil, NewMissingArgument("missing required argument")
	}
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	fullname := strings.TrimSpace(req.Fullname)
	if email == "" || username == "" || fullname == "" || req.Password == "" {
		return nil, NewMissingArgument("missing required argument")
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, NewInvalidArgument(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	existing, err := s.repo.FindOne(ctx, email, username)
	if err != nil {
		return nil, NewAccessError(err)
	}
	if existing != nil {
		return nil, conflictError(email, username)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.SaltRounds)
	if err != nil {
		return nil, NewAccessError(fmt.Errorf("failed to hash password: %w", err))
	}

	user, err := s.repo.Create(ctx, &entities.User{
		Email:        email,
		Username:     username,
		Fullname:     fullname,
		PasswordHash: string(hashedPassword),
	})
	if err != nil {
		// Lost a race with a concurrent registration; the unique constraint caught it.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError(email, username)
		}
		return nil, NewAccessError(err)
	}

	s.invalidateList(ctx)
	return user, nil
}

func conflictError(email, username string) *Error {
	return NewConflict(fmt.Sprintf("user with email %s or username %s already exists", email, username))
}

// FindAll returns every user, newest first. Cached entries carry no password hash.
// A snapshot read before a concurrent write is stored under the old generation, where no reader looks.
func (s *userService) FindAll(ctx context.Context) ([]*entities.User, error) {
	var key string
	if s.cache != nil {
		var err error
		key, err = s.listCacheKey(ctx)
		if err != nil {
			s.logger.Warn("user list cache generation read failed", zap.Error(err))
		}
	}

	if key != "" {
		var cached []*entities.User
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("user list cache read failed", zap.Error(err))
		}
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, NewAccessError(err)
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, users, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("user list cache write failed", zap.Error(err))
		}
	}
	return users, nil
}

func (s *userService) listCacheKey(ctx context.Context) (string, error) {
	gen, err := s.cache.Get(ctx, userListGenKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return userListCacheKey + ":" + gen, nil
}

// FindOne looks a user up by email, or by username when given. A nil user means no match.
func (s *userService) FindOne(ctx context.Context, email, username string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" {
		return nil, NewMissingArgument("email is required")
	}

	user, err := s.repo.FindOne(ctx, email, username)
	if err != nil {
		return nil, NewAccessError(err)
	}
	return user, nil
}

// Delete removes the user with the given email and returns it
func (s *userService) Delete(ctx context.Context, email string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, NewMissingArgument("user email is required")
	}

	user, err := s.deleteByEmail(ctx, email)
	if err != nil {
		return nil, asAccessError(err)
	}

	s.invalidateList(ctx)
	return user, nil
}

func (s *userService) deleteByEmail(ctx context.Context, email string) (*entities.User, error) {
	existing, err := s.repo.FindOne(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewNotFound(fmt.Sprintf("user with email %s not found", email))
	}
	return s.repo.DeleteByEmail(ctx, email)
}

func (s *userService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, userListGenKey); err != nil {
		s.logger.Warn("user list cache invalidation failed", zap.Error(err))
	}
}
