package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"users-be/internal/entities"
)

// memoryUserRepository keeps users in process memory. Used when no database is configured.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users []entities.User // insertion order, oldest first
	now   func() time.Time
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{now: time.Now}
}

func (r *memoryUserRepository) FindOne(_ context.Context, email, username string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.users {
		u := r.users[i]
		if u.Email == email || (username != "" && u.Username == username) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) Create(_ context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: users_email_key", ErrDuplicate)
		}
		if u.Username == user.Username {
			return nil, fmt.Errorf("%w: users_username_key", ErrDuplicate)
		}
	}

	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = r.now()
	r.users = append(r.users, created)

	return &created, nil
}

func (r *memoryUserRepository) FindAll(_ context.Context) ([]*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*entities.User, 0, len(r.users))
	for i := len(r.users) - 1; i >= 0; i-- {
		u := r.users[i]
		users = append(users, &u)
	}
	return users, nil
}

func (r *memoryUserRepository) DeleteByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.Email == email {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return &u, nil
		}
	}
	return nil, accessError("delete user", fmt.Errorf("no user with email %s", email))
}
