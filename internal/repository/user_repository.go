package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"users-be/internal/entities"
)

var (
	// ErrAccess marks any failure talking to the user store.
	ErrAccess = errors.New("user store access error")
	// ErrDuplicate is returned when a unique constraint rejects an insert. It also matches ErrAccess.
	ErrDuplicate = fmt.Errorf("%w: duplicate user", ErrAccess)
)

const uniqueViolation = "23505"

// UserRepository is the gateway to persisted users
type UserRepository interface {
	FindOne(ctx context.Context, email, username string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	FindAll(ctx context.Context) ([]*entities.User, error)
	DeleteByEmail(ctx context.Context, email string) (*entities.User, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Fullname,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func accessError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrAccess, op, err)
}

// FindOne returns the first user whose email matches, or whose username matches when one is given.
// A nil user with a nil error means no match.
func (r *userRepository) FindOne(ctx context.Context, email, username string) (*entities.User, error) {
	query := `
		SELECT id, email, username, fullname, password_hash, created_at
		FROM users
		WHERE email = $1 OR ($2::text <> '' AND username = $2)
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, accessError("find user", err)
	}

	return user, nil
}

// Create inserts a new user with a freshly generated id
func (r *userRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		INSERT INTO users (id, email, username, fullname, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, username, fullname, password_hash, created_at
	`

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		user.Email,
		user.Username,
		user.Fullname,
		user.PasswordHash,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		}
		return nil, accessError("create user", err)
	}

	return created, nil
}

// FindAll returns every user, newest first
func (r *userRepository) FindAll(ctx context.Context) ([]*entities.User, error) {
	query := `
		SELECT id, email, username, fullname, password_hash, created_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, accessError("list users", err)
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, accessError("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, accessError("list users", err)
	}

	return users, nil
}

// DeleteByEmail removes the user with the given email and returns it.
// A missing row is reported as an access error; callers check existence first.
func (r *userRepository) DeleteByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `
		DELETE FROM users
		WHERE email = $1
		RETURNING id, email, username, fullname, password_hash, created_at
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, accessError("delete user", err)
	}

	return user, nil
}
