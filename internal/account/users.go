package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tradesenseai/challenge-platform/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const (
	_uniqueViolation = pq.ErrorCode("23505")

	_queryUserByEmail = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	_queryUserByID    = `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	_insertUser       = `INSERT INTO users (id, email, password_hash, created_at) VALUES ($1,$2,$3,$4)`
)

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (model.User, error) {
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.db.ExecContext(ctx, _insertUser, user.ID, user.Email, user.PasswordHash, user.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == _uniqueViolation {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("%w: can't insert user", err)
	}

	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	if err := s.db.GetContext(ctx, &user, _queryUserByEmail, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("%w: can't query user by email", err)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	if err := s.db.GetContext(ctx, &user, _queryUserByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("%w: can't query user by id", err)
	}
	return user, nil
}
