package user

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used in dev mode and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User
}

// NewMemoryRepository creates an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    map[string]*User{},
		byEmail: map[string]*User{},
	}
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u := *user
	u.CreatedAt = now
	u.UpdatedAt = now
	r.byID[u.ID.String()] = &u
	r.byEmail[u.Email] = &u
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *MemoryRepository) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []*User
	for _, u := range r.byID {
		if u.Role == role {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users, nil
}
