package notify

import (
	"context"
	"errors"
	"sync"
)

var ErrUserNotFound = errors.New("user not found")

// MemoryDirectory is a seedable Directory used until the user service
// client is wired in, and by tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]*User)}
}

func (d *MemoryDirectory) Seed(users ...*User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range users {
		cp := *u
		d.users[u.ID] = &cp
	}
}

func (d *MemoryDirectory) Get(_ context.Context, userID string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, exists := d.users[userID]
	if !exists {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
