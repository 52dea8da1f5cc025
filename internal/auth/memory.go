package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps users and sessions in process memory.
type MemoryRepository struct {
	mu           sync.RWMutex
	usersByID    map[string]User
	usersByEmail map[string]string
	sessionsByID map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		usersByID:    make(map[string]User),
		usersByEmail: make(map[string]string),
		sessionsByID: make(map[string]Session),
	}
}

func (m *MemoryRepository) CreateUser(_ context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByEmail[user.Email]; exists {
		return ErrEmailInUse
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *MemoryRepository) UserByID(_ context.Context, userID string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, exists := m.usersByID[userID]
	if !exists {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *MemoryRepository) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, exists := m.usersByEmail[email]
	if !exists {
		return User{}, ErrUserNotFound
	}
	return m.usersByID[userID], nil
}

func (m *MemoryRepository) SaveSession(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsByID[session.ID] = session
	return nil
}

func (m *MemoryRepository) SessionByID(_ context.Context, sessionID string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, exists := m.sessionsByID[sessionID]
	if !exists {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessionsByID, sessionID)
	return nil
}

func (m *MemoryRepository) DeleteSessionsExpiredBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessionsByID {
		if session.ExpiresAt.Before(cutoff) {
			delete(m.sessionsByID, id)
			removed++
		}
	}
	return removed, nil
}
