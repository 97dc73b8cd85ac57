package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

// UserStore is the in-memory UserStore.
type UserStore struct {
	mu      sync.Mutex
	nextID  uint64
	users   map[uint64]*model.User
	byEmail map[string]uint64
}

// NewUserStore returns an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		nextID:  1,
		users:   make(map[uint64]*model.User),
		byEmail: make(map[string]uint64),
	}
}

func (s *UserStore) Create(_ context.Context, name, email, phone, passwordHash, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return 0, fmt.Errorf("%w: email already exists", service.ErrConflict)
	}
	now := time.Now().UTC()
	u := &model.User{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextID++
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u.ID, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: user not found", service.ErrNotFound)
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *UserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user not found", service.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// TokenStore is the in-memory TokenStore.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

// NewTokenStore returns an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]*model.RefreshToken)}
}

func (s *TokenStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = &model.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *TokenStore) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return 0, fmt.Errorf("%w: refresh token expired or revoked", service.ErrNotFound)
	}
	return t.UserID, nil
}

func (s *TokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func (s *TokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}
