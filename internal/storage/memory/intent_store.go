package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/storage"
)

// IntentStore is an in-memory implementation of storage.IntentStore.
type IntentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapIntent // keyed by intent_id
}

// NewIntentStore creates a new in-memory intent store.
func NewIntentStore() *IntentStore {
	return &IntentStore{
		data: make(map[string]*domain.SwapIntent),
	}
}

var _ storage.IntentStore = (*IntentStore)(nil)

// Put adds a new intent. Returns ErrDuplicateKey if intent_id exists.
func (s *IntentStore) Put(_ context.Context, intent *domain.SwapIntent) error {
	if intent == nil || intent.IntentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[intent.IntentID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *intent
	s.data[intent.IntentID] = &copy
	return nil
}

// TryClaim atomically marks an intent executed and returns its pre-claim
// snapshot. The TTL check, the executed check, and the flag flip happen
// under one lock so only one of N concurrent claims can succeed.
func (s *IntentStore) TryClaim(_ context.Context, intentID string, now time.Time) (*domain.SwapIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.data[intentID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if !now.Before(intent.ExpiresAt) {
		return nil, storage.ErrIntentExpired
	}
	if intent.Executed {
		return nil, storage.ErrIntentAlreadyExecuted
	}

	snapshot := *intent
	intent.Executed = true
	return &snapshot, nil
}

// RecordResult attaches the execution outcome. Never alters the executed flag.
func (s *IntentStore) RecordResult(_ context.Context, intentID string, result *domain.ExecutionResult) error {
	if result == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.data[intentID]
	if !exists {
		return storage.ErrNotFound
	}

	copy := *result
	intent.Result = &copy
	return nil
}

// GetByID retrieves an intent by id. Returns ErrNotFound if not exists.
func (s *IntentStore) GetByID(_ context.Context, intentID string) (*domain.SwapIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intent, exists := s.data[intentID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *intent
	return &copy, nil
}

// ListPending retrieves non-expired, non-executed intents, newest first.
func (s *IntentStore) ListPending(_ context.Context, now time.Time) ([]*domain.SwapIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapIntent
	for _, intent := range s.data {
		if !intent.Executed && now.Before(intent.ExpiresAt) {
			copy := *intent
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// DeleteExpired prunes unexecuted intents whose expiry is at or before cutoff.
func (s *IntentStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, intent := range s.data {
		if !intent.Executed && !cutoff.Before(intent.ExpiresAt) {
			delete(s.data, id)
			deleted++
		}
	}

	return deleted, nil
}
