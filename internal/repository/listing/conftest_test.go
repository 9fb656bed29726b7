package listing

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/db"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	kv   map[string][]byte
	sets map[string]map[string]struct{}

	getFn      func(ctx context.Context, key string) ([]byte, error)
	mgetFn     func(ctx context.Context, keys []string) ([][]byte, error)
	setFn      func(ctx context.Context, key string, value []byte) error
	existsFn   func(ctx context.Context, key string) (bool, error)
	smembersFn func(ctx context.Context, key string) ([]string, error)
	mgetCalls  int
}

func newMockStore() *mockStore {
	return &mockStore{kv: map[string][]byte{}, sets: map[string]map[string]struct{}{}}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	m.mgetCalls++
	if m.mgetFn != nil {
		return m.mgetFn(ctx, keys)
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.kv[k]
	}
	return out, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.kv[key] = value
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	_, ok := m.kv[key]
	return ok, nil
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...string) error {
	set, ok := m.sets[key]
	if !ok {
		set = map[string]struct{}{}
		m.sets[key] = set
	}
	for _, mem := range members {
		set[mem] = struct{}{}
	}
	return nil
}

func (m *mockStore) SRem(_ context.Context, key string, members ...string) error {
	for _, mem := range members {
		delete(m.sets[key], mem)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	out := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, "mm:", zap.NewNop()), ms
}
