package budget

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/kailas-cloud/matchmate/internal/db"
)

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

type mockStore struct {
	data      map[string][]byte
	getErr    error
	incrErr   error
	expireErr error
	expires   []expireCall
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) error {
	if m.incrErr != nil {
		return m.incrErr
	}
	cur, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	m.data[key] = []byte(strconv.FormatInt(cur+val, 10))
	return nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	m.expires = append(m.expires, expireCall{key, ttl, nx})
	return m.expireErr
}

func TestAdd_IncrementsAndSetsTTLOnce(t *testing.T) {
	ms := newMockStore()
	s := New(ms)
	ctx := context.Background()

	for range 2 {
		if err := s.Add(ctx, "k", 10, 48*time.Hour); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
	for _, e := range ms.expires {
		if !e.nx || e.ttl != 48*time.Hour {
			t.Errorf("expected EXPIRE NX 48h, got %+v", e)
		}
	}
}

func TestAdd_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mockStore)
	}{
		{"incr", func(m *mockStore) { m.incrErr = errors.New("down") }},
		{"expire", func(m *mockStore) { m.expireErr = errors.New("down") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ms := newMockStore()
			tc.setup(ms)
			if err := New(ms).Add(context.Background(), "k", 1, time.Hour); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_MissingIsZero(t *testing.T) {
	got, err := New(newMockStore()).Load(context.Background(), "missing")
	if err != nil || got != 0 {
		t.Fatalf("expected 0/nil, got %d/%v", got, err)
	}
}

func TestLoad_Garbage(t *testing.T) {
	ms := newMockStore()
	ms.data["k"] = []byte("not-a-number")
	if _, err := New(ms).Load(context.Background(), "k"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("down")
	if _, err := New(ms).Load(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}
