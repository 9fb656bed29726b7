package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/matchmate/internal/domain"
	"github.com/kailas-cloud/matchmate/internal/domain/geo"
	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
)

func ptr[T any](v T) *T { return &v }

func sampleRoom(id string) *domlisting.Listing {
	return &domlisting.Listing{
		ID:          id,
		UserID:      "u1",
		Type:        domlisting.TypeRoom,
		Title:       "Sunny room",
		Description: "Quiet furnished room near the park",
		Keywords:    []string{"quiet", "furnished"},
		Price:       ptr(1200.0),
		Structured: domlisting.Structured{
			Bedrooms: ptr(2),
			Location: &geo.Point{Lat: 40.7, Lng: -74.0},
		},
		Embedding: []float32{0.25, -0.5, 1},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateGet_RoundTrip(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()

	if err := r.Create(ctx, sampleRoom("a")); err != nil {
		t.Fatalf("create: %v", err)
	}

	raw := string(ms.kv["mm:listing:a"])
	if strings.Contains(raw, "[0.25") {
		t.Errorf("embedding should be packed, got %s", raw)
	}
	if _, ok := ms.sets["mm:listings:room"]["a"]; !ok {
		t.Error("expected id in room index")
	}

	got, err := r.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Sunny room" || *got.Price != 1200 || *got.Structured.Bedrooms != 2 {
		t.Errorf("unexpected listing: %+v", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != -0.5 {
		t.Errorf("embedding not restored: %v", got.Embedding)
	}
	if got.Structured.Location == nil || got.Structured.Location.Lat != 40.7 {
		t.Errorf("location not restored: %+v", got.Structured.Location)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	_ = r.Create(ctx, sampleRoom("a"))
	if err := r.Create(ctx, sampleRoom("a")); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	if _, err := r.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	r, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, errors.New("down") }

	_, err := r.Get(context.Background(), "a")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestUpdate_MovesIndexOnTypeChange(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()
	l := sampleRoom("a")
	_ = r.Create(ctx, l)

	l.Type = domlisting.TypeRoommate
	l.Closed = true
	if err := r.Update(ctx, l); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, ok := ms.sets["mm:listings:room"]["a"]; ok {
		t.Error("expected id removed from room index")
	}
	if _, ok := ms.sets["mm:listings:roommate"]["a"]; !ok {
		t.Error("expected id in roommate index")
	}
	got, _ := r.Get(ctx, "a")
	if !got.Closed {
		t.Error("expected closed flag persisted")
	}
}

func TestUpdate_Missing(t *testing.T) {
	r, _ := newTestRepo(t)
	if err := r.Update(context.Background(), sampleRoom("ghost")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByType(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()

	_ = r.Create(ctx, sampleRoom("a"))
	closed := sampleRoom("b")
	closed.Closed = true
	_ = r.Create(ctx, closed)
	mate := sampleRoom("c")
	mate.Type = domlisting.TypeRoommate
	_ = r.Create(ctx, mate)

	// dangling index entry and a corrupt document
	ms.sets["mm:listings:room"]["ghost"] = struct{}{}
	ms.sets["mm:listings:room"]["bad"] = struct{}{}
	ms.kv["mm:listing:bad"] = []byte("{not json")

	got, err := r.ListByType(ctx, domlisting.TypeRoom)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := make([]string, 0, len(got))
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected [a b] (closed kept), got %v", ids)
	}
}

func TestListByType_Chunks(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()

	for i := range mgetChunk + 10 {
		_ = r.Create(ctx, sampleRoom(fmt.Sprintf("id-%d", i)))
	}

	got, err := r.ListByType(ctx, domlisting.TypeRoom)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != mgetChunk+10 {
		t.Errorf("expected %d listings, got %d", mgetChunk+10, len(got))
	}
	if ms.mgetCalls != 2 {
		t.Errorf("expected 2 MGET calls, got %d", ms.mgetCalls)
	}
}

func TestListByType_StoreErrors(t *testing.T) {
	t.Run("smembers", func(t *testing.T) {
		r, ms := newTestRepo(t)
		ms.smembersFn = func(_ context.Context, _ string) ([]string, error) { return nil, errors.New("down") }
		if _, err := r.ListByType(context.Background(), domlisting.TypeRoom); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("mget", func(t *testing.T) {
		r, ms := newTestRepo(t)
		_ = r.Create(context.Background(), sampleRoom("a"))
		ms.mgetFn = func(_ context.Context, _ []string) ([][]byte, error) { return nil, errors.New("down") }
		if _, err := r.ListByType(context.Background(), domlisting.TypeRoom); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestListByType_Empty(t *testing.T) {
	r, _ := newTestRepo(t)
	got, err := r.ListByType(context.Background(), domlisting.TypeRoommate)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %d", len(got))
	}
}
