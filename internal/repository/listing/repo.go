// Package listing stores listings as JSON documents with a per-type set index.
//
// Keys:
//
//	{prefix}listing:{id}      JSON document
//	{prefix}listings:{type}   set of ids of that type, closed ones included
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/db"
	"github.com/kailas-cloud/matchmate/internal/domain"
	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
)

// mgetChunk bounds a single MGET so one huge pool does not block the server.
const mgetChunk = 256

// store is the consumer interface for listings (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements the listing store used by the listing service and the candidate pool.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a listing repository.
func New(s store, keyPrefix string, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, prefix: keyPrefix, logger: logger}
}

func (r *Repo) docKey(id string) string { return r.prefix + "listing:" + id }

func (r *Repo) indexKey(t domlisting.Type) string { return r.prefix + "listings:" + string(t) }

// Create stores a new listing. Fails with domain.ErrAlreadyExists if the id is taken.
func (r *Repo) Create(ctx context.Context, l *domlisting.Listing) error {
	key := r.docKey(l.ID)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}
	if err := r.put(ctx, l); err != nil {
		return err
	}
	if err := r.store.SAdd(ctx, r.indexKey(l.Type), l.ID); err != nil {
		return fmt.Errorf("index %s: %w", l.ID, err)
	}
	return nil
}

// Get returns a listing by id.
func (r *Repo) Get(ctx context.Context, id string) (domlisting.Listing, error) {
	key := r.docKey(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domlisting.Listing{}, domain.ErrNotFound
		}
		return domlisting.Listing{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decode(raw)
}

// Update overwrites an existing listing, moving it between type indexes if its type changed.
func (r *Repo) Update(ctx context.Context, l *domlisting.Listing) error {
	prev, err := r.Get(ctx, l.ID)
	if err != nil {
		return err
	}
	if err := r.put(ctx, l); err != nil {
		return err
	}
	if prev.Type != l.Type {
		if err := r.store.SRem(ctx, r.indexKey(prev.Type), l.ID); err != nil {
			return fmt.Errorf("unindex %s: %w", l.ID, err)
		}
		if err := r.store.SAdd(ctx, r.indexKey(l.Type), l.ID); err != nil {
			return fmt.Errorf("index %s: %w", l.ID, err)
		}
	}
	return nil
}

// ListByType returns every listing of type t, closed ones included.
// Dangling index entries and undecodable documents are skipped.
func (r *Repo) ListByType(ctx context.Context, t domlisting.Type) ([]domlisting.Listing, error) {
	ids, err := r.store.SMembers(ctx, r.indexKey(t))
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", t, err)
	}

	out := make([]domlisting.Listing, 0, len(ids))
	for start := 0; start < len(ids); start += mgetChunk {
		end := min(start+mgetChunk, len(ids))
		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, r.docKey(id))
		}

		vals, err := r.store.MGet(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("load %s listings: %w", t, err)
		}

		for i, raw := range vals {
			if raw == nil {
				r.logger.Debug("Dangling listing index entry", zap.String("key", keys[i]))
				continue
			}
			l, err := decode(raw)
			if err != nil {
				r.logger.Warn("Skipping undecodable listing", zap.String("key", keys[i]), zap.Error(err))
				continue
			}
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *Repo) put(ctx context.Context, l *domlisting.Listing) error {
	data, err := json.Marshal(toRecord(l))
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	key := r.docKey(l.ID)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func decode(raw []byte) (domlisting.Listing, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domlisting.Listing{}, fmt.Errorf("unmarshal listing: %w", err)
	}
	return fromRecord(&rec)
}
