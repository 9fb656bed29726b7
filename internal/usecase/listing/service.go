// Package listing handles listing submission, edits and closing with synchronous vectorization.
package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/domain"
	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
	"github.com/kailas-cloud/matchmate/internal/domain/similarity"
	logpkg "github.com/kailas-cloud/matchmate/internal/logger"
)

// Service manages the listing lifecycle.
type Service struct {
	repo     Repository
	embedder Embedder // nil: listings are stored without vectors
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates a listing service. embedder may be nil.
func New(repo Repository, embedder Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		embedder: embedder,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create validates, vectorizes and stores a new listing. The id and timestamps are assigned here.
func (s *Service) Create(ctx context.Context, l *domlisting.Listing) (domlisting.Listing, error) {
	if err := prepare(l); err != nil {
		return domlisting.Listing{}, err
	}

	now := s.now().UTC()
	l.ID = s.newID()
	l.Closed = false
	l.CreatedAt = now
	l.UpdatedAt = now
	l.Embedding = s.vectorize(ctx, l)

	if err := s.repo.Create(ctx, l); err != nil {
		return domlisting.Listing{}, fmt.Errorf("create listing: %w", err)
	}

	s.log(ctx).Info("Listing created",
		zap.String("listing_id", l.ID),
		zap.String("type", string(l.Type)),
		zap.Bool("embedded", l.Embedding != nil),
	)
	return *l, nil
}

// Get returns a listing by id.
func (s *Service) Get(ctx context.Context, id string) (domlisting.Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// Update replaces a listing's content. Owner, creation time and closed state are kept;
// the embedding is recomputed when the embedded text changed or the stored one is unusable.
func (s *Service) Update(ctx context.Context, id string, l *domlisting.Listing) (domlisting.Listing, error) {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("get listing: %w", err)
	}

	l.ID = prev.ID
	l.UserID = prev.UserID
	l.Closed = prev.Closed
	l.CreatedAt = prev.CreatedAt
	if err := prepare(l); err != nil {
		return domlisting.Listing{}, err
	}
	l.UpdatedAt = s.now().UTC()

	if l.EmbeddingText() == prev.EmbeddingText() && (s.embedder == nil || s.usable(&prev)) {
		l.Embedding = prev.Embedding
	} else {
		l.Embedding = s.vectorize(ctx, l)
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return domlisting.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	return *l, nil
}

// Close marks a listing closed so it no longer shows up in matches. Closing twice is a no-op.
func (s *Service) Close(ctx context.Context, id string) (domlisting.Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return domlisting.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	if l.Closed {
		return l, nil
	}

	l.Closed = true
	l.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, &l); err != nil {
		return domlisting.Listing{}, fmt.Errorf("close listing: %w", err)
	}

	s.log(ctx).Info("Listing closed", zap.String("listing_id", id))
	return l, nil
}

// prepare normalizes and validates l, deriving keywords from its text when none were given.
func prepare(l *domlisting.Listing) error {
	l.Normalize()
	l.Keywords = similarity.NormalizeKeywords(l.Keywords)
	if len(l.Keywords) == 0 {
		l.Keywords = similarity.ExtractKeywords(l.EmbeddingText())
		if len(l.Keywords) > domlisting.MaxKeywords {
			l.Keywords = l.Keywords[:domlisting.MaxKeywords]
		}
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return nil
}

// vectorize returns nil instead of a zero vector so the matcher re-embeds the listing later.
func (s *Service) vectorize(ctx context.Context, l *domlisting.Listing) []float32 {
	if s.embedder == nil {
		return nil
	}
	res, err := s.embedder.Embed(ctx, l.EmbeddingText())
	if err != nil || domain.IsZeroVector(res.Embedding) {
		s.log(ctx).Warn("Listing stored without embedding",
			zap.String("listing_id", l.ID),
			zap.Error(err),
		)
		return nil
	}
	return res.Embedding
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}

func (s *Service) usable(l *domlisting.Listing) bool {
	return l.HasUsableEmbedding(s.embedder.Dimensions())
}
