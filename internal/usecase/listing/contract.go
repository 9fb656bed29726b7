package listing

import (
	"context"

	"github.com/kailas-cloud/matchmate/internal/domain"
	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
)

// Repository defines the storage contract for listings.
type Repository interface {
	Create(ctx context.Context, l *domlisting.Listing) error
	Get(ctx context.Context, id string) (domlisting.Listing, error)
	Update(ctx context.Context, l *domlisting.Listing) error
}

// Embedder vectorizes listing text. Failures degrade to a zero vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Dimensions() int
}
