package match

import (
	"context"
	"sort"

	"github.com/kailas-cloud/matchmate/internal/domain/listing"
)

// candidates returns the open listings of the target type that the searcher did not post,
// newest first. Ties in creation time keep id order so runs are reproducible.
func candidates(ctx context.Context, store ListingStore, target listing.Type, searcherID string) ([]listing.Listing, error) {
	all, err := store.ListByType(ctx, target)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by the caller with the domain sentinel
	}

	out := make([]listing.Listing, 0, len(all))
	for i := range all {
		l := &all[i]
		if l.Closed || l.Type != target {
			continue
		}
		if searcherID != "" && l.UserID == searcherID {
			continue
		}
		out = append(out, *l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
