package relay

import (
	"context"
	"fmt"
)

// DedupResolver answers whether an inbound file already exists in the store.
type DedupResolver struct {
	store ObjectStore
}

// NewDedupResolver creates a dedup resolver backed by the given store.
func NewDedupResolver(store ObjectStore) *DedupResolver {
	return &DedupResolver{store: store}
}

// FindExisting scans the store for objects whose key starts with contentID
// and returns the first match, or nil if none exists. The scan is a full
// prefix listing: no false negatives. The caller treats the file as already
// relayed only when the match's size equals the declared size; a size
// mismatch is a cache miss and the stale object is left for the sweeper.
func (d *DedupResolver) FindExisting(ctx context.Context, contentID string) (*Object, error) {
	objects, err := d.store.List(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("dedup scan: %w", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}
	obj := objects[0]
	return &obj, nil
}
