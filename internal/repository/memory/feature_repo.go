package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb/maptile"
	"sharedstreets/internal/domain/entities"
	"sharedstreets/internal/geo"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 100_000

var ErrNilRecord = errors.New("record is nil")

// FeatureRepository stores computed feature records with a secondary tile
// index for spatial listing. It maintains two data structures:
//   - records: id → Record (primary lookup, bounded, least recently used
//     entries are evicted first)
//   - index: tile → ids (spatial lookup)
//
// This dual-index pattern is common when you need fast lookups by two different
// keys. The tradeoff is that both indices must be kept in sync on every write;
// the eviction callback does that when the LRU drops an entry on its own.
//
// Go Learning Note — Generics:
// lru.Cache[string, *entities.Record] is a generic type instantiated with a
// key and value type. Before Go 1.18 a cache like this stored interface{} and
// every Get needed a type assertion; with type parameters the compiler checks
// the types once and Get returns a *entities.Record directly.
type FeatureRepository struct {
	// mu makes a cache write and its index update one step. Evictions only
	// happen inside Add and Remove, so they run under mu as well.
	mu      sync.Mutex
	records *lru.Cache[string, *entities.Record]
	index   *geo.TileIndex
}

// NewFeatureRepository creates a store holding at most capacity records.
func NewFeatureRepository(capacity int, index *geo.TileIndex) (*FeatureRepository, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if index == nil {
		return nil, errors.New("tile index is required")
	}

	records, err := lru.NewWithEvict(capacity, func(id string, _ *entities.Record) {
		index.Remove(id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}

	return &FeatureRepository{
		records: records,
		index:   index,
	}, nil
}

// Save upserts a record and re-indexes its points. Saving the same ID twice
// is idempotent: identical content yields identical IDs.
func (r *FeatureRepository) Save(ctx context.Context, record *entities.Record) error {
	if record == nil {
		return ErrNilRecord
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records.Add(record.ID, record)
	r.index.Add(record.ID, record.Points)
	return nil
}

// GetByID returns the record, or (nil, nil) if it is not stored.
func (r *FeatureRepository) GetByID(ctx context.Context, id string) (*entities.Record, error) {
	record, ok := r.records.Get(id)
	if !ok {
		return nil, nil
	}
	return record, nil
}

// Delete removes a record from both indices.
func (r *FeatureRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.records.Remove(id) {
		// Not present in the cache; make sure no stale tile entry survives.
		r.index.Remove(id)
	}
	return nil
}

// GetInTile returns the records indexed under tile, ordered by ID. Lookups
// here do not refresh recency.
func (r *FeatureRepository) GetInTile(ctx context.Context, tile maptile.Tile) ([]*entities.Record, error) {
	ids := r.index.IDsInTile(tile)
	records := make([]*entities.Record, 0, len(ids))
	for _, id := range ids {
		if record, ok := r.records.Peek(id); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// Count returns the number of stored records.
func (r *FeatureRepository) Count(ctx context.Context) int {
	return r.records.Len()
}
