package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sharedstreets/internal/domain/entities"
	"sharedstreets/internal/geo"
	"sharedstreets/internal/repository"
	"sharedstreets/pkg/ssid"
)

var _ repository.FeatureRepository = (*FeatureRepository)(nil)

func newTestRepo(t *testing.T, capacity int) (*FeatureRepository, *geo.TileIndex) {
	t.Helper()
	index := geo.NewTileIndex(12)
	repo, err := NewFeatureRepository(capacity, index)
	require.NoError(t, err)
	return repo, index
}

func record(id string, pts ...orb.Point) *entities.Record {
	return entities.NewRecord(id, ssid.KindIntersection, ssid.FormatHex, "Intersection", pts, nil)
}

func TestFeatureRepository_SaveAndGet(t *testing.T) {
	repo, _ := newTestRepo(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("a", orb.Point{110, 45})))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repo.Save(ctx, nil), ErrNilRecord)
}

func TestFeatureRepository_GetInTile(t *testing.T) {
	repo, _ := newTestRepo(t, 10)
	ctx := context.Background()
	pt := orb.Point{-74.003388, 40.634538}

	require.NoError(t, repo.Save(ctx, record("b", pt)))
	require.NoError(t, repo.Save(ctx, record("a", pt)))
	require.NoError(t, repo.Save(ctx, record("far", orb.Point{2.35, 48.85})))

	records, err := repo.GetInTile(ctx, maptile.At(pt, 12))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestFeatureRepository_EvictionCleansIndex(t *testing.T) {
	repo, index := newTestRepo(t, 2)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("a", orb.Point{1, 1})))
	require.NoError(t, repo.Save(ctx, record("b", orb.Point{2, 2})))
	require.NoError(t, repo.Save(ctx, record("c", orb.Point{3, 3})))

	assert.Equal(t, 2, repo.Count(ctx))
	assert.Equal(t, 2, index.Count())

	evicted, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, evicted)
	assert.Empty(t, index.IDsInTile(maptile.At(orb.Point{1, 1}, 12)))
}

func TestFeatureRepository_Delete(t *testing.T) {
	repo, index := newTestRepo(t, 10)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("a", orb.Point{1, 1})))
	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "a"))

	assert.Equal(t, 0, repo.Count(ctx))
	assert.Equal(t, 0, index.Count())
}

func TestNewFeatureRepository(t *testing.T) {
	_, err := NewFeatureRepository(10, nil)
	assert.Error(t, err)

	repo, err := NewFeatureRepository(0, geo.NewTileIndex(12))
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestFeatureRepository_ConcurrentSavesKeepIndexInSync(t *testing.T) {
	repo, index := newTestRepo(t, 8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("f-%d", (g*7+i)%32)
				if err := repo.Save(ctx, record(id, orb.Point{float64(i%10) / 10, 1})); err != nil {
					t.Errorf("Save failed: %v", err)
					return
				}
				if i%5 == 0 {
					_ = repo.Delete(ctx, id)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, repo.Count(ctx), index.Count())
}
