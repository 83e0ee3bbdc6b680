package repository

import (
	"context"

	"github.com/paulmach/orb/maptile"
	"sharedstreets/internal/domain/entities"
)

type FeatureRepository interface {
	Save(ctx context.Context, record *entities.Record) error
	GetByID(ctx context.Context, id string) (*entities.Record, error)
	Delete(ctx context.Context, id string) error
	GetInTile(ctx context.Context, tile maptile.Tile) ([]*entities.Record, error)
	Count(ctx context.Context) int
}
