// Package catalog reads the upstream fictional-universe catalog.
// The rest of the service depends on the Source interface only; the
// GraphQL client is the single concrete implementation.
package catalog

import (
	"context"

	"github.com/lorekeep/lorekeep/internal/model"
)

// PageSize is the fixed page size served by the upstream API.
const PageSize = 20

// Source exposes read access to characters, locations and episodes.
// Lookups return model.ErrNotFound when the id does not exist and
// model.ErrProvider on transport failure.
type Source interface {
	GetCharacter(ctx context.Context, id int) (*model.Character, error)
	GetCharacters(ctx context.Context, ids []int) ([]model.Character, error)
	GetCharactersPage(ctx context.Context, page int) ([]model.Character, int, error)

	GetLocation(ctx context.Context, id int) (*model.Location, error)
	GetLocationsPage(ctx context.Context, page int) ([]model.Location, int, error)

	GetEpisode(ctx context.Context, id int) (*model.Episode, error)
	GetEpisodeWithCharacters(ctx context.Context, id int) (*model.Episode, []model.Character, error)
	GetEpisodesPage(ctx context.Context, page int) ([]model.Episode, int, error)
}
