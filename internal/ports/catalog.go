package ports

import (
	"context"

	"rydm/internal/domain"
)

type CatalogService interface {
	// Search runs a free-text track search.
	Search(ctx context.Context, term string) ([]domain.Track, error)
	// Discover assembles a mixed playlist from the configured seeds.
	Discover(ctx context.Context) ([]domain.Track, error)
}
