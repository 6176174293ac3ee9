package ports

import (
	"context"

	"toponav/internal/domain"
)

// GraphStore loads the floor map. The graph is built and saved offline;
// localization only ever calls LoadGraph.
type GraphStore interface {
	// LoadGraph fails with a domain.LoadError when the persisted graph is
	// missing or malformed
	LoadGraph(ctx context.Context) (*domain.Graph, error)
	SaveGraph(ctx context.Context, g *domain.Graph) error
	Close() error
}
