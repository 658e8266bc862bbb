package ports

import (
	"context"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// TrackResolver defines the interface for turning a user query into a
// playable Track. Resolution may take seconds and is always invoked from the
// requesting caller's goroutine, never from a session loop.
type TrackResolver interface {
	// Resolve returns the best match for the query, or a
	// *domain.ResolutionError describing why no track could be produced.
	Resolve(ctx context.Context, query domain.SearchQuery, requester string) (domain.Track, error)
}
