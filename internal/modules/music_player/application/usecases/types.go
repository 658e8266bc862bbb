package usecases

import (
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/session"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing
// domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// ResolutionError is an alias for domain.ResolutionError.
type ResolutionError = domain.ResolutionError

// Resolution error kinds re-exported for presentation use.
const (
	ResolutionNotFound     = domain.ResolutionNotFound
	ResolutionAuthRequired = domain.ResolutionAuthRequired
	ResolutionTransient    = domain.ResolutionTransient
	ResolutionUnknown      = domain.ResolutionUnknown
)

// Snapshot is an alias for session.Snapshot.
type Snapshot = session.Snapshot
