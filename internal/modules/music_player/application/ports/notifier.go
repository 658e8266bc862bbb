package ports

import (
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// StatusNotifier receives fire-and-forget playback notifications for one
// guild. Delivery is best-effort: implementations log failures and never
// propagate them back into playback.
type StatusNotifier interface {
	// NowPlaying announces that a track started streaming.
	NowPlaying(track domain.Track)

	// QueueEmpty announces that playback finished and the queue drained.
	QueueEmpty()

	// TrackError announces that a track failed to play and was discarded.
	TrackError(track domain.Track, err error)
}
