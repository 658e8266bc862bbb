package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// QueueInput contains the input for the Queue use case.
type QueueInput struct {
	GuildID snowflake.ID
	Limit   int // Maximum pending tracks to return; <= 0 means all
}

// QueueOutput contains the result of the Queue use case.
type QueueOutput struct {
	Current *domain.Track
	Pending []domain.Track
	Length  int // Total pending tracks, which may exceed len(Pending)
}

// Queue returns the current track and the pending queue for display.
func (p *PlaybackService) Queue(ctx context.Context, input QueueInput) (*QueueOutput, error) {
	sess := p.registry.Get(input.GuildID)
	if sess == nil {
		return nil, ErrNotConnected
	}

	snap, err := sess.Snapshot(ctx, input.Limit)
	if err != nil {
		return nil, mapSessionError(err)
	}
	if snap.Current == nil && snap.Length == 0 {
		return nil, ErrQueueEmpty
	}

	return &QueueOutput{
		Current: snap.Current,
		Pending: snap.Pending,
		Length:  snap.Length,
	}, nil
}
