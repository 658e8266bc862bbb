package usecases

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/session"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// SessionEnsurer provides a session for a guild, joining voice first when
// none exists. Implemented by VoiceSessionService.
type SessionEnsurer interface {
	EnsureSession(ctx context.Context, guildID, userID, textChannelID snowflake.ID) (*session.Session, error)
}

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID
	Query         string
	Requester     string
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Track      domain.Track
	Position   int  // tracks ahead of this one; 0 when it started immediately
	StartedNow bool
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID // Optional: rebinds notifications if non-zero
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID // Optional: rebinds notifications if non-zero
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID // Optional: rebinds notifications if non-zero
	Volume        int          // 0-100
}

// NowPlayingInput contains the input for the NowPlaying use case.
type NowPlayingInput struct {
	GuildID snowflake.ID
}

// NowPlayingOutput contains the result of the NowPlaying use case.
type NowPlayingOutput struct {
	Track  domain.Track
	Volume int // 0-100
}

// PlaybackService handles playback operations against live sessions.
type PlaybackService struct {
	registry *session.Registry
	sessions SessionEnsurer
	resolver ports.TrackResolver
	router   ports.NotificationRouter
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	registry *session.Registry,
	sessions SessionEnsurer,
	resolver ports.TrackResolver,
	router ports.NotificationRouter,
) *PlaybackService {
	return &PlaybackService{
		registry: registry,
		sessions: sessions,
		resolver: resolver,
		router:   router,
	}
}

// Enqueue resolves a query into a track and appends it to the guild's
// queue, joining the user's voice channel first if needed. Resolution
// failures come back as *domain.ResolutionError.
func (p *PlaybackService) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrEmptyQuery
	}

	sess, err := p.sessions.EnsureSession(ctx, input.GuildID, input.UserID, input.TextChannelID)
	if err != nil {
		return nil, err
	}

	track, err := p.resolver.Resolve(ctx, query, input.Requester)
	if err != nil {
		return nil, err
	}

	position, err := sess.Enqueue(ctx, track)
	if err != nil {
		return nil, mapSessionError(err)
	}

	return &EnqueueOutput{
		Track:      track,
		Position:   position,
		StartedNow: position == 0,
	}, nil
}

// Skip halts the current track and advances to the next one.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) error {
	sess := p.registry.Get(input.GuildID)
	if sess == nil {
		return ErrNotConnected
	}
	if input.TextChannelID != 0 {
		p.router.BindChannel(input.GuildID, input.TextChannelID)
	}

	return mapSessionError(sess.Skip(ctx))
}

// Stop halts playback and clears the queue. The session stays connected.
func (p *PlaybackService) Stop(ctx context.Context, input StopInput) error {
	sess := p.registry.Get(input.GuildID)
	if sess == nil {
		return ErrNotConnected
	}
	if input.TextChannelID != 0 {
		p.router.BindChannel(input.GuildID, input.TextChannelID)
	}

	return mapSessionError(sess.Stop(ctx))
}

// SetVolume sets the guild's playback volume as a percentage.
func (p *PlaybackService) SetVolume(ctx context.Context, input SetVolumeInput) error {
	if input.Volume < 0 || input.Volume > 100 {
		return ErrInvalidVolume
	}

	sess := p.registry.Get(input.GuildID)
	if sess == nil {
		return ErrNotConnected
	}
	if input.TextChannelID != 0 {
		p.router.BindChannel(input.GuildID, input.TextChannelID)
	}

	return mapSessionError(sess.SetVolume(ctx, float64(input.Volume)/100))
}

// NowPlaying returns the currently streaming track.
func (p *PlaybackService) NowPlaying(ctx context.Context, input NowPlayingInput) (*NowPlayingOutput, error) {
	sess := p.registry.Get(input.GuildID)
	if sess == nil {
		return nil, ErrNotConnected
	}

	snap, err := sess.Snapshot(ctx, 0)
	if err != nil {
		return nil, mapSessionError(err)
	}
	if snap.Current == nil {
		return nil, ErrNotPlaying
	}

	return &NowPlayingOutput{
		Track:  *snap.Current,
		Volume: int(snap.Volume * 100),
	}, nil
}

// mapSessionError translates session errors into use case errors.
func mapSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrSessionClosed):
		return ErrNotConnected
	case errors.Is(err, session.ErrNotPlaying):
		return ErrNotPlaying
	default:
		return err
	}
}
