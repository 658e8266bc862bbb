package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
)

// guildSink is the per-guild audio output backed by a Lavalink player.
type guildSink struct {
	adapter *LavalinkAdapter
	guildID snowflake.ID

	mu        sync.Mutex
	connected bool
	onDone    func(error)
}

func newGuildSink(adapter *LavalinkAdapter, guildID snowflake.ID) *guildSink {
	return &guildSink{
		adapter: adapter,
		guildID: guildID,
	}
}

// IsConnected reports whether the voice connection is still live.
func (s *guildSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *guildSink) setConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// StartStreaming loads the source on the Lavalink node and starts playback.
// The completion callback fires once when the track finishes or fails.
func (s *guildSink) StartStreaming(ctx context.Context, sourceRef string, onDone func(error)) error {
	node := s.adapter.link.BestNode()
	if node == nil {
		return &ports.StreamStartError{
			SourceRef: sourceRef,
			Err:       fmt.Errorf("no available Lavalink node"),
		}
	}

	result, err := node.LoadTracks(ctx, sourceRef)
	if err != nil {
		return &ports.StreamStartError{SourceRef: sourceRef, Err: err}
	}

	track, err := firstTrack(result)
	if err != nil {
		return &ports.StreamStartError{SourceRef: sourceRef, Err: err}
	}

	s.mu.Lock()
	s.onDone = onDone
	s.mu.Unlock()

	player := s.adapter.link.Player(s.guildID)
	// WithEncodedTrack avoids the userData:null issue on some node versions.
	if err := player.Update(ctx, lavalink.WithEncodedTrack(track.Encoded)); err != nil {
		s.mu.Lock()
		s.onDone = nil
		s.mu.Unlock()
		return &ports.StreamStartError{SourceRef: sourceRef, Err: err}
	}

	return nil
}

// Stop halts the current stream. The pending completion callback is
// discarded so the stop does not masquerade as a track ending on its own.
func (s *guildSink) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.onDone = nil
	s.mu.Unlock()

	player := s.adapter.link.ExistingPlayer(s.guildID)
	if player == nil {
		return nil
	}

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// SetVolume adjusts playback volume, v in [0,1].
func (s *guildSink) SetVolume(ctx context.Context, v float64) error {
	player := s.adapter.link.Player(s.guildID)

	if err := player.Update(ctx, lavalink.WithVolume(int(v*100))); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// Disconnect destroys the Lavalink player and leaves the voice channel.
func (s *guildSink) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	s.onDone = nil
	s.connected = false
	s.mu.Unlock()

	if player := s.adapter.link.ExistingPlayer(s.guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", s.guildID, "error", err)
		}
	}

	s.adapter.removeSink(s.guildID)

	err := s.adapter.session.ChannelVoiceJoinManual(s.guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// completeStream fires the pending completion callback, if any.
func (s *guildSink) completeStream(err error) {
	s.mu.Lock()
	onDone := s.onDone
	s.onDone = nil
	s.mu.Unlock()

	if onDone != nil {
		onDone(err)
	}
}

// firstTrack extracts the playable track from a Lavalink load result.
func firstTrack(result *lavalink.LoadResult) (lavalink.Track, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil
	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return lavalink.Track{}, fmt.Errorf("playlist is empty")
		}
		return data.Tracks[0], nil
	case lavalink.Search:
		if len(data) == 0 {
			return lavalink.Track{}, fmt.Errorf("no search results")
		}
		return data[0], nil
	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("load failed: %s", data.Message)
	default:
		return lavalink.Track{}, fmt.Errorf("no tracks found")
	}
}

var _ ports.ConnectionSink = (*guildSink)(nil)
