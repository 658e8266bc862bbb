package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/metrics"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/session"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID // Optional: rebinds notifications if non-zero
	ChannelID     snowflake.ID // Optional: specific channel to join (0 means use user's channel)
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	ChannelID snowflake.ID
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID snowflake.ID
}

// VoiceSessionService owns the lifecycle of playback sessions: joining
// voice, creating the session for a guild, and tearing it down.
type VoiceSessionService struct {
	registry   *session.Registry
	connector  ports.VoiceConnector
	voiceState ports.VoiceStateProvider
	router     ports.NotificationRouter
	collector  *metrics.Collector
	sessionCfg session.Config
}

// NewVoiceSessionService creates a new VoiceSessionService.
func NewVoiceSessionService(
	registry *session.Registry,
	connector ports.VoiceConnector,
	voiceState ports.VoiceStateProvider,
	router ports.NotificationRouter,
	collector *metrics.Collector,
	sessionCfg session.Config,
) *VoiceSessionService {
	return &VoiceSessionService{
		registry:   registry,
		connector:  connector,
		voiceState: voiceState,
		router:     router,
		collector:  collector,
		sessionCfg: sessionCfg,
	}
}

// Join connects the bot to a voice channel and ensures a session exists for
// the guild. With no explicit channel it joins the user's current one.
func (v *VoiceSessionService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	channelID := input.ChannelID
	if channelID == 0 {
		userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
		if userChannel == 0 {
			return nil, ErrUserNotInVoice
		}
		channelID = userChannel
	}

	if input.TextChannelID != 0 {
		v.router.BindChannel(input.GuildID, input.TextChannelID)
	}

	// Already connected: move to the requested channel, keeping the
	// session and its queue intact.
	if v.registry.Get(input.GuildID) != nil {
		if _, err := v.connector.Connect(ctx, input.GuildID, channelID); err != nil {
			return nil, err
		}
		return &JoinOutput{ChannelID: channelID}, nil
	}

	_, _, err := v.registry.GetOrCreate(input.GuildID, func() (*session.Session, error) {
		sink, err := v.connector.Connect(ctx, input.GuildID, channelID)
		if err != nil {
			return nil, err
		}
		return session.New(
			input.GuildID,
			sink,
			v.router.NotifierFor(input.GuildID),
			v.collector,
			v.sessionCfg,
			v.onTerminate,
		), nil
	})
	if err != nil {
		return nil, err
	}

	return &JoinOutput{ChannelID: channelID}, nil
}

// EnsureSession returns the guild's session, joining the user's voice
// channel first if none exists.
func (v *VoiceSessionService) EnsureSession(
	ctx context.Context,
	guildID, userID, textChannelID snowflake.ID,
) (*session.Session, error) {
	if s := v.registry.Get(guildID); s != nil {
		if textChannelID != 0 {
			v.router.BindChannel(guildID, textChannelID)
		}
		return s, nil
	}

	if _, err := v.Join(ctx, JoinInput{
		GuildID:       guildID,
		UserID:        userID,
		TextChannelID: textChannelID,
	}); err != nil {
		return nil, err
	}

	s := v.registry.Get(guildID)
	if s == nil {
		// The freshly created session terminated before we could return it.
		return nil, ErrNotConnected
	}
	return s, nil
}

// Leave terminates the guild's session and disconnects from voice.
func (v *VoiceSessionService) Leave(ctx context.Context, input LeaveInput) error {
	s := v.registry.Get(input.GuildID)
	if s == nil {
		return ErrNotConnected
	}
	return s.Close(ctx)
}

// CloseAll terminates every live session. Used on shutdown.
func (v *VoiceSessionService) CloseAll(ctx context.Context) {
	v.registry.ForEach(func(s *session.Session) {
		_ = s.Close(ctx)
	})
}

// onTerminate runs once per session from its loop goroutine.
func (v *VoiceSessionService) onTerminate(guildID snowflake.ID) {
	v.registry.Remove(guildID)
	v.router.Unbind(guildID)
}
