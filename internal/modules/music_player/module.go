package music_player

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/NIGHTMARE76/DC-Bot/internal/bot"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/session"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/usecases"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/infrastructure"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/presentation"
)

// shutdownTimeout bounds how long Shutdown waits for sessions to close.
const shutdownTimeout = 10 * time.Second

func init() {
	bot.Register(&MusicPlayerModule{})
}

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	handlers        *presentation.Handlers
	voice           *usecases.VoiceSessionService
	lavalinkAdapter *infrastructure.LavalinkAdapter
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.handlers.HandleJoin,
		"leave":      m.handlers.HandleLeave,
		"play":       m.handlers.HandlePlay,
		"skip":       m.handlers.HandleSkip,
		"stop":       m.handlers.HandleStop,
		"queue":      m.handlers.HandleQueue,
		"nowplaying": m.handlers.HandleNowPlaying,
		"volume":     m.handlers.HandleVolume,
		"stats":      m.handlers.HandleStats,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			if m.lavalinkAdapter != nil {
				m.lavalinkAdapter.OnVoiceServerUpdate(event)
			}
		},
		func(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			if m.lavalinkAdapter != nil {
				m.lavalinkAdapter.OnVoiceStateUpdate(event)
			}
		},
	}
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(deps.Session, infrastructure.LavalinkConfig{
		Address:  cfg.LavalinkAddress,
		Password: cfg.LavalinkPassword,
	})
	if err != nil {
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	router := infrastructure.NewDiscordNotifierRouter(deps.Session)
	resolver := infrastructure.NewYtdlpResolver(infrastructure.YtdlpConfig{
		CookiesFile: cfg.YtdlpCookiesFile,
	})

	registry := session.NewRegistry()
	m.voice = usecases.NewVoiceSessionService(
		registry,
		lavalinkAdapter,
		voiceState,
		router,
		deps.Metrics,
		session.Config{IdleTimeout: cfg.PlayerIdleTimeout},
	)
	playback := usecases.NewPlaybackService(registry, m.voice, resolver, router)

	m.handlers = presentation.NewHandlers(m.voice, playback, deps.Metrics)

	slog.Info("music_player module initialized",
		"lavalink_address", cfg.LavalinkAddress,
		"idle_timeout", cfg.PlayerIdleTimeout,
	)

	return nil
}

// Shutdown closes every live session and the Lavalink connection.
func (m *MusicPlayerModule) Shutdown() error {
	if m.voice != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		m.voice.CloseAll(ctx)
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Link().Close()
	}

	return nil
}
