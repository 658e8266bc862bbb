package music_player

import "time"

// Config holds music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS" envDefault:"localhost:2333"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD" envDefault:"youshallnotpass"`

	// YtdlpCookiesFile is used on fallback resolution attempts for sources
	// behind a sign-in wall.
	YtdlpCookiesFile string `env:"YTDLP_COOKIES_FILE"`

	// PlayerIdleTimeout is how long an idle session survives before the bot
	// disconnects from voice.
	PlayerIdleTimeout time.Duration `env:"PLAYER_IDLE_TIMEOUT" envDefault:"5m"`
}
