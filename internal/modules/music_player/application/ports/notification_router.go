package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// NotificationRouter binds guilds to the text channel their playback
// notifications go to. The notifier returned by NotifierFor reads the
// binding at send time, so rebinding redirects future notifications without
// touching the running session.
type NotificationRouter interface {
	// NotifierFor returns the guild's notifier. The notifier drops
	// notifications while the guild has no bound channel.
	NotifierFor(guildID snowflake.ID) StatusNotifier

	// BindChannel points the guild's notifications at the given channel.
	BindChannel(guildID, channelID snowflake.ID)

	// Unbind removes the guild's binding. Called on session termination.
	Unbind(guildID snowflake.ID)
}
