package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnector establishes voice connections and hands out the sink bound
// to them. Connecting a guild that is already connected moves the bot to the
// new channel and returns the same sink.
type VoiceConnector interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (ConnectionSink, error)
}
