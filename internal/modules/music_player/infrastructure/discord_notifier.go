package infrastructure

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorRed = 0xE74C3C
)

// DiscordNotifierRouter sends playback notifications to the text channel
// bound to each guild. Notifications are best-effort: failures are logged
// and never reach the playback loop.
type DiscordNotifierRouter struct {
	session *discordgo.Session

	mu       sync.RWMutex
	channels map[snowflake.ID]snowflake.ID
}

// NewDiscordNotifierRouter creates a new DiscordNotifierRouter.
func NewDiscordNotifierRouter(session *discordgo.Session) *DiscordNotifierRouter {
	return &DiscordNotifierRouter{
		session:  session,
		channels: make(map[snowflake.ID]snowflake.ID),
	}
}

// NotifierFor returns the guild's notifier. The returned notifier reads the
// channel binding at send time.
func (r *DiscordNotifierRouter) NotifierFor(guildID snowflake.ID) ports.StatusNotifier {
	return &guildNotifier{router: r, guildID: guildID}
}

// BindChannel points the guild's notifications at the given channel.
func (r *DiscordNotifierRouter) BindChannel(guildID, channelID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[guildID] = channelID
}

// Unbind removes the guild's binding.
func (r *DiscordNotifierRouter) Unbind(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, guildID)
}

func (r *DiscordNotifierRouter) channelFor(guildID snowflake.ID) (snowflake.ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channelID, ok := r.channels[guildID]
	return channelID, ok
}

func (r *DiscordNotifierRouter) sendEmbed(guildID snowflake.ID, embed *discordgo.MessageEmbed) {
	channelID, ok := r.channelFor(guildID)
	if !ok {
		return
	}

	if _, err := r.session.ChannelMessageSendEmbed(channelID.String(), embed); err != nil {
		slog.Warn("failed to send playback notification",
			"guild", guildID,
			"channel", channelID,
			"error", err,
		)
	}
}

// guildNotifier is the per-guild view handed to a session.
type guildNotifier struct {
	router  *DiscordNotifierRouter
	guildID snowflake.ID
}

// NowPlaying announces the track that just started streaming.
func (n *guildNotifier) NowPlaying(track domain.Track) {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title: track.Title,
		URL:   track.PageURL,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Requested by %s", track.Requester),
		},
	}

	if track.DurationSeconds > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  track.FormattedDuration(),
			Inline: true,
		})
	}
	if track.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: track.ThumbnailURL,
		}
	}

	n.router.sendEmbed(n.guildID, embed)
}

// QueueEmpty announces that playback finished and the queue drained.
func (n *guildNotifier) QueueEmpty() {
	n.router.sendEmbed(n.guildID, &discordgo.MessageEmbed{
		Description: "Queue ended.",
	})
}

// TrackError announces that a track failed to play and was discarded.
func (n *guildNotifier) TrackError(track domain.Track, err error) {
	slog.Warn("announcing track failure", "guild", n.guildID, "track", track.Title, "error", err)

	n.router.sendEmbed(n.guildID, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Could not play **%s**, skipping it.", track.Title),
		Color:       colorRed,
	})
}

// Ensure the router implements the port.
var _ ports.NotificationRouter = (*DiscordNotifierRouter)(nil)
