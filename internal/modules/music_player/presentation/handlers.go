package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/bot"
	"github.com/NIGHTMARE76/DC-Bot/internal/metrics"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// queueDisplayLimit caps how many pending tracks the /queue embed lists.
const queueDisplayLimit = 10

// Handlers holds all the command handlers.
type Handlers struct {
	voice     *usecases.VoiceSessionService
	playback  *usecases.PlaybackService
	collector *metrics.Collector
}

// NewHandlers creates new Handlers.
func NewHandlers(
	voice *usecases.VoiceSessionService,
	playback *usecases.PlaybackService,
	collector *metrics.Collector,
) *Handlers {
	return &Handlers{
		voice:     voice,
		playback:  playback,
		collector: collector,
	}
}

// interactionIDs extracts the guild, user, and channel IDs of an interaction.
func interactionIDs(i *discordgo.InteractionCreate) (guildID, userID, channelID snowflake.ID, err error) {
	guildID, err = snowflake.Parse(i.GuildID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid guild ID: %w", err)
	}
	if i.Member != nil && i.Member.User != nil {
		userID, err = snowflake.Parse(i.Member.User.ID)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid user ID: %w", err)
		}
	}
	channelID, err = snowflake.Parse(i.ChannelID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid channel ID: %w", err)
	}
	return guildID, userID, channelID, nil
}

// HandleJoin handles the /join command.
func (h *Handlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, channelID, err := interactionIDs(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			voiceChannelID, _ = snowflake.Parse(opt.ChannelValue(s).ID)
		}
	}

	output, err := h.voice.Join(context.Background(), usecases.JoinInput{
		GuildID:       guildID,
		UserID:        userID,
		TextChannelID: channelID,
		ChannelID:     voiceChannelID,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", output.ChannelID))
}

// HandleLeave handles the /leave command.
func (h *Handlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.voice.Leave(context.Background(), usecases.LeaveInput{GuildID: guildID}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Disconnected.")
}

// HandlePlay handles the /play command. Resolution can take seconds, so the
// interaction is deferred and answered with a followup.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, userID, channelID, err := interactionIDs(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	output, err := h.playback.Enqueue(context.Background(), usecases.EnqueueInput{
		GuildID:       guildID,
		UserID:        userID,
		TextChannelID: channelID,
		Query:         query,
		Requester:     displayName(i.Member),
	})
	if err != nil {
		return followupError(r, errorMessage(err))
	}

	var description string
	switch {
	case output.StartedNow && output.Track.PageURL != "":
		description = fmt.Sprintf("Now playing [%s](%s).", output.Track.Title, output.Track.PageURL)
	case output.StartedNow:
		description = fmt.Sprintf("Now playing **%s**.", output.Track.Title)
	case output.Track.PageURL != "":
		description = fmt.Sprintf("Added [%s](%s) to the queue (position %d).",
			output.Track.Title, output.Track.PageURL, output.Position)
	default:
		description = fmt.Sprintf("Added **%s** to the queue (position %d).",
			output.Track.Title, output.Position)
	}

	return followupSuccess(r, description)
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, _, channelID, err := interactionIDs(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	if err := h.playback.Skip(context.Background(), usecases.SkipInput{
		GuildID:       guildID,
		TextChannelID: channelID,
	}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Skipped the current track.")
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, _, channelID, err := interactionIDs(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	if err := h.playback.Stop(context.Background(), usecases.StopInput{
		GuildID:       guildID,
		TextChannelID: channelID,
	}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Stopped playback and cleared the queue.")
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.playback.Queue(context.Background(), usecases.QueueInput{
		GuildID: guildID,
		Limit:   queueDisplayLimit,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{buildQueueEmbed(output)},
		},
	})
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.playback.NowPlaying(context.Background(), usecases.NowPlayingInput{
		GuildID: guildID,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Title:  output.Track.Title,
		URL:    output.Track.PageURL,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Volume", Value: fmt.Sprintf("%d%%", output.Volume), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Requested by %s", output.Track.Requester),
		},
	}
	if output.Track.DurationSeconds > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  output.Track.FormattedDuration(),
			Inline: true,
		})
	}
	if output.Track.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: output.Track.ThumbnailURL}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, _, channelID, err := interactionIDs(i)
	if err != nil {
		return respondError(r, "Invalid interaction")
	}

	var percent int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "percent" {
			percent = int(opt.IntValue())
		}
	}

	if err := h.playback.SetVolume(context.Background(), usecases.SetVolumeInput{
		GuildID:       guildID,
		TextChannelID: channelID,
		Volume:        percent,
	}); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", percent))
}

// HandleStats handles the /stats command.
func (h *Handlers) HandleStats(
	_ *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	snap := h.collector.Snapshot()

	totalCommands := 0
	for _, count := range snap.CommandCounts {
		totalCommands += count
	}

	embed := &discordgo.MessageEmbed{
		Title: "Statistics",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Uptime", Value: metrics.FormatUptime(snap.Uptime()), Inline: true},
			{Name: "Commands handled", Value: fmt.Sprintf("%d", totalCommands), Inline: true},
			{Name: "Tracks played", Value: fmt.Sprintf("%d", snap.TracksPlayed), Inline: true},
			{Name: "Track errors", Value: fmt.Sprintf("%d", snap.TrackErrors), Inline: true},
			{Name: "Active sessions", Value: fmt.Sprintf("%d", snap.ActiveSessions), Inline: true},
		},
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// buildQueueEmbed renders the queue listing.
func buildQueueEmbed(output *usecases.QueueOutput) *discordgo.MessageEmbed {
	var b strings.Builder

	if output.Current != nil {
		fmt.Fprintf(&b, "▶ **%s**", output.Current.Title)
		if output.Current.DurationSeconds > 0 {
			fmt.Fprintf(&b, " (%s)", output.Current.FormattedDuration())
		}
		b.WriteString("\n")
	}
	for n, track := range output.Pending {
		fmt.Fprintf(&b, "%d. %s", n+1, track.Title)
		if track.DurationSeconds > 0 {
			fmt.Fprintf(&b, " (%s)", track.FormattedDuration())
		}
		b.WriteString("\n")
	}
	if remaining := output.Length - len(output.Pending); remaining > 0 {
		fmt.Fprintf(&b, "…and %d more", remaining)
	}

	return &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: b.String(),
	}
}

// displayName returns the name to credit a track request to.
func displayName(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// errorMessage maps errors onto user-facing messages.
func errorMessage(err error) string {
	var resErr *usecases.ResolutionError
	if errors.As(err, &resErr) {
		switch resErr.Kind {
		case usecases.ResolutionNotFound:
			return "No results found for that query."
		case usecases.ResolutionAuthRequired:
			return "That source requires a signed-in session and could not be played."
		case usecases.ResolutionTransient:
			return "The source did not respond. Try again in a moment."
		default:
			return "Failed to resolve that query."
		}
	}
	return capitalize(err.Error())
}

// capitalize uppercases the first letter for display in embeds.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func followupError(r bot.Responder, message string) error {
	return r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}

func followupSuccess(r bot.Responder, message string) error {
	return r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: message,
				Color:       colorSuccess,
			},
		},
	})
}
