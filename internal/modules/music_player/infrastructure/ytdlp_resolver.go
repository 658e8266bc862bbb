package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// resolverPrintFormat makes yt-dlp emit one tab-separated line per entry:
// stream URL, title, duration in seconds, thumbnail, page URL.
const resolverPrintFormat = "%(url)s\t%(title)s\t%(duration)s\t%(thumbnail)s\t%(webpage_url)s"

// YtdlpConfig contains yt-dlp extraction configuration.
type YtdlpConfig struct {
	// CookiesFile points at a Netscape cookies file used on the fallback
	// attempt for sources that demand a signed-in session. Optional.
	CookiesFile string
}

// YtdlpResolver resolves queries into playable tracks by shelling out to
// yt-dlp. A retryable failure gets exactly one second attempt with
// alternative extractor options.
type YtdlpResolver struct {
	config YtdlpConfig
}

// NewYtdlpResolver creates a new YtdlpResolver.
func NewYtdlpResolver(config YtdlpConfig) *YtdlpResolver {
	return &YtdlpResolver{config: config}
}

// Resolve extracts the best match for the query.
func (r *YtdlpResolver) Resolve(
	ctx context.Context,
	query domain.SearchQuery,
	requester string,
) (domain.Track, error) {
	track, err := r.extract(ctx, query, requester, false)
	if err == nil {
		return track, nil
	}

	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) && resErr.Retryable() {
		slog.Warn("track resolution failed, retrying with fallback options",
			"query", query.Input,
			"kind", resErr.Kind,
			"error", err,
		)
		return r.extract(ctx, query, requester, true)
	}

	return domain.Track{}, err
}

func (r *YtdlpResolver) extract(
	ctx context.Context,
	query domain.SearchQuery,
	requester string,
	fallback bool,
) (domain.Track, error) {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		NoPlaylist().
		Format("bestaudio/best").
		Print(resolverPrintFormat)

	args := []string{"--socket-timeout", "30"}
	if fallback {
		cmd.ExtractorArgs("youtube:player_client=android,web").
			PreferFreeFormats().
			NoCheckCertificates()
		if r.config.CookiesFile != "" {
			cmd.Cookies(r.config.CookiesFile)
		}
	}

	res, err := cmd.Run(ctx, append(args, query.ResolverQuery())...)
	if err != nil {
		return domain.Track{}, classifyResolutionError(err)
	}

	return parseResolvedTrack(res.Stdout, requester)
}

// parseResolvedTrack turns yt-dlp print output into a track. Only the first
// entry is used.
func parseResolvedTrack(stdout, requester string) (domain.Track, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return domain.Track{}, domain.NewResolutionError(domain.ResolutionNotFound, "no results")
	}

	fields := strings.Split(lines[0], "\t")
	if len(fields) < 5 {
		return domain.Track{}, domain.NewResolutionError(domain.ResolutionUnknown, "malformed extractor output")
	}

	sourceRef := strings.TrimSpace(fields[0])
	if sourceRef == "" || sourceRef == "NA" {
		return domain.Track{}, domain.NewResolutionError(domain.ResolutionNotFound, "entry has no stream URL")
	}

	return domain.NewTrack(
		sourceRef,
		naToEmpty(fields[1]),
		parseDurationSeconds(fields[2]),
		requester,
		naToEmpty(fields[3]),
		naToEmpty(fields[4]),
	), nil
}

func naToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}

func parseDurationSeconds(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// classifyResolutionError maps a yt-dlp failure onto the resolution error
// taxonomy by inspecting the extractor's message.
func classifyResolutionError(err error) *domain.ResolutionError {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "sign in to confirm"),
		strings.Contains(msg, "please sign in"),
		strings.Contains(msg, "login required"),
		strings.Contains(msg, "not available in your country"):
		return domain.NewResolutionError(domain.ResolutionAuthRequired, err.Error())

	case strings.Contains(msg, "video unavailable"),
		strings.Contains(msg, "no results"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "private video"),
		strings.Contains(msg, "404"):
		return domain.NewResolutionError(domain.ResolutionNotFound, err.Error())

	case strings.Contains(msg, "timed out"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "temporarily"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "429"):
		return domain.NewResolutionError(domain.ResolutionTransient, err.Error())

	default:
		return domain.NewResolutionError(domain.ResolutionUnknown, err.Error())
	}
}

var _ ports.TrackResolver = (*YtdlpResolver)(nil)
