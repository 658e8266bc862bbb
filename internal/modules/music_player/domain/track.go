package domain

import "strconv"

// Sentinel values used when the resolver could not supply display metadata.
// Downstream formatting never has to branch on missing fields.
const (
	UnknownTitle     = "Unknown title"
	UnknownRequester = "Unknown"
)

// Track represents a resolved, playable audio track.
// A Track is immutable after construction: it is built once by the resolver,
// owned by the queue, moved into the session's current slot, and discarded
// when playback ends or is skipped.
type Track struct {
	SourceRef       string // media locator the connection sink can stream
	Title           string
	DurationSeconds int // 0 means unknown
	Requester       string
	ThumbnailURL    string // optional
	PageURL         string // optional, for display links
}

// NewTrack creates a Track, applying sentinel defaults for missing display
// fields and clamping negative durations to unknown.
func NewTrack(
	sourceRef string,
	title string,
	durationSeconds int,
	requester string,
	thumbnailURL string,
	pageURL string,
) Track {
	if title == "" {
		title = UnknownTitle
	}
	if requester == "" {
		requester = UnknownRequester
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	return Track{
		SourceRef:       sourceRef,
		Title:           title,
		DurationSeconds: durationSeconds,
		Requester:       requester,
		ThumbnailURL:    thumbnailURL,
		PageURL:         pageURL,
	}
}

// IsValid returns true if the track can be streamed.
func (t Track) IsValid() bool {
	return t.SourceRef != ""
}

// FormattedDuration returns the duration as mm:ss, or hh:mm:ss for tracks of
// an hour or longer. An unknown duration formats as "00:00".
func (t Track) FormattedDuration() string {
	return FormatDuration(t.DurationSeconds)
}

// FormatDuration formats a duration in seconds as mm:ss or hh:mm:ss.
func FormatDuration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
