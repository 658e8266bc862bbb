package usecases

import "errors"

// Domain errors for the music player module.
var (
	// ErrNotConnected is returned when an operation requires an active
	// playback session.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrEmptyQuery is returned when the play request carries no usable query.
	ErrEmptyQuery = errors.New("nothing to search for")

	// ErrInvalidVolume is returned when the volume is outside 0-100.
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")
)
