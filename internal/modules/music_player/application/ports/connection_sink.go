package ports

import (
	"context"
	"fmt"
)

// StreamStartError indicates a source could not be opened for streaming.
type StreamStartError struct {
	SourceRef string
	Err       error
}

// Error implements the error interface.
func (e *StreamStartError) Error() string {
	return fmt.Sprintf("failed to start streaming %s: %v", e.SourceRef, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StreamStartError) Unwrap() error {
	return e.Err
}

// ConnectionSink is the live audio output channel for one guild.
// StartStreaming must deliver exactly one onDone call per successful start,
// reporting nil on natural completion or the error that ended the stream.
// The callback may fire on any goroutine; implementations of the session
// only post a signal from it and never mutate state there.
type ConnectionSink interface {
	// IsConnected reports whether the voice connection is still live.
	IsConnected() bool

	// StartStreaming begins playback of the given source.
	// Returns a *StreamStartError if the source cannot be opened.
	StartStreaming(ctx context.Context, sourceRef string, onDone func(error)) error

	// Stop halts the current stream, if any.
	Stop(ctx context.Context) error

	// SetVolume adjusts the output volume, v in [0,1].
	SetVolume(ctx context.Context, v float64) error

	// Disconnect releases the voice connection. Called once on session
	// termination.
	Disconnect(ctx context.Context) error
}
