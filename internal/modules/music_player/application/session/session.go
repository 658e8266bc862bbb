// Package session implements the per-guild playback state machine. Each
// session runs one goroutine that owns the queue and the current track;
// every external trigger (enqueue, skip, stop, stream completion, idle
// deadline, connection poll) reaches it as a message, never as a direct
// mutation from another goroutine.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/metrics"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

// State is the lifecycle state of a session.
type State int32

const (
	// StateIdle means no track is streaming; the queue may be empty.
	StateIdle State = iota
	// StatePlaying means the current track is streaming.
	StatePlaying
	// StateAwaitingAdvance means the current track just ended and the loop
	// is about to pop the next track or go idle.
	StateAwaitingAdvance
	// StateTerminated is final: the loop has stopped and resources are
	// released.
	StateTerminated
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateAwaitingAdvance:
		return "awaiting_advance"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const (
	// DefaultIdleTimeout is how long an idle session with an empty queue
	// survives before cleaning itself up.
	DefaultIdleTimeout = 5 * time.Minute

	// DefaultPollInterval is how often the loop checks the sink is still
	// connected.
	DefaultPollInterval = time.Minute

	// DefaultVolume is the initial playback volume.
	DefaultVolume = 0.5

	commandBufferSize = 16
)

// Errors returned from the session's request methods.
var (
	// ErrSessionClosed is returned when the session has terminated.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNotPlaying is returned by Skip when no track is streaming.
	ErrNotPlaying = errors.New("nothing is currently playing")
)

// Config tunes session timing. Zero values select the defaults.
type Config struct {
	IdleTimeout  time.Duration
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Snapshot is a consistent view of the session for display.
type Snapshot struct {
	State   State
	Current *domain.Track
	Pending []domain.Track
	Length  int
	Volume  float64
}

// advanceSignal is the single-slot wake signal posted by the sink's
// completion callback. The generation guards against completions from
// streams that were already halted by skip or stop.
type advanceSignal struct {
	gen uint64
	err error
}

type enqueueCmd struct {
	track domain.Track
	reply chan int
}

type skipCmd struct {
	reply chan error
}

type stopCmd struct {
	reply chan error
}

type volumeCmd struct {
	volume float64
	reply  chan error
}

type snapshotCmd struct {
	limit int
	reply chan Snapshot
}

// Session is the playback state machine for one guild.
type Session struct {
	guildID     snowflake.ID
	sink        ports.ConnectionSink
	notifier    ports.StatusNotifier
	collector   *metrics.Collector
	cfg         Config
	onTerminate func(snowflake.ID)

	cmds    chan any
	advance chan advanceSignal
	closing chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	state     atomic.Int32

	// Loop-owned fields below; touched only by run().
	queue   *domain.Queue
	current *domain.Track
	volume  float64
	gen     uint64
}

// New creates a session and starts its loop. The sink must already be
// connected. onTerminate is invoked exactly once from the loop goroutine
// after cleanup, and may be nil.
func New(
	guildID snowflake.ID,
	sink ports.ConnectionSink,
	notifier ports.StatusNotifier,
	collector *metrics.Collector,
	cfg Config,
	onTerminate func(snowflake.ID),
) *Session {
	s := &Session{
		guildID:     guildID,
		sink:        sink,
		notifier:    notifier,
		collector:   collector,
		cfg:         cfg.withDefaults(),
		onTerminate: onTerminate,
		cmds:        make(chan any, commandBufferSize),
		advance:     make(chan advanceSignal, 1),
		closing:     make(chan struct{}),
		stopped:     make(chan struct{}),
		queue:       domain.NewQueue(),
		volume:      DefaultVolume,
	}

	s.record(metrics.SessionOpened())
	slog.Info("session created", "guild", guildID)

	go s.run()
	return s
}

// GuildID returns the guild this session belongs to.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Enqueue appends a resolved track and wakes the loop. Returns the track's
// position: 0 means it started streaming immediately, n > 0 means n tracks
// are ahead of it.
func (s *Session) Enqueue(ctx context.Context, track domain.Track) (int, error) {
	reply := make(chan int, 1)
	if err := s.send(ctx, enqueueCmd{track: track, reply: reply}); err != nil {
		return 0, err
	}
	return s.awaitInt(ctx, reply)
}

// Skip halts the current track and advances. Returns ErrNotPlaying if no
// track is streaming.
func (s *Session) Skip(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, skipCmd{reply: reply}); err != nil {
		return err
	}
	return s.awaitErr(ctx, reply)
}

// Stop halts playback and clears the queue. The session stays alive in the
// idle state.
func (s *Session) Stop(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, stopCmd{reply: reply}); err != nil {
		return err
	}
	return s.awaitErr(ctx, reply)
}

// SetVolume sets the playback volume, clamped to [0,1].
func (s *Session) SetVolume(ctx context.Context, v float64) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, volumeCmd{volume: v, reply: reply}); err != nil {
		return err
	}
	return s.awaitErr(ctx, reply)
}

// Snapshot returns the current track and up to limit pending tracks.
func (s *Session) Snapshot(ctx context.Context, limit int) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := s.send(ctx, snapshotCmd{limit: limit, reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-s.stopped:
		return Snapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close terminates the session and waits for the loop to release its
// resources. Safe to call repeatedly and on an already-terminated session.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closing)
	})

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) send(ctx context.Context, cmd any) error {
	select {
	case s.cmds <- cmd:
		return nil
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) awaitInt(ctx context.Context, reply chan int) (int, error) {
	select {
	case v := <-reply:
		return v, nil
	case <-s.stopped:
		return 0, ErrSessionClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *Session) awaitErr(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the session loop. It is the only goroutine that touches the queue,
// the current slot, and the stream generation.
func (s *Session) run() {
	defer close(s.stopped)
	defer s.cleanup()

	idle := time.NewTimer(s.cfg.IdleTimeout)
	defer idle.Stop()
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		// The idle deadline only counts down while there is nothing to
		// play and nothing playing.
		var idleC <-chan time.Time
		if s.current == nil && s.queue.IsEmpty() {
			idleC = idle.C
		}

		select {
		case <-s.closing:
			return

		case cmd := <-s.cmds:
			s.handleCommand(cmd, idle)

		case sig := <-s.advance:
			if sig.gen != s.gen {
				// Completion from a stream that skip/stop already halted.
				continue
			}
			s.finishCurrent(sig.err)
			s.startNext(idle)

		case <-idleC:
			slog.Info("session idle deadline reached, terminating",
				"guild", s.guildID,
				"idle_timeout", s.cfg.IdleTimeout,
			)
			return

		case <-poll.C:
			if !s.sink.IsConnected() {
				slog.Warn("voice connection lost, terminating session",
					"guild", s.guildID,
				)
				return
			}
		}
	}
}

func (s *Session) handleCommand(cmd any, idle *time.Timer) {
	switch c := cmd.(type) {
	case enqueueCmd:
		s.queue.Append(c.track)
		slog.Debug("track enqueued",
			"guild", s.guildID,
			"track", c.track.Title,
			"queue_len", s.queue.Len(),
		)
		if s.current == nil {
			s.startNext(idle)
			if s.current != nil {
				c.reply <- 0
				return
			}
		}
		c.reply <- s.queue.Len()

	case skipCmd:
		if s.current == nil {
			c.reply <- ErrNotPlaying
			return
		}
		slog.Info("skipping current track", "guild", s.guildID, "track", s.current.Title)
		s.haltStream()
		s.current = nil
		s.state.Store(int32(StateAwaitingAdvance))
		s.startNext(idle)
		c.reply <- nil

	case stopCmd:
		slog.Info("stopping playback and clearing queue", "guild", s.guildID)
		s.queue.Clear()
		if s.current != nil {
			s.haltStream()
			s.current = nil
		}
		s.state.Store(int32(StateIdle))
		s.resetIdle(idle)
		c.reply <- nil

	case volumeCmd:
		v := min(max(c.volume, 0), 1)
		s.volume = v
		c.reply <- s.sink.SetVolume(context.Background(), v)

	case snapshotCmd:
		var current *domain.Track
		if s.current != nil {
			track := *s.current
			current = &track
		}
		c.reply <- Snapshot{
			State:   State(s.state.Load()),
			Current: current,
			Pending: s.queue.Snapshot(c.limit),
			Length:  s.queue.Len(),
			Volume:  s.volume,
		}
	}
}

// finishCurrent retires the current track after its stream ended.
func (s *Session) finishCurrent(err error) {
	if s.current == nil {
		return
	}

	if err != nil {
		slog.Warn("stream ended with error",
			"guild", s.guildID,
			"track", s.current.Title,
			"error", err,
		)
		s.notifier.TrackError(*s.current, err)
		s.record(metrics.TrackFailed())
	}

	s.current = nil
	s.state.Store(int32(StateAwaitingAdvance))
}

// startNext pops tracks until one starts streaming or the queue drains.
// A track that fails to start is reported and discarded, so a queue of bad
// tracks drains to idle instead of stalling.
func (s *Session) startNext(idle *time.Timer) {
	wasAdvancing := State(s.state.Load()) == StateAwaitingAdvance

	for {
		track, ok := s.queue.PopFront()
		if !ok {
			s.current = nil
			s.state.Store(int32(StateIdle))
			s.resetIdle(idle)
			if wasAdvancing {
				s.notifier.QueueEmpty()
			}
			return
		}

		s.gen++
		gen := s.gen
		err := s.sink.StartStreaming(context.Background(), track.SourceRef, func(err error) {
			s.postAdvance(gen, err)
		})
		if err != nil {
			slog.Warn("failed to start track, trying next",
				"guild", s.guildID,
				"track", track.Title,
				"error", err,
			)
			s.notifier.TrackError(track, err)
			s.record(metrics.TrackFailed())
			continue
		}

		if err := s.sink.SetVolume(context.Background(), s.volume); err != nil {
			slog.Debug("failed to apply volume", "guild", s.guildID, "error", err)
		}

		s.current = &track
		s.state.Store(int32(StatePlaying))
		s.notifier.NowPlaying(track)
		s.record(metrics.TrackPlayed())
		slog.Info("now playing", "guild", s.guildID, "track", track.Title)
		return
	}
}

// haltStream stops the sink and invalidates the pending completion so the
// halted stream's callback cannot advance past a track started later.
func (s *Session) haltStream() {
	s.gen++
	if err := s.sink.Stop(context.Background()); err != nil {
		slog.Warn("failed to stop stream", "guild", s.guildID, "error", err)
	}
}

// postAdvance delivers a completion signal to the loop. Called from the
// sink's callback goroutine; it only posts, never mutates session state.
func (s *Session) postAdvance(gen uint64, err error) {
	select {
	case s.advance <- advanceSignal{gen: gen, err: err}:
	case <-s.stopped:
	}
}

func (s *Session) resetIdle(idle *time.Timer) {
	if !idle.Stop() {
		select {
		case <-idle.C:
		default:
		}
	}
	idle.Reset(s.cfg.IdleTimeout)
}

// cleanup releases resources when the loop exits. Runs exactly once.
func (s *Session) cleanup() {
	s.state.Store(int32(StateTerminated))
	s.gen++
	s.queue.Clear()
	s.current = nil

	ctx := context.Background()
	if err := s.sink.Stop(ctx); err != nil {
		slog.Debug("failed to stop sink during cleanup", "guild", s.guildID, "error", err)
	}
	if err := s.sink.Disconnect(ctx); err != nil {
		slog.Warn("failed to disconnect sink", "guild", s.guildID, "error", err)
	}

	if s.onTerminate != nil {
		s.onTerminate(s.guildID)
	}
	s.record(metrics.SessionClosed())
	slog.Info("session terminated", "guild", s.guildID)
}

func (s *Session) record(event metrics.Event) {
	if s.collector != nil {
		s.collector.Record(event)
	}
}
