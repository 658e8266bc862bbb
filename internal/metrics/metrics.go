// Package metrics aggregates process-wide playback statistics. Counters are
// owned by a single collector goroutine and fed exclusively through messages,
// so sessions and command handlers never share mutable state with each other.
package metrics

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 256

type eventKind int

const (
	kindCommand eventKind = iota
	kindTrackPlayed
	kindTrackFailed
	kindSessionOpened
	kindSessionClosed
)

// Event is a single metrics update message.
type Event struct {
	kind eventKind
	name string
}

// CommandInvoked records one use of the named command.
func CommandInvoked(name string) Event {
	return Event{kind: kindCommand, name: name}
}

// TrackPlayed records one successfully started track.
func TrackPlayed() Event {
	return Event{kind: kindTrackPlayed}
}

// TrackFailed records one track that failed to resolve or stream.
func TrackFailed() Event {
	return Event{kind: kindTrackFailed}
}

// SessionOpened records a new playback session.
func SessionOpened() Event {
	return Event{kind: kindSessionOpened}
}

// SessionClosed records a terminated playback session.
func SessionClosed() Event {
	return Event{kind: kindSessionClosed}
}

// Snapshot is a point-in-time copy of the collected counters.
type Snapshot struct {
	StartedAt      time.Time
	TracksPlayed   int
	TrackErrors    int
	SessionsOpened int
	ActiveSessions int
	CommandCounts  map[string]int
}

// Uptime returns the elapsed time since the collector started.
func (s Snapshot) Uptime() time.Duration {
	return time.Since(s.StartedAt)
}

// Collector receives metric events over a channel and serves snapshots on
// request. All counter access happens on the collector's own goroutine.
type Collector struct {
	events    chan Event
	snapshots chan chan Snapshot
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	startedAt time.Time
}

// NewCollector creates a new Collector. Call Start before recording events.
func NewCollector() *Collector {
	return &Collector{
		events:    make(chan Event, DefaultEventBufferSize),
		snapshots: make(chan chan Snapshot),
		done:      make(chan struct{}),
	}
}

// Start launches the collector goroutine.
func (c *Collector) Start() {
	c.startedAt = time.Now()
	c.wg.Add(1)
	go c.run()
}

// Stop shuts the collector down and waits for the goroutine to finish.
// Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// Record submits an event to the collector.
// Non-blocking: if the buffer is full, the event is dropped with a warning.
func (c *Collector) Record(event Event) {
	select {
	case c.events <- event:
	case <-c.done:
	default:
		slog.Warn("metrics buffer full, dropping event")
	}
}

// Snapshot returns a copy of the current counters.
// Returns a zero Snapshot if the collector has stopped.
func (c *Collector) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	select {
	case c.snapshots <- reply:
		return <-reply
	case <-c.done:
		return Snapshot{StartedAt: c.startedAt}
	}
}

func (c *Collector) run() {
	defer c.wg.Done()

	var (
		tracksPlayed   int
		trackErrors    int
		sessionsOpened int
		activeSessions int
	)
	commandCounts := make(map[string]int)

	for {
		select {
		case <-c.done:
			return
		case event := <-c.events:
			switch event.kind {
			case kindCommand:
				commandCounts[event.name]++
			case kindTrackPlayed:
				tracksPlayed++
			case kindTrackFailed:
				trackErrors++
			case kindSessionOpened:
				sessionsOpened++
				activeSessions++
			case kindSessionClosed:
				if activeSessions > 0 {
					activeSessions--
				}
			}
		case reply := <-c.snapshots:
			counts := make(map[string]int, len(commandCounts))
			for name, n := range commandCounts {
				counts[name] = n
			}
			reply <- Snapshot{
				StartedAt:      c.startedAt,
				TracksPlayed:   tracksPlayed,
				TrackErrors:    trackErrors,
				SessionsOpened: sessionsOpened,
				ActiveSessions: activeSessions,
				CommandCounts:  counts,
			}
		}
	}
}

// FormatUptime formats a duration as hh:mm:ss.
func FormatUptime(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
