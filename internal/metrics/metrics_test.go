package metrics

import (
	"testing"
	"time"
)

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector()
	c.Start()
	defer c.Stop()

	c.Record(CommandInvoked("play"))
	c.Record(CommandInvoked("play"))
	c.Record(CommandInvoked("skip"))
	c.Record(TrackPlayed())
	c.Record(TrackFailed())
	c.Record(SessionOpened())
	c.Record(SessionOpened())
	c.Record(SessionClosed())

	// Snapshot is served by the same goroutine that drains events, so all
	// previously buffered events are applied before the reply.
	snap := c.Snapshot()

	if snap.CommandCounts["play"] != 2 {
		t.Errorf("expected 2 play commands, got %d", snap.CommandCounts["play"])
	}
	if snap.CommandCounts["skip"] != 1 {
		t.Errorf("expected 1 skip command, got %d", snap.CommandCounts["skip"])
	}
	if snap.TracksPlayed != 1 {
		t.Errorf("expected 1 track played, got %d", snap.TracksPlayed)
	}
	if snap.TrackErrors != 1 {
		t.Errorf("expected 1 track error, got %d", snap.TrackErrors)
	}
	if snap.SessionsOpened != 2 {
		t.Errorf("expected 2 sessions opened, got %d", snap.SessionsOpened)
	}
	if snap.ActiveSessions != 1 {
		t.Errorf("expected 1 active session, got %d", snap.ActiveSessions)
	}
}

func TestCollector_SnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.Start()
	defer c.Stop()

	c.Record(CommandInvoked("play"))
	snap := c.Snapshot()
	snap.CommandCounts["play"] = 100

	again := c.Snapshot()
	if again.CommandCounts["play"] != 1 {
		t.Errorf("expected snapshot mutation not to affect collector, got %d",
			again.CommandCounts["play"])
	}
}

func TestCollector_StopIsIdempotent(t *testing.T) {
	c := NewCollector()
	c.Start()

	c.Stop()
	c.Stop()

	// Record and Snapshot must not block after Stop
	c.Record(TrackPlayed())
	snap := c.Snapshot()
	if snap.TracksPlayed != 0 {
		t.Errorf("expected zero snapshot after stop, got %d", snap.TracksPlayed)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{65 * time.Second, "00:01:05"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{25*time.Hour + 3*time.Second, "25:00:03"},
	}

	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
