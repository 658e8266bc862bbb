package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestJoinUsesUsersChannel(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	out, err := svc.voice.Join(ctx, JoinInput{
		GuildID:       testGuildID,
		UserID:        testUserID,
		TextChannelID: testTextChannelID,
	})
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if out.ChannelID != testVoiceChannel {
		t.Errorf("joined channel %s, want %s", out.ChannelID, testVoiceChannel)
	}
	if svc.registry.Get(testGuildID) == nil {
		t.Error("no session created for guild")
	}
	if got := svc.router.boundChannel(testGuildID); got != testTextChannelID {
		t.Errorf("bound text channel = %s, want %s", got, testTextChannelID)
	}
}

func TestJoinExplicitChannel(t *testing.T) {
	svc := newTestServices(t)
	explicit := snowflake.ID(555)

	out, err := svc.voice.Join(context.Background(), JoinInput{
		GuildID:   testGuildID,
		UserID:    testUserID,
		ChannelID: explicit,
	})
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if out.ChannelID != explicit {
		t.Errorf("joined channel %s, want %s", out.ChannelID, explicit)
	}
	if call := svc.connector.calls[0]; call.channelID != explicit {
		t.Errorf("connector called with channel %s, want %s", call.channelID, explicit)
	}
}

func TestJoinUserNotInVoice(t *testing.T) {
	svc := newTestServices(t)

	_, err := svc.voice.Join(context.Background(), JoinInput{
		GuildID: testGuildID,
		UserID:  snowflake.ID(999), // not in any channel
	})
	if !errors.Is(err, ErrUserNotInVoice) {
		t.Errorf("Join returned %v, want ErrUserNotInVoice", err)
	}
	if svc.registry.Len() != 0 {
		t.Error("session created despite join failure")
	}
}

func TestJoinConnectorFailure(t *testing.T) {
	svc := newTestServices(t)
	svc.connector.connectErr = errors.New("voice gateway timeout")

	_, err := svc.voice.Join(context.Background(), JoinInput{
		GuildID: testGuildID,
		UserID:  testUserID,
	})
	if err == nil {
		t.Fatal("Join succeeded despite connector failure")
	}
	if svc.registry.Len() != 0 {
		t.Error("session created despite connector failure")
	}
}

func TestJoinExistingSessionMovesChannel(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	if _, err := svc.voice.Join(ctx, JoinInput{GuildID: testGuildID, UserID: testUserID}); err != nil {
		t.Fatalf("first Join returned error: %v", err)
	}
	first := svc.registry.Get(testGuildID)

	moved := snowflake.ID(777)
	out, err := svc.voice.Join(ctx, JoinInput{
		GuildID:   testGuildID,
		UserID:    testUserID,
		ChannelID: moved,
	})
	if err != nil {
		t.Fatalf("second Join returned error: %v", err)
	}
	if out.ChannelID != moved {
		t.Errorf("joined channel %s, want %s", out.ChannelID, moved)
	}
	if svc.connector.callCount() != 2 {
		t.Errorf("connector called %d times, want 2", svc.connector.callCount())
	}
	if svc.registry.Get(testGuildID) != first {
		t.Error("moving channels replaced the session")
	}
}

func TestLeaveWithoutSession(t *testing.T) {
	svc := newTestServices(t)

	err := svc.voice.Leave(context.Background(), LeaveInput{GuildID: testGuildID})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Leave returned %v, want ErrNotConnected", err)
	}
}

func TestLeaveTearsDownSession(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	if _, err := svc.voice.Join(ctx, JoinInput{
		GuildID:       testGuildID,
		UserID:        testUserID,
		TextChannelID: testTextChannelID,
	}); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	if err := svc.voice.Leave(ctx, LeaveInput{GuildID: testGuildID}); err != nil {
		t.Fatalf("Leave returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.registry.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.registry.Len() != 0 {
		t.Error("session still registered after Leave")
	}
	if got := svc.router.boundChannel(testGuildID); got != 0 {
		t.Errorf("notification binding %s survived Leave", got)
	}
}

func TestEnsureSessionReturnsExisting(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	if _, err := svc.voice.Join(ctx, JoinInput{GuildID: testGuildID, UserID: testUserID}); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	existing := svc.registry.Get(testGuildID)

	got, err := svc.voice.EnsureSession(ctx, testGuildID, testUserID, testTextChannelID)
	if err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if got != existing {
		t.Error("EnsureSession did not return the existing session")
	}
	if svc.connector.callCount() != 1 {
		t.Errorf("connector called %d times, want 1", svc.connector.callCount())
	}
	if bound := svc.router.boundChannel(testGuildID); bound != testTextChannelID {
		t.Errorf("bound text channel = %s, want %s", bound, testTextChannelID)
	}
}

func TestEnsureSessionAutoJoins(t *testing.T) {
	svc := newTestServices(t)

	s, err := svc.voice.EnsureSession(context.Background(), testGuildID, testUserID, testTextChannelID)
	if err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if s == nil {
		t.Fatal("EnsureSession returned nil session")
	}
	if svc.connector.callCount() != 1 {
		t.Errorf("connector called %d times, want 1", svc.connector.callCount())
	}
}
