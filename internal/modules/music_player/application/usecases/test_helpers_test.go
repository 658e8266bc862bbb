package usecases

import (
	"context"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/ports"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/application/session"
	"github.com/NIGHTMARE76/DC-Bot/internal/modules/music_player/domain"
)

const (
	testGuildID       = snowflake.ID(100)
	testUserID        = snowflake.ID(200)
	testTextChannelID = snowflake.ID(300)
	testVoiceChannel  = snowflake.ID(400)
)

func mockTrack(ref string) domain.Track {
	return domain.NewTrack(ref, "Track "+ref, 180, "tester", "", "")
}

type mockSink struct {
	mu        sync.Mutex
	started   []string
	callbacks []func(error)
	volumes   []float64
	stops     int
}

func (m *mockSink) IsConnected() bool { return true }

func (m *mockSink) StartStreaming(_ context.Context, sourceRef string, onDone func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, sourceRef)
	m.callbacks = append(m.callbacks, onDone)
	return nil
}

func (m *mockSink) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockSink) SetVolume(_ context.Context, v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes = append(m.volumes, v)
	return nil
}

func (m *mockSink) Disconnect(context.Context) error { return nil }

func (m *mockSink) lastVolume() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.volumes) == 0 {
		return 0, false
	}
	return m.volumes[len(m.volumes)-1], true
}

type connectCall struct {
	guildID   snowflake.ID
	channelID snowflake.ID
}

type mockConnector struct {
	mu         sync.Mutex
	sink       *mockSink
	calls      []connectCall
	connectErr error
}

func newMockConnector() *mockConnector {
	return &mockConnector{sink: &mockSink{}}
}

func (m *mockConnector) Connect(_ context.Context, guildID, channelID snowflake.ID) (ports.ConnectionSink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	m.calls = append(m.calls, connectCall{guildID: guildID, channelID: channelID})
	return m.sink, nil
}

func (m *mockConnector) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockNotifier struct{}

func (mockNotifier) NowPlaying(domain.Track)        {}
func (mockNotifier) QueueEmpty()                    {}
func (mockNotifier) TrackError(domain.Track, error) {}

type mockRouter struct {
	mu       sync.Mutex
	bindings map[snowflake.ID]snowflake.ID
	unbound  []snowflake.ID
}

func newMockRouter() *mockRouter {
	return &mockRouter{bindings: make(map[snowflake.ID]snowflake.ID)}
}

func (m *mockRouter) NotifierFor(snowflake.ID) ports.StatusNotifier {
	return mockNotifier{}
}

func (m *mockRouter) BindChannel(guildID, channelID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[guildID] = channelID
}

func (m *mockRouter) Unbind(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, guildID)
	m.unbound = append(m.unbound, guildID)
}

func (m *mockRouter) boundChannel(guildID snowflake.ID) snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindings[guildID]
}

type mockResolver struct {
	mu      sync.Mutex
	queries []domain.SearchQuery
	track   domain.Track
	err     error
}

func (m *mockResolver) Resolve(_ context.Context, query domain.SearchQuery, _ string) (domain.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return domain.Track{}, m.err
	}
	return m.track, nil
}

func (m *mockResolver) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// testServices bundles the wired services and their mocks for a test.
type testServices struct {
	registry  *session.Registry
	connector *mockConnector
	router    *mockRouter
	resolver  *mockResolver
	voice     *VoiceSessionService
	playback  *PlaybackService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	registry := session.NewRegistry()
	connector := newMockConnector()
	router := newMockRouter()
	resolver := &mockResolver{track: mockTrack("resolved")}
	voiceState := &mockVoiceStateProvider{
		channels: map[snowflake.ID]snowflake.ID{testUserID: testVoiceChannel},
	}

	voice := NewVoiceSessionService(registry, connector, voiceState, router, nil, session.Config{})
	playback := NewPlaybackService(registry, voice, resolver, router)

	t.Cleanup(func() {
		voice.CloseAll(context.Background())
	})

	return &testServices{
		registry:  registry,
		connector: connector,
		router:    router,
		resolver:  resolver,
		voice:     voice,
		playback:  playback,
	}
}
