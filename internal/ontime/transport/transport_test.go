package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oterrors "github.com/AquamanRanda/OnTIme/internal/ontime/errors"
	"github.com/AquamanRanda/OnTIme/internal/ontime/ontimetest"
	"github.com/AquamanRanda/OnTIme/internal/ontime/protocol"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newTestManager(t *testing.T, srv *ontimetest.Server, frames chan protocol.Envelope, rec *stateRecorder) *Manager {
	t.Helper()

	opts := Options{
		URL:           srv.WSURL(),
		ProbeInterval: 20 * time.Millisecond,
		Reconnect:     ReconnectPolicy{Interval: 30 * time.Millisecond, Multiplier: 1},
		Logger:        zerolog.Nop(),
	}
	if frames != nil {
		opts.OnFrame = func(env protocol.Envelope) {
			select {
			case frames <- env:
			default:
			}
		}
	}
	if rec != nil {
		opts.OnStateChange = rec.record
	}

	m, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{name: "http", base: "http://localhost:4001", want: "ws://localhost:4001/ws"},
		{name: "https", base: "https://timer.example.com", want: "wss://timer.example.com/ws"},
		{name: "ws_passthrough", base: "ws://localhost:4001", want: "ws://localhost:4001/ws"},
		{name: "bad_scheme", base: "ftp://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WebsocketURL(tt.base)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, oterrors.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_ConnectProbesAndDelivers(t *testing.T) {
	srv := ontimetest.NewServer(t)
	frames := make(chan protocol.Envelope, 16)
	m := newTestManager(t, srv, frames, nil)

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, StateConnected, m.State())

	// State is requested immediately on connect, then re-requested on the
	// probe ticker.
	require.Eventually(t, func() bool {
		return len(srv.Received()) >= 2
	}, time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"topic": "poll"}`, srv.Received()[0])

	srv.Push(`{"topic": "ontime-timer", "payload": {"current": 1000}}`)

	select {
	case env := <-frames:
		assert.Equal(t, protocol.TopicTimer, env.Topic)
	case <-time.After(time.Second):
		t.Fatal("pushed frame never reached the subscriber")
	}
}

func TestManager_DuplicateConnect(t *testing.T) {
	srv := ontimetest.NewServer(t)
	m := newTestManager(t, srv, nil, nil)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Connect(context.Background()))

	// The second call must not have opened a second channel.
	require.Eventually(t, func() bool {
		return srv.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srv.ClientCount())
}

func TestManager_ReconnectAfterDrop(t *testing.T) {
	srv := ontimetest.NewServer(t)
	rec := &stateRecorder{}
	m := newTestManager(t, srv, nil, rec)

	require.NoError(t, m.Connect(context.Background()))

	srv.DropClients()

	require.Eventually(t, func() bool {
		return m.State() == StateConnected && srv.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	states := rec.all()
	assert.Contains(t, states, StateDisconnected)
	// Never more than one live connection at a time.
	assert.Equal(t, 1, srv.ClientCount())
}

func TestManager_ConnectFailureArmsReconnect(t *testing.T) {
	srv := ontimetest.NewServer(t)
	url := srv.WSURL()
	srv.Close()

	m, err := New(Options{
		URL:       url,
		Reconnect: ReconnectPolicy{Interval: 20 * time.Millisecond, Multiplier: 1},
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	err = m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, oterrors.IsTransport(err))
	assert.Equal(t, StateDisconnected, m.State())

	// The armed timer keeps retrying the dead server without giving up.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManager_SendWhileDisconnectedIsDropped(t *testing.T) {
	srv := ontimetest.NewServer(t)
	m := newTestManager(t, srv, nil, nil)

	require.NoError(t, m.Send(protocol.TopicPoll, nil))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, srv.Received())
}

func TestManager_SendWhileConnected(t *testing.T) {
	srv := ontimetest.NewServer(t)
	m, err := New(Options{
		URL:           srv.WSURL(),
		ProbeInterval: time.Hour,
		ProbeTopics:   []protocol.Topic{protocol.TopicPoll},
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Send(protocol.TopicPoll, map[string]string{"scope": "timer"}))

	require.Eventually(t, func() bool {
		return len(srv.Received()) >= 2
	}, time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"topic": "poll", "payload": {"scope": "timer"}}`, srv.Received()[1])
}

func TestManager_CloseStopsReconnection(t *testing.T) {
	srv := ontimetest.NewServer(t)
	m := newTestManager(t, srv, nil, nil)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Close())

	require.Eventually(t, func() bool {
		return srv.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Well past the reconnect interval: explicit teardown stays down.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, srv.ClientCount())
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManager_CloseIdempotent(t *testing.T) {
	srv := ontimetest.NewServer(t)
	m := newTestManager(t, srv, nil, nil)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, oterrors.IsClosed(err))
}

func TestManager_MalformedFramesDropped(t *testing.T) {
	srv := ontimetest.NewServer(t)
	frames := make(chan protocol.Envelope, 16)
	m := newTestManager(t, srv, frames, nil)

	require.NoError(t, m.Connect(context.Background()))

	srv.Push(`{{{not json`)
	srv.Push(`{"topic": "clock", "payload": 42}`)

	select {
	case env := <-frames:
		// The garbage frame was dropped without killing the connection;
		// the next valid frame still arrives.
		assert.Equal(t, protocol.TopicClock, env.Topic)
	case <-time.After(time.Second):
		t.Fatal("valid frame after garbage never arrived")
	}
	assert.Equal(t, StateConnected, m.State())
}

func TestManager_StateSequence(t *testing.T) {
	srv := ontimetest.NewServer(t)
	rec := &stateRecorder{}
	m := newTestManager(t, srv, nil, rec)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Close())

	states := rec.all()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, StateConnecting, states[0])
	assert.Equal(t, StateConnected, states[1])
	assert.Equal(t, StateDisconnected, states[len(states)-1])
}
