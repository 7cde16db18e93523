package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/pkg/contracts/events"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, c.ReadJSON(v))
}

func subscribe(t *testing.T, c *websocket.Conn, fixture string) {
	t.Helper()
	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe", Fixture: fixture}))
	var ack map[string]string
	readJSON(t, c, &ack)
	require.Equal(t, "subscribed", ack["type"])
	require.Equal(t, fixture, ack["fixture"])
}

func update(home, away string) Update {
	return Update{
		Fixture:    FixtureKey(home, away),
		Prediction: events.PredictionMade{PredictionID: "p-" + home, HomeTeam: home, AwayTeam: away, Algorithm: "elo"},
	}
}

func TestBroadcastReachesFixtureSubscribers(t *testing.T) {
	hub, url := newTestHub(t)
	fan := dial(t, url)
	subscribe(t, fan, "arsenal:chelsea")
	assert.Equal(t, 1, hub.Subscribers("arsenal:chelsea"))

	hub.Broadcast(update("liverpool", "everton"))
	hub.Broadcast(update("arsenal", "chelsea"))

	var got Update
	readJSON(t, fan, &got)
	assert.Equal(t, "arsenal:chelsea", got.Fixture)
	assert.Equal(t, "p-arsenal", got.Prediction.PredictionID)
}

func TestWildcardSubscriberGetsEverythingOnce(t *testing.T) {
	hub, url := newTestHub(t)
	c := dial(t, url)
	subscribe(t, c, AllFixtures)
	subscribe(t, c, "arsenal:chelsea")

	hub.Broadcast(update("arsenal", "chelsea"))
	hub.Broadcast(update("liverpool", "everton"))

	var first, second Update
	readJSON(t, c, &first)
	readJSON(t, c, &second)
	assert.Equal(t, "arsenal:chelsea", first.Fixture)
	assert.Equal(t, "liverpool:everton", second.Fixture)
}

func TestPingAndValidation(t *testing.T) {
	_, url := newTestHub(t)
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "ping"}))
	var pong map[string]string
	readJSON(t, c, &pong)
	assert.Equal(t, "pong", pong["type"])

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe"}))
	var failure map[string]string
	readJSON(t, c, &failure)
	assert.Equal(t, "error", failure["type"])
}

func TestUnsubscribeAndDisconnectCleanUp(t *testing.T) {
	hub, url := newTestHub(t)
	c := dial(t, url)
	subscribe(t, c, "arsenal:chelsea")
	subscribe(t, c, AllFixtures)

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "unsubscribe", Fixture: "arsenal:chelsea"}))
	require.Eventually(t, func() bool { return hub.Subscribers("arsenal:chelsea") == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.Subscribers(AllFixtures))

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return hub.Subscribers(AllFixtures) == 0 }, time.Second, 5*time.Millisecond)
}

func TestStalledClientIsDroppedInsteadOfBlockingBroadcast(t *testing.T) {
	hub, url := newTestHub(t)
	hub.writeTimeout = 50 * time.Millisecond

	stalled := dial(t, url)
	subscribe(t, stalled, AllFixtures)

	// payload grande o bastante para encher os buffers do socket
	big := update("arsenal", "chelsea")
	big.Prediction.Result.Details = map[string]any{"blob": strings.Repeat("x", 1<<20)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			hub.Broadcast(big)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("broadcast blocked on a client that never reads")
	}
	require.Eventually(t, func() bool { return hub.Subscribers(AllFixtures) == 0 }, 2*time.Second, 10*time.Millisecond)
}
