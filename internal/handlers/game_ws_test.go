package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireMessage is the union of every message shape the channel sends.
type wireMessage struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	CurrentPlayer string `json:"currentPlayer"`
	Started       bool   `json:"started"`
	Name          string `json:"name"`
	Players       []struct {
		Name       string  `json:"name"`
		LastAction *string `json:"lastAction"`
		Online     bool    `json:"online"`
	} `json:"players"`
	Hand []struct {
		Suit  string `json:"suit"`
		Value string `json:"value"`
		Asset string `json:"asset"`
	} `json:"hand"`
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, gameID, secret string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/games/" + gameID + "/" + secret
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, ctx context.Context, c *websocket.Conn, match func(wireMessage) bool) wireMessage {
	t.Helper()
	for {
		var msg wireMessage
		require.NoError(t, wsjson.Read(ctx, c, &msg))
		if match(msg) {
			return msg
		}
	}
}

func TestGameWSUnknownGame(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, ctx, srv, "ZZZZ", "nope")
	var msg wireMessage
	require.NoError(t, wsjson.Read(ctx, c, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "No game found for id ZZZZ", msg.Message)

	_, _, err := c.Read(ctx)
	assert.Equal(t, InvalidGameIDError, websocket.CloseStatus(err))
}

func TestGameWSUnknownPlayer(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g := createGame(t, s.Router(), "alice")
	c := dial(t, ctx, srv, g.GameID, "WRONG")
	var msg wireMessage
	require.NoError(t, wsjson.Read(ctx, c, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "No player found for id WRONG", msg.Message)

	_, _, err := c.Read(ctx)
	assert.Equal(t, InvalidPlayerSecretError, websocket.CloseStatus(err))
}

func TestGameWSPlaythrough(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	srv := httptest.NewServer(h)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g := createGame(t, h, "alice")
	bobSecret := post(t, h, "/api/join-game", map[string]string{"code": g.GameID, "name": "bob"}).Body.String()

	alice := dial(t, ctx, srv, g.GameID, g.PlayerSecret)
	first := readUntil(t, ctx, alice, func(m wireMessage) bool { return m.Type == "game" })
	assert.False(t, first.Started)

	bob := dial(t, ctx, srv, g.GameID, bobSecret)

	// Alice sees bob come online.
	readUntil(t, ctx, alice, func(m wireMessage) bool {
		return m.Type == "game" && len(m.Players) == 2 && m.Players[1].Online
	})

	// A malformed frame is answered and the connection survives.
	require.NoError(t, alice.Write(ctx, websocket.MessageText, []byte(`{"type":null,"player":"x"}`)))
	errMsg := readUntil(t, ctx, alice, func(m wireMessage) bool { return m.Type == "error" })
	assert.Contains(t, errMsg.Message, "invalid type for action")

	// Bob cannot start the game.
	require.NoError(t, wsjson.Write(ctx, bob, map[string]string{"type": "startGame", "player": bobSecret}))

	require.NoError(t, wsjson.Write(ctx, alice, map[string]string{"type": "startGame", "player": g.PlayerSecret}))
	started := readUntil(t, ctx, alice, func(m wireMessage) bool { return m.Type == "game" && m.Started })
	assert.Equal(t, "bob", started.CurrentPlayer)

	hand := readUntil(t, ctx, bob, func(m wireMessage) bool { return m.Type == "player" })
	assert.Equal(t, "bob", hand.Name)
	require.Len(t, hand.Hand, 2)
	assert.True(t, strings.HasSuffix(hand.Hand[0].Asset, ".png"))

	require.NoError(t, wsjson.Write(ctx, bob, map[string]string{"type": "hit", "player": bobSecret}))
	turn := readUntil(t, ctx, alice, func(m wireMessage) bool { return m.Type == "game" && m.CurrentPlayer == "alice" })
	require.NotNil(t, turn.Players[1].LastAction)
	assert.Equal(t, "hit", *turn.Players[1].LastAction)

	// Bob hangs up; alice sees him go offline.
	require.NoError(t, bob.Close(websocket.StatusNormalClosure, ""))
	readUntil(t, ctx, alice, func(m wireMessage) bool {
		return m.Type == "game" && len(m.Players) == 2 && !m.Players[1].Online
	})
}

func TestGameWSReconnectReplacesOldConnection(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	srv := httptest.NewServer(h)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g := createGame(t, h, "alice")
	old := dial(t, ctx, srv, g.GameID, g.PlayerSecret)
	readUntil(t, ctx, old, func(m wireMessage) bool { return m.Type == "game" && m.Players[0].Online })

	fresh := dial(t, ctx, srv, g.GameID, g.PlayerSecret)
	readUntil(t, ctx, fresh, func(m wireMessage) bool { return m.Type == "game" && m.Players[0].Online })

	// The replaced connection is shut down by the server.
	for {
		_, _, err := old.Read(ctx)
		if err != nil {
			break
		}
	}

	sess, _ := s.Store.Get(g.GameID)
	require.Eventually(t, func() bool {
		ps, _ := sess.State().Player("alice")
		return ps.Online
	}, 2*time.Second, 20*time.Millisecond)
}
