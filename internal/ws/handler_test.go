package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/lobby"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

type openTransport struct{}

func (openTransport) Send(context.Context, protocol.ClientMessage) error { return nil }
func (openTransport) State() conn.State                                   { return conn.StateOpen }

func readRooms(t *testing.T, c *websocket.Conn) roomsMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var m roomsMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHandler_StreamsListings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := lobby.NewLobby(ctx, openTransport{}, lobby.Options{PlayerName: "Zed"})

	srv := httptest.NewServer(Handler(l, nil))
	defer srv.Close()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer c.CloseNow()

	first := readRooms(t, c)
	assert.Equal(t, "LOBBY_STATE", first.Type)
	assert.Equal(t, 0, first.Version)

	l.Frame([]byte(`{"type":"LOBBY_STATE","rooms":[{"gameCode":"ABC","players":[]}]}`))
	next := readRooms(t, c)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.Rooms, 1)
	assert.Equal(t, "ABC", next.Rooms[0].GameCode)
}

func TestHandler_LobbyShutdownClosesWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := lobby.NewLobby(ctx, openTransport{}, lobby.Options{PlayerName: "Zed"})

	srv := httptest.NewServer(Handler(l, nil))
	defer srv.Close()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer c.CloseNow()
	readRooms(t, c)

	l.Inbox() <- lobby.Shutdown{}

	rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer rcancel()
	_, _, err = c.Read(rctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
