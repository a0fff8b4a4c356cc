package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/lobby"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

// Rooms is the lobby surface a watcher needs.
type Rooms interface {
	Inbox() chan<- lobby.Msg
	Done() <-chan struct{}
}

type roomsMessage struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Rooms   []protocol.Room `json:"rooms"`
}

// Handler streams every lobby listing to a local websocket watcher until
// either side goes away.
func Handler(l Rooms, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		if !send(r.Context(), l, lobby.Subscribe{ClientID: clientID, Outbox: out}) {
			return
		}
		defer send(context.Background(), l, lobby.Unsubscribe{ClientID: clientID})
		log.Debug("watcher attached", zap.String("client_id", clientID))

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						// Dropped as slow, or the lobby shut down.
						conn.Close(websocket.StatusGoingAway, "lobby gone")
						return
					}
					payload, _ := json.Marshal(roomsMessage{Type: string(protocol.KindLobbyState), Version: snap.Version, Rooms: snap.Rooms})
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					err := conn.Write(ctx, websocket.MessageText, payload)
					cancel()
					if err != nil {
						return
					}
				}
			}
		}()

		// Watchers only listen; reading keeps control frames flowing and
		// notices the close.
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("watcher read", zap.Error(err))
				}
				return
			}
		}
	}
}

func send(ctx context.Context, l Rooms, m lobby.Msg) bool {
	select {
	case l.Inbox() <- m:
		return true
	case <-l.Done():
		return false
	case <-ctx.Done():
		return false
	}
}
