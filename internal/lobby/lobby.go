package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

var ErrJoinInFlight = errors.New("join already in flight")
var ErrClosed = errors.New("lobby closed")

// Transport is the part of conn.Manager the lobby needs.
type Transport interface {
	Send(ctx context.Context, msg protocol.ClientMessage) error
	State() conn.State
}

type Msg interface{ isLobbyMsg() }

type FromServer struct{ Raw []byte }

func (FromServer) isLobbyMsg() {}

type ConnChanged struct {
	State conn.State
	Err   error
}

func (ConnChanged) isLobbyMsg() {}

type Subscribe struct {
	ClientID string
	Outbox   chan Snapshot // where this subscriber wants room listings
}

func (Subscribe) isLobbyMsg() {}

type Unsubscribe struct{ ClientID string }

func (Unsubscribe) isLobbyMsg() {}

type JoinDuel struct {
	GameCode string
	Reply    chan error
}

func (JoinDuel) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type joinUnlock struct{ gen uint64 }

func (joinUnlock) isLobbyMsg() {}

type Snapshot struct {
	Version int
	Rooms   []protocol.Room
}

type View struct {
	Version        int             `json:"version"`
	NumSubscribers int             `json:"numSubscribers"`
	Rooms          []protocol.Room `json:"rooms"`
	Joining        bool            `json:"joining"`
	JoinCode       string          `json:"joinCode,omitempty"`
}

type Options struct {
	PlayerName string
	JoinLock   time.Duration
	Logger     *zap.Logger
	OnJoin     func(gameCode string) // called after joinDuel went out
}

// Lobby tracks the room listing pushed over the lobby socket and gates
// joinDuel requests behind a short lock.
type Lobby struct {
	inbox     chan Msg
	transport Transport
	opts      Options
	log       *zap.Logger

	rooms   []protocol.Room
	version int
	subs    map[string]chan Snapshot

	joining  bool
	joinCode string
	joinGen  uint64
	unlock   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, t Transport, opts Options) *Lobby {
	if opts.JoinLock <= 0 {
		opts.JoinLock = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:     make(chan Msg, 64),
		transport: t,
		opts:      opts,
		log:       log.Named("lobby").With(zap.String("player", opts.PlayerName)),
		subs:      make(map[string]chan Snapshot),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Subscribe:
				// Register and hand over the current listing right away.
				l.subs[msg.ClientID] = msg.Outbox
				msg.Outbox <- l.snapshot()

			case Unsubscribe:
				delete(l.subs, msg.ClientID)

			case FromServer:
				l.dispatch(msg.Raw)

			case ConnChanged:
				l.onConnState(msg.State, msg.Err)

			case JoinDuel:
				msg.Reply <- l.join(msg.GameCode)

			case joinUnlock:
				if msg.gen == l.joinGen {
					l.release()
				}

			case GetState:
				msg.Reply <- View{
					Version:        l.version,
					NumSubscribers: len(l.subs),
					Rooms:          append([]protocol.Room(nil), l.rooms...),
					Joining:        l.joining,
					JoinCode:       l.joinCode,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) dispatch(raw []byte) {
	frame, err := protocol.Decode(raw)
	if err != nil {
		l.log.Warn("dropping frame", zap.Error(err))
		return
	}
	switch f := frame.(type) {
	case protocol.LobbyState:
		l.rooms = f.Rooms
		l.version++
		if l.joining && l.seated() {
			l.release()
		}
		l.broadcast(l.snapshot())
	case protocol.ServerError:
		l.log.Warn("server rejected request", zap.String("message", f.Message))
		l.release()
	case protocol.Info:
		l.log.Info(f.Message)
	default:
		l.log.Debug("ignoring frame on lobby channel")
	}
}

func (l *Lobby) onConnState(st conn.State, err error) {
	switch st {
	case conn.StateOpen:
		l.log.Info("connected to lobby")
	case conn.StateErrored:
		l.log.Warn("lobby connection error", zap.Error(err))
	case conn.StateClosed:
		l.log.Info("lobby connection closed")
	}
}

func (l *Lobby) join(gameCode string) error {
	if l.joining {
		return ErrJoinInFlight
	}
	if l.transport.State() != conn.StateOpen {
		return conn.ErrConnectionUnavailable
	}
	if err := l.transport.Send(l.ctx, protocol.JoinDuel(gameCode, l.opts.PlayerName)); err != nil {
		return err
	}

	l.joining = true
	l.joinCode = gameCode
	l.joinGen++
	gen := l.joinGen
	l.unlock = time.AfterFunc(l.opts.JoinLock, func() {
		l.post(l.ctx, joinUnlock{gen: gen})
	})
	l.log.Info("join requested", zap.String("game_code", gameCode))
	if l.opts.OnJoin != nil {
		l.opts.OnJoin(gameCode)
	}
	return nil
}

// seated reports whether the last listing shows us in the room we asked for.
func (l *Lobby) seated() bool {
	for _, r := range l.rooms {
		if r.GameCode != l.joinCode {
			continue
		}
		for _, p := range r.Players {
			if p.Name == l.opts.PlayerName {
				return true
			}
		}
	}
	return false
}

func (l *Lobby) release() {
	if l.unlock != nil {
		l.unlock.Stop()
		l.unlock = nil
	}
	l.joinGen++
	l.joining = false
	l.joinCode = ""
}

func (l *Lobby) snapshot() Snapshot {
	return Snapshot{Version: l.version, Rooms: append([]protocol.Room(nil), l.rooms...)}
}

func (l *Lobby) shutdown() {
	if l.unlock != nil {
		l.unlock.Stop()
	}
	for id, ch := range l.subs {
		close(ch) // no more listings
		delete(l.subs, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.subs {
		select {
		case ch <- snap:
			//ok
		default:
			// Subscriber is slow/full - drop them.
			close(ch)
			delete(l.subs, id)
		}
	}
}

func (l *Lobby) post(ctx context.Context, m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

// Expose the inbox so tests or the console can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Done() <-chan struct{} { return l.done }

// Frame and ConnState make the lobby a conn.Sink.
func (l *Lobby) Frame(raw []byte) { l.post(l.ctx, FromServer{Raw: raw}) }

func (l *Lobby) ConnState(st conn.State, err error) {
	l.post(l.ctx, ConnChanged{State: st, Err: err})
}

func (l *Lobby) Join(ctx context.Context, gameCode string) error {
	reply := make(chan error, 1)
	if !l.post(ctx, JoinDuel{GameCode: gameCode, Reply: reply}) {
		return l.closedErr(ctx)
	}
	select {
	case err := <-reply:
		return err
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !l.post(ctx, GetState{Reply: reply}) {
		return View{}, l.closedErr(ctx)
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) closedErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}
