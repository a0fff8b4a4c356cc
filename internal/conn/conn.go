package conn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/protocol"
)

var ErrConnectionUnavailable = errors.New("connection unavailable")
var ErrAlreadyConnected = errors.New("already connected")

type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	default:
		return "closed"
	}
}

// Sink receives everything the reader goroutine sees, in transport order.
type Sink interface {
	Frame(raw []byte)
	ConnState(s State, err error)
}

type Options struct {
	Endpoint         string
	Identity         string
	Hello            func(identity string) protocol.ClientMessage // sent once on open
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
	HTTPClient       *http.Client
	Logger           *zap.Logger
}

// Manager owns one websocket connection. There is one writer (the session
// loop) and one reader (readLoop); mu only guards the lifecycle fields the two share.
type Manager struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	state    State
	identity string
	ws       *websocket.Conn
	stop     context.CancelFunc // ends the reader
	done     chan struct{}
}

func New(opts Options) *Manager {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		opts:     opts,
		log:      log.Named("conn"),
		identity: opts.Identity,
		state:    StateClosed,
	}
}

// Connect dials the endpoint, sends the hello frame and starts delivering to sink.
// There is no retry; a failed dial leaves the manager Closed. ctx bounds the
// dial and the hello only; the open connection lives until Close or the peer
// goes away.
func (m *Manager) Connect(ctx context.Context, sink Sink) error {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.state = StateConnecting
	m.mu.Unlock()
	sink.ConnState(StateConnecting, nil)

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.HandshakeTimeout)
	defer cancel()
	ws, _, err := websocket.Dial(dialCtx, m.opts.Endpoint, &websocket.DialOptions{HTTPClient: m.opts.HTTPClient})
	if err != nil {
		m.setState(StateErrored)
		sink.ConnState(StateErrored, err)
		m.setState(StateClosed)
		sink.ConnState(StateClosed, nil)
		return fmt.Errorf("dial %s: %w", m.opts.Endpoint, err)
	}
	ws.SetReadLimit(m.opts.ReadLimit)

	done := make(chan struct{})
	readCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Lock()
	m.ws = ws
	m.stop = stop
	m.done = done
	m.state = StateOpen
	m.mu.Unlock()
	m.log.Info("connected", zap.String("endpoint", m.opts.Endpoint))
	sink.ConnState(StateOpen, nil)

	if m.opts.Hello != nil {
		if err := m.Send(ctx, m.opts.Hello(m.Identity())); err != nil {
			m.log.Warn("hello failed", zap.Error(err))
		}
	}

	go m.readLoop(readCtx, stop, ws, sink, done)
	return nil
}

func (m *Manager) readLoop(ctx context.Context, stop context.CancelFunc, ws *websocket.Conn, sink Sink, done chan struct{}) {
	defer close(done)
	defer stop()
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			m.mu.Lock()
			local := m.state == StateClosed
			m.ws = nil
			m.mu.Unlock()
			if local {
				return
			}

			// Treat clean close/going-away as normal:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				m.log.Info("closed by peer")
			default:
				m.log.Warn("transport error", zap.Error(err))
				m.setState(StateErrored)
				sink.ConnState(StateErrored, err)
			}
			m.setState(StateClosed)
			sink.ConnState(StateClosed, nil)
			return
		}
		if typ != websocket.MessageText {
			m.log.Debug("ignoring binary frame", zap.Int("bytes", len(data)))
			continue
		}
		sink.Frame(data)
	}
}

// Send writes one frame. It fails with ErrConnectionUnavailable unless open.
func (m *Manager) Send(ctx context.Context, msg protocol.ClientMessage) error {
	m.mu.Lock()
	ws, st := m.ws, m.state
	m.mu.Unlock()
	if st != StateOpen || ws == nil {
		return ErrConnectionUnavailable
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	wctx, cancel := context.WithTimeout(ctx, m.opts.WriteTimeout)
	defer cancel()
	if err := ws.Write(wctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	m.log.Debug("sent", zap.String("type", msg.Type))
	return nil
}

// Close closes the connection locally. The sink is not notified; the caller
// initiated it.
func (m *Manager) Close() error {
	m.mu.Lock()
	ws, done, stop := m.ws, m.done, m.stop
	m.state = StateClosed
	m.ws = nil
	m.stop = nil
	m.mu.Unlock()
	if ws == nil {
		return nil
	}
	err := ws.Close(websocket.StatusNormalClosure, "bye")
	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
	return err
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Identity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// SetIdentity replaces the local identity hint with a server-assigned one.
func (m *Manager) SetIdentity(name string) {
	m.mu.Lock()
	m.identity = name
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// DuelEndpoint builds <base>/ws/duel?gameCode=..&player=..
func DuelEndpoint(base, gameCode, player string) (string, error) {
	return endpoint(base, "/ws/duel", url.Values{"gameCode": {gameCode}, "player": {player}})
}

// LobbyEndpoint builds <base>/ws/lobby?player=..
func LobbyEndpoint(base, player string) (string, error) {
	return endpoint(base, "/ws/lobby", url.Values{"player": {player}})
}

func endpoint(base, path string, q url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String(), nil
}
