package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/duel"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

var ErrClosed = errors.New("session closed")
var ErrDuelOver = errors.New("duel is over")
var ErrEmptyMessage = errors.New("empty chat message")

const transcriptLimit = 200

// Transport is the part of conn.Manager the session drives.
type Transport interface {
	Send(ctx context.Context, msg protocol.ClientMessage) error
	State() conn.State
	SetIdentity(name string)
	Close() error
}

type Msg interface{ isSessionMsg() }

type FromServer struct{ Raw []byte }

func (FromServer) isSessionMsg() {}

type ConnChanged struct {
	State conn.State
	Err   error
}

func (ConnChanged) isSessionMsg() {}

type SelectTarget struct {
	Part  duel.BodyPart
	Reply chan error
}

func (SelectTarget) isSessionMsg() {}

type SubmitAttack struct{ Reply chan error }

func (SubmitAttack) isSessionMsg() {}

type SendChat struct {
	Text  string
	Reply chan error
}

func (SendChat) isSessionMsg() {}

type GetSnapshot struct{ Reply chan Snapshot }

func (GetSnapshot) isSessionMsg() {}

type Exit struct{ Reply chan error }

func (Exit) isSessionMsg() {}

type bubbleFired struct {
	slot int
	gen  uint64
	hide bool
}

func (bubbleFired) isSessionMsg() {}

type Options struct {
	GameCode   string
	PlayerName string
	BubbleFade time.Duration
	BubbleHide time.Duration
	Logger     *zap.Logger
	OnIdentity func(playerName string) // INIT delivered a server-assigned name
	OnExit     func()
}

type ChatEntry struct {
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text"`
}

// Snapshot is a read-only copy of the session for status surfaces.
type Snapshot struct {
	SessionID     string                        `json:"sessionId"`
	GameCode      string                        `json:"gameCode"`
	PlayerName    string                        `json:"playerName"`
	UnitName      string                        `json:"unitName,omitempty"`
	Connection    string                        `json:"connection"`
	Slots         [duel.NumSlots]duel.SlotView `json:"slots"`
	Attack        duel.AttackState              `json:"attack"`
	Target        duel.BodyPart                 `json:"target,omitempty"`
	InFlight      duel.BodyPart                 `json:"inFlight,omitempty"`
	AttackEnabled bool                          `json:"attackEnabled"`
	Destroyed     []duel.DestroyedPart          `json:"destroyed"`
	Blocked       []duel.BodyPart               `json:"blocked"`
	Transcript    []ChatEntry                   `json:"transcript"`
	Finished      bool                          `json:"finished"`
	Result        string                        `json:"result,omitempty"`
}

// Session owns all duel state. Every mutation happens on the loop goroutine,
// one message at a time, in the order messages arrive.
type Session struct {
	id        uuid.UUID
	inbox     chan Msg
	transport Transport
	view      View
	opts      Options
	log       *zap.Logger

	player        string
	unit          string
	slots         *duel.Reconciler
	destroyed     *duel.Destruction
	attack        *duel.Attack
	attackEnabled bool
	bubbles       [duel.NumSlots]bubble
	transcript    []ChatEntry
	finished      bool
	result        string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, t Transport, v View, opts Options) *Session {
	if opts.BubbleFade <= 0 {
		opts.BubbleFade = 1500 * time.Millisecond
	}
	if opts.BubbleHide < opts.BubbleFade {
		opts.BubbleHide = opts.BubbleFade + 400*time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	id := uuid.New()
	s := &Session{
		id:            id,
		inbox:         make(chan Msg, 64),
		transport:     t,
		view:          v,
		opts:          opts,
		log:           log.Named("session").With(zap.String("session_id", id.String()), zap.String("game_code", opts.GameCode)),
		player:        opts.PlayerName,
		slots:         duel.NewReconciler(),
		destroyed:     duel.NewDestruction(),
		attackEnabled: true,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	s.attack = duel.NewAttack(s.log)
	s.destroyed.SetLocal(s.player, "")

	go s.loop()
	return s
}

func (s *Session) ID() uuid.UUID { return s.id }

// Inbox exposes the loop for callers that want to post raw messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Frame and ConnState make the session a conn.Sink.
func (s *Session) Frame(raw []byte) { s.post(s.ctx, FromServer{Raw: raw}) }

func (s *Session) ConnState(st conn.State, err error) {
	s.post(s.ctx, ConnChanged{State: st, Err: err})
}

func (s *Session) Select(ctx context.Context, part string) error {
	return s.requestErr(ctx, func(reply chan error) Msg {
		return SelectTarget{Part: duel.ParseBodyPart(part), Reply: reply}
	})
}

func (s *Session) Submit(ctx context.Context) error {
	return s.requestErr(ctx, func(reply chan error) Msg { return SubmitAttack{Reply: reply} })
}

func (s *Session) SendChat(ctx context.Context, text string) error {
	return s.requestErr(ctx, func(reply chan error) Msg { return SendChat{Text: text, Reply: reply} })
}

func (s *Session) Exit(ctx context.Context) error {
	return s.requestErr(ctx, func(reply chan error) Msg { return Exit{Reply: reply} })
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return request(ctx, s, func(reply chan Snapshot) Msg { return GetSnapshot{Reply: reply} })
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case FromServer:
				s.dispatch(msg.Raw)

			case ConnChanged:
				s.onConnState(msg.State, msg.Err)

			case SelectTarget:
				msg.Reply <- s.selectTarget(msg.Part)

			case SubmitAttack:
				msg.Reply <- s.submit()

			case SendChat:
				msg.Reply <- s.sendChat(msg.Text)

			case GetSnapshot:
				msg.Reply <- s.snapshot()

			case bubbleFired:
				s.onBubbleTimer(msg)

			case Exit:
				msg.Reply <- s.exit()
			}
		}
	}
}

func (s *Session) shutdown() {
	for i := range s.bubbles {
		s.bubbles[i].stop()
	}
}

func (s *Session) onConnState(st conn.State, err error) {
	switch st {
	case conn.StateOpen:
		s.view.Log("Connected to room \"" + s.opts.GameCode + "\" as " + s.player)
	case conn.StateClosed:
		s.view.Log("Connection closed")
	case conn.StateErrored:
		s.log.Warn("connection error", zap.Error(err))
		s.view.Log("Connection error")
	default:
		s.log.Debug("connection state", zap.Stringer("state", st))
	}
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:     s.id.String(),
		GameCode:      s.opts.GameCode,
		PlayerName:    s.player,
		UnitName:      s.unit,
		Connection:    s.transport.State().String(),
		Slots:         s.slots.Views(),
		Attack:        s.attack.State(),
		AttackEnabled: s.attackEnabled,
		Destroyed:     s.destroyed.All(),
		Blocked:       []duel.BodyPart{},
		Transcript:    append([]ChatEntry(nil), s.transcript...),
		Finished:      s.finished,
		Result:        s.result,
	}
	snap.Target, _ = s.attack.Target()
	snap.InFlight, _ = s.attack.InFlight()
	for _, p := range duel.HitZones {
		if s.destroyed.Blocked(p) {
			snap.Blocked = append(snap.Blocked, p)
		}
	}
	return snap
}

func (s *Session) appendTranscript(e ChatEntry) {
	s.transcript = append(s.transcript, e)
	if over := len(s.transcript) - transcriptLimit; over > 0 {
		s.transcript = append(s.transcript[:0:0], s.transcript[over:]...)
	}
}

// post blocks until the loop accepts m or ctx/the session ends.
func (s *Session) post(ctx context.Context, m Msg) bool {
	select {
	case s.inbox <- m:
		return true
	case <-s.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Session) requestErr(ctx context.Context, build func(chan error) Msg) error {
	err, rerr := request(ctx, s, build)
	if rerr != nil {
		return rerr
	}
	return err
}

func request[T any](ctx context.Context, s *Session, build func(chan T) Msg) (T, error) {
	var zero T
	reply := make(chan T, 1)
	if !s.post(ctx, build(reply)) {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		// The loop may have answered right before exiting.
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
