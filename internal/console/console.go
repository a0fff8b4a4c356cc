package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/DoyleJ11/duel-client/internal/lobby"
	"github.com/DoyleJ11/duel-client/internal/session"
)

var ErrNoDuel = errors.New("not in a duel yet")
var ErrNoLobby = errors.New("not connected to the lobby")

type Duel interface {
	Select(ctx context.Context, part string) error
	Submit(ctx context.Context) error
	SendChat(ctx context.Context, text string) error
	Exit(ctx context.Context) error
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

type Lobby interface {
	Join(ctx context.Context, gameCode string) error
	State(ctx context.Context) (lobby.View, error)
}

const help = `commands:
  select <part>   pick a target (HEAD, CHEST, LEFT_ARM, RIGHT_ARM, LEFT_LEG, RIGHT_LEG)
  attack          send the selected attack
  say <text>      chat
  state           print the duel state
  rooms           list lobby rooms
  join <code>     join a room from the lobby
  exit            leave`

// Console turns input lines into duel and lobby commands. The duel can be
// attached later, once a lobby join has been accepted.
type Console struct {
	out io.Writer

	mu    sync.Mutex
	duel  Duel
	lobby Lobby
}

func New(out io.Writer, d Duel, l Lobby) *Console {
	return &Console{out: out, duel: d, lobby: l}
}

func (c *Console) SetDuel(d Duel) {
	c.mu.Lock()
	c.duel = d
	c.mu.Unlock()
}

func (c *Console) current() (Duel, Lobby) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duel, c.lobby
}

// Run reads commands until "exit" (nil), end of input (io.EOF) or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return io.EOF
			}
			quit, err := c.Exec(ctx, line)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs one command line. quit is true after "exit".
func (c *Console) Exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	d, l := c.current()

	switch strings.ToLower(cmd) {
	case "":
		return false, nil

	case "help", "?":
		fmt.Fprintln(c.out, help)
		return false, nil

	case "select", "s":
		if d == nil {
			return false, ErrNoDuel
		}
		if arg == "" {
			return false, fmt.Errorf("usage: select <part>")
		}
		return false, d.Select(ctx, arg)

	case "attack", "a":
		if d == nil {
			return false, ErrNoDuel
		}
		return false, d.Submit(ctx)

	case "say":
		if d == nil {
			return false, ErrNoDuel
		}
		return false, d.SendChat(ctx, arg)

	case "state":
		if d == nil {
			return false, ErrNoDuel
		}
		snap, err := d.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		c.printState(snap)
		return false, nil

	case "rooms":
		if l == nil {
			return false, ErrNoLobby
		}
		v, err := l.State(ctx)
		if err != nil {
			return false, err
		}
		if len(v.Rooms) == 0 {
			fmt.Fprintln(c.out, "no open rooms")
		}
		for _, r := range v.Rooms {
			fmt.Fprintf(c.out, "%s (%d players)\n", r.GameCode, len(r.Players))
		}
		return false, nil

	case "join":
		if l == nil {
			return false, ErrNoLobby
		}
		if arg == "" {
			return false, fmt.Errorf("usage: join <code>")
		}
		return false, l.Join(ctx, arg)

	case "exit", "quit":
		if d != nil {
			if err := d.Exit(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
				return true, err
			}
		}
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (c *Console) printState(s session.Snapshot) {
	fmt.Fprintf(c.out, "room %s as %s [%s]\n", s.GameCode, s.PlayerName, s.Connection)
	for _, v := range s.Slots {
		if v.Empty {
			fmt.Fprintf(c.out, "  p%d %s\n", v.Slot, v.DisplayName)
			continue
		}
		fmt.Fprintf(c.out, "  p%d %s %d/%d HP\n", v.Slot, v.DisplayName, v.HP, v.HPMax)
	}
	fmt.Fprintf(c.out, "attack: %s", s.Attack)
	if s.Target != "" {
		fmt.Fprintf(c.out, " target=%s", s.Target)
	}
	fmt.Fprintln(c.out)
	if s.Finished {
		fmt.Fprintf(c.out, "result: %s\n", s.Result)
	}
}
