package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/config"
	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/console"
	"github.com/DoyleJ11/duel-client/internal/httpapi"
	"github.com/DoyleJ11/duel-client/internal/lobby"
	"github.com/DoyleJ11/duel-client/internal/logging"
	"github.com/DoyleJ11/duel-client/internal/protocol"
	"github.com/DoyleJ11/duel-client/internal/session"
	"github.com/DoyleJ11/duel-client/internal/store"
	"github.com/DoyleJ11/duel-client/internal/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	game := flag.String("game", cfg.GameCode, "room code to join directly")
	player := flag.String("player", cfg.PlayerName, "display name (defaults to the stored one)")
	useLobby := flag.Bool("lobby", false, "start in the lobby even if a room code is set")
	flag.Parse()

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	name, err := st.ResolveName(ctx, *player)
	if err != nil {
		return err
	}
	log = log.With(zap.String("player", name))

	term := view.NewTerminal(os.Stdout)
	var active atomic.Pointer[session.Session]
	joined := make(chan string, 1)

	var (
		con      *console.Console
		lobbyAPI httpapi.Lobby
		lobbyMgr *conn.Manager
	)
	if *useLobby || *game == "" {
		endpoint, err := conn.LobbyEndpoint(cfg.ServerURL, name)
		if err != nil {
			return err
		}
		lobbyMgr = conn.New(connOptions(cfg, endpoint, name, protocol.JoinLobby, log))
		lb := lobby.NewLobby(ctx, lobbyMgr, lobby.Options{
			PlayerName: name,
			JoinLock:   cfg.JoinLock,
			Logger:     log,
			OnJoin: func(code string) {
				select {
				case joined <- code:
				default:
				}
			},
		})

		rooms := make(chan lobby.Snapshot, 8)
		lb.Inbox() <- lobby.Subscribe{ClientID: "terminal", Outbox: rooms}
		go func() {
			for snap := range rooms {
				term.ShowRooms(snap.Rooms)
			}
		}()

		if err := lobbyMgr.Connect(ctx, lb); err != nil {
			return err
		}
		term.Log("Connected to the lobby as " + name + ". Type 'rooms' or 'join <code>'.")
		con = console.New(os.Stdout, nil, lb)
		lobbyAPI = lb
	} else {
		joined <- *game
		con = console.New(os.Stdout, nil, nil)
	}

	var srv *http.Server
	if cfg.ControlAddr != "" {
		srv = &http.Server{
			Addr: cfg.ControlAddr,
			Handler: httpapi.SetupRoutes(httpapi.Deps{
				Duel: func() httpapi.Duel {
					if s := active.Load(); s != nil {
						return s
					}
					return nil
				},
				Lobby:  lobbyAPI,
				Logger: log,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("control api listening", zap.String("addr", cfg.ControlAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("control api", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	consoleDone := make(chan error, 1)
	go func() {
		err := con.Run(ctx, os.Stdin)
		if errors.Is(err, io.EOF) && srv != nil {
			log.Info("stdin closed, control api only")
			return
		}
		consoleDone <- err
	}()

	var code string
	select {
	case code = <-joined:
	case <-ctx.Done():
		closeLobby(lobbyMgr)
		return nil
	case <-consoleDone:
		closeLobby(lobbyMgr)
		return nil
	}
	closeLobby(lobbyMgr)

	endpoint, err := conn.DuelEndpoint(cfg.ServerURL, code, name)
	if err != nil {
		return err
	}
	duelMgr := conn.New(connOptions(cfg, endpoint, name, protocol.Join, log))
	sess := session.New(ctx, duelMgr, term, session.Options{
		GameCode:   code,
		PlayerName: name,
		BubbleFade: cfg.BubbleFade,
		BubbleHide: cfg.BubbleHide,
		Logger:     log,
		OnIdentity: func(assigned string) {
			if err := st.SetPlayerName(context.Background(), assigned); err != nil {
				log.Warn("store player name", zap.Error(err))
			}
		},
	})
	active.Store(sess)
	con.SetDuel(sess)

	if err := duelMgr.Connect(ctx, sess); err != nil {
		// No reconnect; the user can still read the log and exit.
		log.Error("connect to duel", zap.Error(err))
	}

	select {
	case <-sess.Done():
	case <-consoleDone:
	case <-ctx.Done():
	}
	_ = duelMgr.Close()
	return nil
}

func connOptions(cfg config.Config, endpoint, name string, hello func(string) protocol.ClientMessage, log *zap.Logger) conn.Options {
	return conn.Options{
		Endpoint:         endpoint,
		Identity:         name,
		Hello:            hello,
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		Logger:           log,
	}
}

func closeLobby(m *conn.Manager) {
	if m != nil {
		_ = m.Close()
	}
}
