package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/ws"
)

// Deps wires the control API. Duel returns nil until a duel is running;
// Lobby is nil when the client was started straight into a duel.
type Deps struct {
	Duel   func() Duel
	Lobby  Lobby
	Logger *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	d.Logger = d.Logger.Named("httpapi")

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)

	r.Get("/state", GetState(d))
	r.Post("/select", SelectTarget(d))
	r.Post("/attack", SubmitAttack(d))
	r.Post("/chat", SendChat(d))
	r.Post("/exit", ExitDuel(d))

	if d.Lobby != nil {
		r.Route("/lobby", func(r chi.Router) {
			r.Get("/rooms", ListRooms(d))
			r.Post("/join", JoinRoom(d))
			r.Get("/ws", ws.Handler(d.Lobby, d.Logger))
		})
	}
	return r
}
