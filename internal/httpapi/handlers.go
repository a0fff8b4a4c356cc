package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/duel"
	"github.com/DoyleJ11/duel-client/internal/lobby"
	"github.com/DoyleJ11/duel-client/internal/session"
)

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
	Inbox() chan<- lobby.Msg
	Done() <-chan struct{}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func GetState(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, ok := activeDuel(w, d)
		if !ok {
			return
		}
		snap, err := active.Snapshot(r.Context())
		if err != nil {
			fail(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func SelectTarget(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, ok := activeDuel(w, d)
		if !ok {
			return
		}
		var body struct {
			Part string `json:"part"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Part == "" {
			http.Error(w, "body must be {\"part\": \"HEAD\"}", http.StatusBadRequest)
			return
		}
		respond(w, d.Logger, active.Select(r.Context(), body.Part))
	}
}

func SubmitAttack(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, ok := activeDuel(w, d)
		if !ok {
			return
		}
		respond(w, d.Logger, active.Submit(r.Context()))
	}
}

func SendChat(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, ok := activeDuel(w, d)
		if !ok {
			return
		}
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		respond(w, d.Logger, active.SendChat(r.Context(), body.Text))
	}
}

func ExitDuel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, ok := activeDuel(w, d)
		if !ok {
			return
		}
		respond(w, d.Logger, active.Exit(r.Context()))
	}
}

func ListRooms(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Lobby.State(r.Context())
		if err != nil {
			fail(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func JoinRoom(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameCode string `json:"gameCode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GameCode == "" {
			http.Error(w, "body must be {\"gameCode\": \"...\"}", http.StatusBadRequest)
			return
		}
		if err := d.Lobby.Join(r.Context(), body.GameCode); err != nil {
			fail(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func activeDuel(w http.ResponseWriter, d Deps) (Duel, bool) {
	if d.Duel != nil {
		if active := d.Duel(); active != nil {
			return active, true
		}
	}
	http.Error(w, "no active duel", http.StatusNotFound)
	return nil, false
}

func respond(w http.ResponseWriter, log *zap.Logger, err error) {
	if err != nil {
		fail(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func fail(w http.ResponseWriter, log *zap.Logger, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		log.Warn("request failed", zap.Error(err))
	}
	writeJSON(w, code, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, duel.ErrPartDestroyed),
		errors.Is(err, duel.ErrNoTarget),
		errors.Is(err, duel.ErrAlreadySubmitted),
		errors.Is(err, lobby.ErrJoinInFlight):
		return http.StatusConflict
	case errors.Is(err, session.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrDuelOver),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, lobby.ErrClosed):
		return http.StatusGone
	case errors.Is(err, conn.ErrConnectionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
