package session

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/duel"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

// dispatch decodes one frame and applies it before the next is read. A bad
// frame is dropped on its own.
func (s *Session) dispatch(raw []byte) {
	frame, err := protocol.Decode(raw)
	if err != nil {
		s.log.Warn("dropping frame", zap.Error(err), zap.ByteString("raw", truncate(raw, 256)))
		return
	}

	switch f := frame.(type) {
	case protocol.Init:
		s.onInit(f)

	case protocol.Joined:
		s.view.Log("👤 " + f.Message)

	case protocol.Reconnected:
		s.view.Log("🔄 " + f.Message)
		s.releaseAttack()

	case protocol.Info:
		s.view.Log("ℹ️ " + f.Message)

	case protocol.ServerError:
		s.log.Warn("server rejected request", zap.String("message", f.Message))
		s.view.Log("❌ " + f.Message)
		s.releaseAttack()

	case protocol.BothSelected:
		s.view.Log("⏳ Both players picked targets, resolving the attack...")

	case protocol.DuelResult:
		s.present(f.ResultText, f.TargetPlayer)

	case protocol.BodyPartDestroyed:
		s.onBodyPartDestroyed(f)

	case protocol.UnitsState:
		s.reconcile(f.Units)

	case protocol.Chat:
		s.receiveChat(f)

	case protocol.RoundResult:
		s.receiveRound(f)

	case protocol.LobbyState:
		s.log.Debug("lobby frame on duel channel", zap.Int("rooms", len(f.Rooms)))

	case protocol.Unrecognized:
		s.log.Info("ignoring unrecognized frame", zap.String("type", f.Type))
	}
}

func (s *Session) onInit(f protocol.Init) {
	if f.PlayerName != "" && f.PlayerName != s.player {
		s.player = f.PlayerName
		s.transport.SetIdentity(f.PlayerName)
		if s.opts.OnIdentity != nil {
			s.opts.OnIdentity(f.PlayerName)
		}
	}
	s.unit = f.PlayerUnitName
	s.destroyed.SetLocal(s.player, s.unit)
	s.log.Info("identity assigned", zap.String("player", s.player), zap.String("unit", s.unit))
}

func (s *Session) reconcile(units []protocol.UnitSnapshot) {
	changed, dropped := s.slots.Reconcile(units)
	for _, v := range changed {
		s.view.RenderSlot(v)
	}
	for _, u := range dropped {
		s.log.Warn("no free slot for unit", zap.Int64("player_id", u.PlayerID), zap.String("player", u.DisplayName))
	}
}

func (s *Session) onBodyPartDestroyed(f protocol.BodyPartDestroyed) {
	part := duel.ParseBodyPart(f.BodyPart)
	added, blocks := s.destroyed.MarkEvent(f.Player, f.PlayerUnitName, part)
	if !added {
		s.log.Debug("duplicate destruction event", zap.String("player", f.Player), zap.String("part", string(part)))
		return
	}

	s.view.Log("💀 " + f.Message)
	s.view.Chat("💀 " + f.Message)
	s.appendTranscript(ChatEntry{Text: f.Message})
	if blocks {
		s.view.DisableBodyPart(part)
	}
	s.view.Notify(f.Message)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
