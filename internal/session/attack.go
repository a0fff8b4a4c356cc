package session

import (
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/duel"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

func (s *Session) selectTarget(part duel.BodyPart) error {
	if s.finished {
		return ErrDuelOver
	}
	if err := s.attack.Select(s.ctx, part, s.destroyed.Blocked); err != nil {
		if errors.Is(err, duel.ErrPartDestroyed) {
			s.view.Log("❌ That body part is destroyed! Pick another one.")
		}
		return err
	}
	s.view.SetSelection(part)
	s.setAttackEnabled(s.attack.CanSubmit())
	return nil
}

func (s *Session) submit() error {
	if s.finished {
		return ErrDuelOver
	}

	err := s.attack.Submit(s.ctx, func(p duel.BodyPart) error {
		return s.transport.Send(s.ctx, protocol.Attack(string(p)))
	})
	switch {
	case err == nil:
		part, _ := s.attack.InFlight()
		s.setAttackEnabled(false)
		s.view.SetSelection("")
		s.view.Log("🕒 Attack sent at " + string(part) + ". Waiting for the opponent...")
		s.log.Debug("attack submitted", zap.String("part", string(part)))
	case errors.Is(err, duel.ErrNoTarget):
		s.view.Log("❗ Select a body part first!")
	case errors.Is(err, conn.ErrConnectionUnavailable):
		s.view.Log("❌ Cannot attack: no connection.")
	case errors.Is(err, duel.ErrAlreadySubmitted):
		// control is disabled while an attack is in flight
	default:
		s.log.Warn("attack failed", zap.Error(err))
		s.view.Log("❌ Attack failed: " + err.Error())
	}
	return err
}

// releaseAttack re-enables the attack control after a rejection or reconnect.
func (s *Session) releaseAttack() {
	if err := s.attack.Release(s.ctx); err != nil {
		s.log.Warn("release attack", zap.Error(err))
	}
	s.setAttackEnabled(!s.finished)
}

func (s *Session) setAttackEnabled(enabled bool) {
	s.attackEnabled = enabled
	s.view.SetAttackEnabled(enabled)
}
