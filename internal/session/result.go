package session

import "go.uber.org/zap"

// present shows the duel result. The session is finished from here on; only
// Exit leaves it.
func (s *Session) present(text, target string) {
	if s.finished {
		s.log.Debug("duplicate duel result", zap.String("result", text))
		return
	}
	s.finished = true
	s.result = text
	s.setAttackEnabled(false)
	s.view.ShowResult(text)
	s.log.Info("duel finished", zap.String("result", text), zap.String("target_player", target))
}

func (s *Session) exit() error {
	s.shutdown()
	s.cancel()
	err := s.transport.Close()
	if s.opts.OnExit != nil {
		s.opts.OnExit()
	}
	return err
}
