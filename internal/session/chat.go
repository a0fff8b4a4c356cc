package session

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/duel-client/internal/conn"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

// bubble holds the fade/hide pair for one slot. gen invalidates fires that
// raced a Stop.
type bubble struct {
	gen  uint64
	fade *time.Timer
	hide *time.Timer
}

func (b *bubble) stop() {
	if b.fade != nil {
		b.fade.Stop()
		b.fade = nil
	}
	if b.hide != nil {
		b.hide.Stop()
		b.hide = nil
	}
}

func (s *Session) sendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if s.finished {
		return ErrDuelOver
	}

	err := s.transport.Send(s.ctx, protocol.ChatMessage(text))
	if err != nil {
		if !errors.Is(err, conn.ErrConnectionUnavailable) {
			s.log.Warn("chat send failed", zap.Error(err))
		}
		s.view.Chat("❌ Cannot send: no connection to the server.")
	}

	// Local echo goes up regardless of the send.
	if slot, ok := s.slots.SlotByName(s.player); ok {
		s.showBubble(slot, text)
	}
	return err
}

func (s *Session) receiveChat(c protocol.Chat) {
	s.appendTranscript(ChatEntry{Sender: c.Sender, Text: c.Text})
	s.view.Chat(c.Sender + ": " + c.Text)

	slot, ok := s.slots.SlotByName(c.Sender)
	if !ok {
		s.log.Warn("chat sender matches no unit", zap.String("sender", c.Sender))
		return
	}
	s.showBubble(slot, c.Text)
}

func (s *Session) receiveRound(r protocol.RoundResult) {
	s.view.Chat("💥 Round result:")
	for _, line := range r.TurnMessages {
		s.appendTranscript(ChatEntry{Text: line})
		s.view.Chat("→ " + line)
	}
	attacker, defender := r.AttackerHP, r.DefenderHP
	s.view.Chat("❤️ HP player 1: " + attacker + ", player 2: " + defender)
	s.view.ShowHP(attacker, defender)

	if err := s.attack.Resolve(s.ctx); err != nil {
		s.log.Warn("resolve attack", zap.Error(err))
	}
	s.view.SetSelection("")
	s.setAttackEnabled(!s.finished)
}

// showBubble cancels whatever is pending for slot before scheduling a new
// fade/hide pair, so a slot never has more than one of each.
func (s *Session) showBubble(slot int, text string) {
	b := &s.bubbles[slot-1]
	b.stop()
	b.gen++
	gen := b.gen

	s.view.ShowBubble(slot, text)
	b.fade = time.AfterFunc(s.opts.BubbleFade, func() {
		s.post(s.ctx, bubbleFired{slot: slot, gen: gen})
	})
	b.hide = time.AfterFunc(s.opts.BubbleHide, func() {
		s.post(s.ctx, bubbleFired{slot: slot, gen: gen, hide: true})
	})
}

func (s *Session) onBubbleTimer(m bubbleFired) {
	if m.gen != s.bubbles[m.slot-1].gen {
		return // stale
	}
	if m.hide {
		s.bubbles[m.slot-1].hide = nil
		s.view.HideBubble(m.slot)
		return
	}
	s.bubbles[m.slot-1].fade = nil
	s.view.FadeBubble(m.slot)
}
