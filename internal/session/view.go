package session

import "github.com/DoyleJ11/duel-client/internal/duel"

// View is the rendering collaborator. Calls arrive on the session loop
// goroutine; implementations must not call back into the session.
type View interface {
	Log(line string)
	Chat(line string)
	RenderSlot(v duel.SlotView)
	ShowBubble(slot int, text string)
	FadeBubble(slot int)
	HideBubble(slot int)
	DisableBodyPart(part duel.BodyPart)
	Notify(message string)
	SetSelection(part duel.BodyPart) // "" clears the highlight
	SetAttackEnabled(enabled bool)
	ShowHP(attacker, defender string)
	ShowResult(text string)
}
