package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/duel-client/internal/duel"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

const barWidth = 20

var title = cases.Title(language.English)

// Label turns LEFT_ARM into "Left Arm".
func Label(part duel.BodyPart) string {
	return title.String(strings.ReplaceAll(strings.ToLower(string(part)), "_", " "))
}

// Terminal renders the duel as timestamped lines, one pane prefix per line.
type Terminal struct {
	mu            sync.Mutex
	out           io.Writer
	now           func() time.Time
	attackEnabled bool
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, now: time.Now, attackEnabled: true}
}

func (t *Terminal) Log(line string)  { t.line("log ", line) }
func (t *Terminal) Chat(line string) { t.line("chat", line) }

func (t *Terminal) RenderSlot(v duel.SlotView) {
	if v.Empty {
		t.line(fmt.Sprintf("p%d  ", v.Slot), v.DisplayName)
		return
	}
	filled := int(v.HealthRatio*barWidth + 0.5)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	shield := strings.Repeat("◆", v.DeflectionActive) + strings.Repeat("◇", v.DeflectionCapacity-v.DeflectionActive)
	t.line(fmt.Sprintf("p%d  ", v.Slot), fmt.Sprintf("%s [%s] %d/%d HP [%s] %s", v.DisplayName, v.UnitName, v.HP, v.HPMax, bar, shield))
}

func (t *Terminal) ShowBubble(slot int, text string) {
	t.line(fmt.Sprintf("p%d  ", slot), "💬 "+text)
}

// A line printer has nothing to fade or hide.
func (t *Terminal) FadeBubble(int) {}
func (t *Terminal) HideBubble(int) {}

func (t *Terminal) DisableBodyPart(part duel.BodyPart) {
	t.line("log ", "💀 "+Label(part)+" can no longer be targeted")
}

func (t *Terminal) Notify(message string) {
	t.line("note", "*** "+message+" ***")
}

func (t *Terminal) SetSelection(part duel.BodyPart) {
	if part == "" {
		return
	}
	t.line("log ", "🎯 You selected: "+Label(part))
}

func (t *Terminal) SetAttackEnabled(enabled bool) {
	t.mu.Lock()
	changed := t.attackEnabled != enabled
	t.attackEnabled = enabled
	t.mu.Unlock()
	if !changed {
		return
	}
	if enabled {
		t.line("ui  ", "attack ready")
	} else {
		t.line("ui  ", "attack locked")
	}
}

func (t *Terminal) ShowHP(attacker, defender string) {
	t.line("hp  ", attacker+" / "+defender)
}

func (t *Terminal) ShowResult(text string) {
	t.line("====", text)
	t.line("====", "type 'exit' to leave the duel")
}

func (t *Terminal) ShowRooms(rooms []protocol.Room) {
	if len(rooms) == 0 {
		t.line("room", "no open rooms")
		return
	}
	for _, r := range rooms {
		t.line("room", fmt.Sprintf("Game: %s  Players: %d", r.GameCode, len(r.Players)))
		for _, p := range r.Players {
			t.line("room", fmt.Sprintf("  %s (%d/%d HP)", p.Name, p.HP, p.HPMax))
		}
	}
}

func (t *Terminal) line(pane, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s | %s\n", t.now().Format("15:04:05"), pane, text)
}
