package view

import (
	"sync"

	"github.com/DoyleJ11/duel-client/internal/duel"
	"github.com/DoyleJ11/duel-client/internal/protocol"
)

type Event struct {
	Kind string
	Slot int
	Text string
}

// Recorder keeps every call it receives. It backs tests and headless runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	slots  map[int]duel.SlotView
	rooms  []protocol.Room
}

func NewRecorder() *Recorder {
	return &Recorder{slots: map[int]duel.SlotView{}}
}

func (r *Recorder) Log(line string)  { r.add(Event{Kind: "log", Text: line}) }
func (r *Recorder) Chat(line string) { r.add(Event{Kind: "chat", Text: line}) }

func (r *Recorder) RenderSlot(v duel.SlotView) {
	r.mu.Lock()
	r.slots[v.Slot] = v
	r.mu.Unlock()
	r.add(Event{Kind: "slot", Slot: v.Slot, Text: v.DisplayName})
}

func (r *Recorder) ShowBubble(slot int, text string) { r.add(Event{Kind: "bubble", Slot: slot, Text: text}) }
func (r *Recorder) FadeBubble(slot int)              { r.add(Event{Kind: "fade", Slot: slot}) }
func (r *Recorder) HideBubble(slot int)              { r.add(Event{Kind: "hide", Slot: slot}) }

func (r *Recorder) DisableBodyPart(part duel.BodyPart) {
	r.add(Event{Kind: "disable", Text: string(part)})
}

func (r *Recorder) Notify(message string)            { r.add(Event{Kind: "notify", Text: message}) }
func (r *Recorder) SetSelection(part duel.BodyPart) { r.add(Event{Kind: "selection", Text: string(part)}) }

func (r *Recorder) SetAttackEnabled(enabled bool) {
	text := "off"
	if enabled {
		text = "on"
	}
	r.add(Event{Kind: "attack", Text: text})
}

func (r *Recorder) ShowHP(attacker, defender string) {
	r.add(Event{Kind: "hp", Text: attacker + "/" + defender})
}

func (r *Recorder) ShowResult(text string) { r.add(Event{Kind: "result", Text: text}) }

func (r *Recorder) ShowRooms(rooms []protocol.Room) {
	r.mu.Lock()
	r.rooms = append([]protocol.Room(nil), rooms...)
	r.mu.Unlock()
	r.add(Event{Kind: "rooms"})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Of returns the events of one kind, in order.
func (r *Recorder) Of(kind string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Texts(kind string) []string {
	var out []string
	for _, e := range r.Of(kind) {
		out = append(out, e.Text)
	}
	return out
}

func (r *Recorder) Slot(n int) (duel.SlotView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.slots[n]
	return v, ok
}

func (r *Recorder) Rooms() []protocol.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Room(nil), r.rooms...)
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}
