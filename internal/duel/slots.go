package duel

import "github.com/DoyleJ11/duel-client/internal/protocol"

const NumSlots = 2

const WaitingImage = "/img/waiting.png"

// SlotView is everything the view needs to draw one unit slot.
type SlotView struct {
	Slot               int     `json:"slot"`
	Empty              bool    `json:"empty"`
	PlayerID           int64   `json:"playerId,omitempty"`
	DisplayName        string  `json:"displayName"`
	UnitName           string  `json:"unitName,omitempty"`
	ImagePath          string  `json:"imagePath"`
	HP                 int64   `json:"hp"`
	HPMax              int64   `json:"hpMax"`
	HealthRatio        float64 `json:"healthRatio"`
	DeflectionActive   int     `json:"deflectionActive"`
	DeflectionCapacity int     `json:"deflectionCapacity"`
}

type slotState struct {
	owner    int64
	owned    bool // ownership survives clearing
	live     bool
	unit     protocol.UnitSnapshot
	capacity int
	hasCap   bool
}

// Reconciler keeps a stable playerId -> slot mapping across UNITS_STATE frames.
type Reconciler struct {
	slots [NumSlots]slotState
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reconcile applies one snapshot list and returns the slots that changed, in
// slot order. Units for a third player are returned in dropped.
func (r *Reconciler) Reconcile(units []protocol.UnitSnapshot) (changed []SlotView, dropped []protocol.UnitSnapshot) {
	if len(units) == 0 {
		for i := range r.slots {
			r.clear(i)
			changed = append(changed, r.view(i))
		}
		return changed, nil
	}

	touched := [NumSlots]bool{}
	for _, u := range units {
		idx, ok := r.indexOf(u.PlayerID)
		if !ok {
			idx, ok = r.claim(u.PlayerID)
		}
		if !ok {
			dropped = append(dropped, u)
			continue
		}
		r.update(idx, u)
		touched[idx] = true
	}

	for i, t := range touched {
		if t {
			changed = append(changed, r.view(i))
		}
	}
	return changed, dropped
}

// SlotOf reports the slot (1-based) owned by playerID.
func (r *Reconciler) SlotOf(playerID int64) (int, bool) {
	idx, ok := r.indexOf(playerID)
	return idx + 1, ok
}

// SlotByName finds a live slot showing displayName.
func (r *Reconciler) SlotByName(displayName string) (int, bool) {
	if displayName == "" {
		return 0, false
	}
	for i := range r.slots {
		if r.slots[i].live && r.slots[i].unit.DisplayName == displayName {
			return i + 1, true
		}
	}
	return 0, false
}

// View returns the current rendering of a 1-based slot.
func (r *Reconciler) View(slot int) SlotView {
	return r.view(slot - 1)
}

func (r *Reconciler) Views() [NumSlots]SlotView {
	var out [NumSlots]SlotView
	for i := range r.slots {
		out[i] = r.view(i)
	}
	return out
}

func (r *Reconciler) indexOf(playerID int64) (int, bool) {
	for i := range r.slots {
		if r.slots[i].owned && r.slots[i].owner == playerID {
			return i, true
		}
	}
	return 0, false
}

func (r *Reconciler) claim(playerID int64) (int, bool) {
	for i := range r.slots {
		if !r.slots[i].owned {
			r.slots[i].owned = true
			r.slots[i].owner = playerID
			return i, true
		}
	}
	return 0, false
}

func (r *Reconciler) update(idx int, u protocol.UnitSnapshot) {
	s := &r.slots[idx]
	s.live = true
	s.unit = u
	if !s.hasCap {
		s.capacity = max(u.DeflectionCurrent, 0)
		s.hasCap = true
	}
}

func (r *Reconciler) clear(idx int) {
	s := &r.slots[idx]
	s.live = false
	s.unit = protocol.UnitSnapshot{}
	s.capacity = 0
	s.hasCap = false
}

func (r *Reconciler) view(idx int) SlotView {
	s := r.slots[idx]
	if !s.live {
		return placeholder(idx + 1)
	}
	return SlotView{
		Slot:               idx + 1,
		PlayerID:           s.unit.PlayerID,
		DisplayName:        s.unit.DisplayName,
		UnitName:           s.unit.UnitName,
		ImagePath:          s.unit.ImagePath,
		HP:                 s.unit.HP,
		HPMax:              s.unit.HPMax,
		HealthRatio:        HealthRatio(s.unit.HP, s.unit.HPMax),
		DeflectionActive:   min(max(s.unit.DeflectionCurrent, 0), s.capacity),
		DeflectionCapacity: s.capacity,
	}
}

func placeholder(slot int) SlotView {
	name := "Waiting for opponent…"
	if slot == 1 {
		name = "Waiting for your unit…"
	}
	return SlotView{Slot: slot, Empty: true, DisplayName: name, ImagePath: WaitingImage}
}

// HealthRatio is hp/hpMax clamped to [0,1]; zero when hpMax is not positive.
func HealthRatio(hp, hpMax int64) float64 {
	if hpMax <= 0 {
		return 0
	}
	ratio := float64(hp) / float64(hpMax)
	return min(max(ratio, 0), 1)
}
