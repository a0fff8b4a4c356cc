package duel

import (
	"sort"
	"strings"
)

type BodyPart string

const (
	Head     BodyPart = "HEAD"
	Chest    BodyPart = "CHEST"
	LeftArm  BodyPart = "LEFT_ARM"
	RightArm BodyPart = "RIGHT_ARM"
	LeftLeg  BodyPart = "LEFT_LEG"
	RightLeg BodyPart = "RIGHT_LEG"
)

// HitZones are the parts the server currently knows about. The client does not
// reject other names; the server is the authority on what is targetable.
var HitZones = []BodyPart{Head, Chest, LeftArm, RightArm, LeftLeg, RightLeg}

func ParseBodyPart(s string) BodyPart {
	return BodyPart(strings.ToUpper(strings.TrimSpace(s)))
}

type partKey struct {
	unit string
	part BodyPart
}

// DestroyedPart is one entry of the destruction set.
type DestroyedPart struct {
	Unit string   `json:"unit"`
	Part BodyPart `json:"part"`
}

// Destruction is the session's monotonic set of destroyed (unit, part) pairs.
type Destruction struct {
	localUnit   string
	localPlayer string
	destroyed   map[partKey]struct{}
}

func NewDestruction() *Destruction {
	return &Destruction{destroyed: map[partKey]struct{}{}}
}

// SetLocal records which unit (and player) this client controls.
func (d *Destruction) SetLocal(playerName, unitName string) {
	d.localPlayer = playerName
	d.localUnit = unitName
}

// MarkDestroyed adds the pair. added is false for a pair already present, in
// which case the caller must not repeat any side effect. blocks tells whether
// the part should be disabled for selection.
func (d *Destruction) MarkDestroyed(unit string, part BodyPart) (added, blocks bool) {
	k := partKey{unit: unit, part: part}
	if _, ok := d.destroyed[k]; ok {
		return false, false
	}
	d.destroyed[k] = struct{}{}
	return true, !d.isLocal(unit)
}

// MarkEvent is MarkDestroyed for a BODY_PART_DESTROYED frame, which names the
// unit when it can and otherwise only the player.
func (d *Destruction) MarkEvent(player, unitName string, part BodyPart) (added, blocks bool) {
	if unitName == "" {
		added, _ = d.MarkDestroyed(playerKey(player), part)
		return added, added && player != d.localPlayer
	}
	return d.MarkDestroyed(unitName, part)
}

func (d *Destruction) IsDestroyed(unit string, part BodyPart) bool {
	_, ok := d.destroyed[partKey{unit: unit, part: part}]
	return ok
}

// Blocked reports whether part was destroyed on any unit other than ours.
func (d *Destruction) Blocked(part BodyPart) bool {
	for k := range d.destroyed {
		if k.part != part {
			continue
		}
		if strings.HasPrefix(k.unit, playerPrefix) {
			if strings.TrimPrefix(k.unit, playerPrefix) != d.localPlayer {
				return true
			}
			continue
		}
		if !d.isLocal(k.unit) {
			return true
		}
	}
	return false
}

func (d *Destruction) All() []DestroyedPart {
	out := make([]DestroyedPart, 0, len(d.destroyed))
	for k := range d.destroyed {
		out = append(out, DestroyedPart{Unit: k.unit, Part: k.part})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Unit != out[j].Unit {
			return out[i].Unit < out[j].Unit
		}
		return out[i].Part < out[j].Part
	})
	return out
}

func (d *Destruction) isLocal(unit string) bool {
	return d.localUnit != "" && unit == d.localUnit
}

// Events without a unit name are keyed by player so they never collide with a
// real unit name.
const playerPrefix = "player:"

func playerKey(player string) string { return playerPrefix + player }
