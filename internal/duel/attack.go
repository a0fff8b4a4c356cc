package duel

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

var ErrPartDestroyed = errors.New("body part destroyed")
var ErrNoTarget = errors.New("no target selected")
var ErrAlreadySubmitted = errors.New("attack already submitted")

type AttackState string

const (
	StateIdle           AttackState = "idle"
	StateTargetSelected AttackState = "target_selected"
	StateSubmitted      AttackState = "submitted"
)

const (
	evtSelect  = "select"
	evtSubmit  = "submit"
	evtResolve = "resolve"
	evtRelease = "release"
)

/*
	idle            --select-->  target_selected
	target_selected --submit-->  submitted        (one attack frame sent)
	*               --resolve--> idle             (round result, target cleared)
	submitted       --release--> idle | target_selected   (server error / reconnect)
*/

// Attack owns the pending target and the submit guard.
type Attack struct {
	machine  *fsm.FSM
	target   BodyPart
	inFlight BodyPart
}

func NewAttack(log *zap.Logger) *Attack {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Attack{}
	a.machine = fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: evtSelect, Src: []string{string(StateIdle)}, Dst: string(StateTargetSelected)},
			{Name: evtSubmit, Src: []string{string(StateTargetSelected)}, Dst: string(StateSubmitted)},
			{Name: evtResolve, Src: []string{string(StateTargetSelected), string(StateSubmitted)}, Dst: string(StateIdle)},
			{Name: evtRelease, Src: []string{string(StateSubmitted)}, Dst: string(StateIdle)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug("attack state", zap.String("event", e.Event), zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
	return a
}

func (a *Attack) State() AttackState { return AttackState(a.machine.Current()) }

// Target is the pending (not yet submitted) target.
func (a *Attack) Target() (BodyPart, bool) { return a.target, a.target != "" }

// InFlight is the target of the submitted, unresolved attack.
func (a *Attack) InFlight() (BodyPart, bool) { return a.inFlight, a.inFlight != "" }

// CanSubmit drives the enabled state of the attack control.
func (a *Attack) CanSubmit() bool { return a.State() == StateTargetSelected }

// Select makes part the pending target unless blocked says it is destroyed.
func (a *Attack) Select(ctx context.Context, part BodyPart, blocked func(BodyPart) bool) error {
	if part == "" {
		return ErrNoTarget
	}
	if blocked != nil && blocked(part) {
		return ErrPartDestroyed
	}
	a.target = part
	// Re-selecting in target_selected or submitted only replaces the target.
	return a.fire(ctx, evtSelect)
}

// Submit hands the pending target to send. A send error leaves everything as it was.
func (a *Attack) Submit(ctx context.Context, send func(BodyPart) error) error {
	switch {
	case a.State() == StateSubmitted:
		return ErrAlreadySubmitted
	case a.target == "":
		return ErrNoTarget
	}
	if err := send(a.target); err != nil {
		return err
	}
	if err := a.fire(ctx, evtSubmit); err != nil {
		return err
	}
	a.inFlight, a.target = a.target, ""
	return nil
}

// Resolve handles a round result: back to idle with nothing pending.
func (a *Attack) Resolve(ctx context.Context) error {
	a.target, a.inFlight = "", ""
	return a.fire(ctx, evtResolve)
}

// Release re-enables submission after a server rejection. The submitted target
// is not reinstated; a target picked while waiting survives.
func (a *Attack) Release(ctx context.Context) error {
	a.inFlight = ""
	if err := a.fire(ctx, evtRelease); err != nil {
		return err
	}
	if a.target != "" {
		return a.fire(ctx, evtSelect)
	}
	return nil
}

func (a *Attack) fire(ctx context.Context, event string) error {
	if !a.machine.Can(event) {
		return nil
	}
	if err := a.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("attack %s: %w", event, err)
	}
	return nil
}
