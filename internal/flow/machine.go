package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Handler performs the side effects of one transition and returns the next state.
// Returning s.State keeps the conversation where it is.
type Handler func(ctx context.Context, s *Session, ev Event, r Responder) (State, error)

// Transition is a handler together with the states it may move to.
type Transition struct {
	Handle Handler
	To     []State
}

// Guard runs before entry and before every dispatch. It replies on its own
// and returns false to stop the conversation.
type Guard func(ctx context.Context, id Identity, r Responder) (bool, error)

// Machine describes one feature conversation.
type Machine struct {
	Feature string
	// Entry is the callback token that starts the feature.
	Entry string
	// Init installs the feature's empty payload into a fresh session.
	Init func(d *Data)
	// Start shows the first prompt. It receives a zero Event.
	Start   Transition
	States  []State
	Timeout time.Duration
	Table   map[State]map[EventKind]Transition
	Guard   Guard
}

// Validate checks that the machine is complete: every declared state has a
// way out, every table key and target is declared and every handler is set.
func (m *Machine) Validate() error {
	var errs []error
	if m.Feature == "" {
		errs = append(errs, errors.New("feature name is empty"))
	}
	if m.Init == nil {
		errs = append(errs, errors.New("init is nil"))
	}
	declared := func(s State) bool { return s == Terminal || slices.Contains(m.States, s) }

	check := func(where string, t Transition) {
		if t.Handle == nil {
			errs = append(errs, fmt.Errorf("%s: nil handler", where))
		}
		if len(t.To) == 0 {
			errs = append(errs, fmt.Errorf("%s: no targets", where))
		}
		for _, to := range t.To {
			if !declared(to) {
				errs = append(errs, fmt.Errorf("%s: undeclared target %q", where, to))
			}
		}
	}
	check("start", m.Start)

	for st, row := range m.Table {
		if !declared(st) || st == Terminal {
			errs = append(errs, fmt.Errorf("table state %q is not a declared non-terminal state", st))
		}
		for kind, t := range row {
			check(fmt.Sprintf("%s/%s", st, kind), t)
		}
	}
	for _, st := range m.States {
		if st == Terminal {
			continue
		}
		if len(m.Table[st]) == 0 {
			errs = append(errs, fmt.Errorf("state %q has no transitions", st))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("machine %s: %w", m.Feature, err)
	}
	return nil
}

// allows reports whether next is a legal result of t from current.
func (t Transition) allows(current, next State) bool {
	return next == current || slices.Contains(t.To, next)
}
