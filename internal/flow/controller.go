// Package flow runs the per-feature conversation state machines. Each feature
// declares a Machine; the Controller keeps one typed session per chat and user,
// routes events through the machine's transition table and persists the result.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/state"
	"github.com/m3rciful/scholarbot/internal/metrics"
)

// ErrorText replaces any handler failure.
const ErrorText = "⚠️ An error occurred. Please try again."

// MenuButton returns to the main menu.
var MenuButton = Button{Text: "🔙 Back to Menu", Unique: "BACK_TO_MENU"}

// Controller owns every feature machine and the session store.
type Controller struct {
	store    state.Store[Data]
	locker   *state.Locker
	machines map[string]*Machine
	now      func() time.Time
}

// NewController validates and registers machines.
func NewController(store state.Store[Data], machines ...*Machine) (*Controller, error) {
	c := &Controller{
		store:    store,
		locker:   state.NewLocker(),
		machines: make(map[string]*Machine, len(machines)),
		now:      time.Now,
	}
	for _, m := range machines {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.machines[m.Feature]; dup {
			return nil, fmt.Errorf("flow: duplicate feature %q", m.Feature)
		}
		c.machines[m.Feature] = m
	}
	return c, nil
}

// Machines lists the registered machines.
func (c *Controller) Machines() []*Machine {
	out := make([]*Machine, 0, len(c.machines))
	for _, m := range c.machines {
		out = append(out, m)
	}
	return out
}

func keyOf(id Identity) state.Key {
	return state.Key{ChatID: id.ChatID, UserID: id.UserID}
}

// Enter starts feature for id. Any previous session is dropped first, so no
// payload leaks between features or between two runs of the same feature.
func (c *Controller) Enter(ctx context.Context, feature string, id Identity, r Responder) error {
	m, ok := c.machines[feature]
	if !ok {
		return fmt.Errorf("flow: unknown feature %q", feature)
	}
	ctx = logger.WithFeature(ctx, feature)
	key := keyOf(id)
	unlock := c.locker.Lock(key)
	defer unlock()

	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("flow: reset session: %w", err)
	}
	if m.Guard != nil {
		ok, err := m.Guard(ctx, id, r)
		if err != nil {
			return c.fail(ctx, m, "", err, r)
		}
		if !ok {
			metrics.RecordFlowEvent(feature, "blocked")
			return nil
		}
	}

	s := &Session{Key: key, Feature: feature}
	m.Init(&s.Data)
	next, err := m.Start.Handle(ctx, s, Event{}, r)
	if err != nil {
		return c.fail(ctx, m, "", err, r)
	}
	if next == "" || !m.Start.allows("", next) {
		return c.fail(ctx, m, "", fmt.Errorf("start returned undeclared state %q", next), r)
	}
	metrics.RecordFlowEvent(feature, "entered")
	logger.Debug(ctx, logger.CompFlow, "flow.enter",
		slog.String("feature", feature),
		slog.String("state", string(next)),
	)
	return c.commit(ctx, m, s, next)
}

// Dispatch feeds ev to the active session of id. It reports false when there
// is no live session or the current state has no transition for ev.Kind; the
// session is left untouched in that case. Handler failures are answered with
// ErrorText and keep the current state.
func (c *Controller) Dispatch(ctx context.Context, id Identity, ev Event, r Responder) (bool, error) {
	if ev.Kind == EventCancel {
		return c.Cancel(ctx, id)
	}
	key := keyOf(id)
	unlock := c.locker.Lock(key)
	defer unlock()

	s, ok, err := c.store.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("flow: load session: %w", err)
	}
	if !ok {
		return false, nil
	}
	ctx = logger.WithFeature(ctx, s.Feature)
	m, ok := c.machines[s.Feature]
	if !ok {
		_ = c.store.Delete(ctx, key)
		return false, nil
	}
	t, ok := m.Table[s.State][ev.Kind]
	if !ok {
		metrics.RecordFlowEvent(m.Feature, "unmatched")
		logger.Debug(ctx, logger.CompFlow, "flow.unmatched",
			slog.String("state", string(s.State)),
			slog.String("event", ev.Kind.String()),
		)
		return false, nil
	}

	if m.Guard != nil {
		allowed, err := m.Guard(ctx, id, r)
		if err != nil {
			return true, c.fail(ctx, m, s.State, err, r)
		}
		if !allowed {
			metrics.RecordFlowEvent(m.Feature, "blocked")
			return true, c.store.Delete(ctx, key)
		}
	}

	from := s.State
	next, err := t.Handle(ctx, &s, ev, r)
	if err == nil && !t.allows(from, next) {
		err = fmt.Errorf("%s/%s returned undeclared state %q", from, ev.Kind, next)
	}
	if err != nil {
		return true, c.fail(ctx, m, from, err, r)
	}
	metrics.RecordFlowEvent(m.Feature, "advanced")
	logger.Debug(ctx, logger.CompFlow, "flow.transition",
		slog.String("event", ev.Kind.String()),
		slog.String("from", string(from)),
		slog.String("to", string(next)),
	)
	return true, c.commit(ctx, m, &s, next)
}

// Cancel drops the session of id and reports whether there was one.
func (c *Controller) Cancel(ctx context.Context, id Identity) (bool, error) {
	key := keyOf(id)
	unlock := c.locker.Lock(key)
	defer unlock()

	s, ok, err := c.store.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("flow: load session: %w", err)
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("flow: delete session: %w", err)
	}
	if ok {
		metrics.RecordFlowEvent(s.Feature, "cancelled")
	}
	return ok, nil
}

// Active returns the live session of id.
func (c *Controller) Active(ctx context.Context, id Identity) (Session, bool, error) {
	return c.store.Load(ctx, keyOf(id))
}

func (c *Controller) commit(ctx context.Context, m *Machine, s *Session, next State) error {
	if next == Terminal {
		return c.store.Delete(ctx, s.Key)
	}
	s.State = next
	s.Touch(c.now(), m.Timeout)
	if err := c.store.Save(ctx, *s); err != nil {
		return fmt.Errorf("flow: save session: %w", err)
	}
	return nil
}

// fail logs err and sends ErrorText; the stored session is not touched.
func (c *Controller) fail(ctx context.Context, m *Machine, at State, err error, r Responder) error {
	metrics.RecordFlowEvent(m.Feature, "failed")
	logger.Error(ctx, logger.CompFlow, "flow.handler_failed",
		slog.String("feature", m.Feature),
		slog.String("state", string(at)),
		slog.String("err", err.Error()),
	)
	return r.Send(ErrorText, Row(MenuButton))
}
