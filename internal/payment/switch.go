package payment

import "sync/atomic"

// Switch is the process-wide payments toggle. It starts from configuration and
// is flipped by the admin panel. The zero value is off.
type Switch struct {
	on atomic.Bool
}

func NewSwitch(on bool) *Switch {
	s := &Switch{}
	s.on.Store(on)
	return s
}

func (s *Switch) Enabled() bool { return s.on.Load() }

func (s *Switch) Set(on bool) { s.on.Store(on) }

// Toggle flips the switch and returns the new value.
func (s *Switch) Toggle() bool {
	for {
		cur := s.on.Load()
		if s.on.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}
