package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order. Nil entries are skipped.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		if e == nil {
			continue
		}
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		if e != nil {
			e.Reset()
		}
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

// Switch passes audio through its effect only while enabled. Disabling clears the
// effect's state so re-enabling starts from silence.
type Switch struct {
	effect  Effector
	enabled bool
}

func NewSwitch(e Effector, enabled bool) *Switch {
	return &Switch{effect: e, enabled: enabled}
}

func (s *Switch) SetEnabled(on bool) {
	if s.enabled && !on {
		s.effect.Reset()
	}
	s.enabled = on
}

func (s *Switch) Enabled() bool { return s.enabled }

func (s *Switch) Process(l, r float32) (float32, float32) {
	if !s.enabled {
		return l, r
	}
	return s.effect.Process(l, r)
}

func (s *Switch) Reset() { s.effect.Reset() }
