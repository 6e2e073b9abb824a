package effects

// Effector processes one mono sample at a time. The engine core is
// single-channel, so the master chain is too.
type Effector interface {
	Process(s float32) float32
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(s float32) float32 {
	for _, e := range c.effects {
		s = e.Process(s)
	}
	return s
}

// ProcessBlock runs every sample of dst through the chain in place.
func (c *Chain) ProcessBlock(dst []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i, s := range dst {
		dst[i] = c.Process(s)
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

// Len returns the number of effects in the chain.
func (c *Chain) Len() int {
	return len(c.effects)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
