package effects

// Delay implements a simple feedback delay (echo).
type Delay struct {
	buf      []float32
	pos      int
	feedback float32
	wet      float32
}

// NewDelay creates a delay effect.
// delayMs: delay time in milliseconds
// feedback: feedback amount 0..1
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, delayMs float64, feedback, wet float32) *Delay {
	samples := int(delayMs * float64(sampleRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &Delay{
		buf:      make([]float32, samples),
		feedback: clamp(feedback, 0, 0.95),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(s float32) float32 {
	del := d.buf[d.pos]
	d.buf[d.pos] = s + del*d.feedback
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return s*(1-d.wet) + del*d.wet
}

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}
