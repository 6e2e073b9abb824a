package effects

import "math"

// Compressor implements basic dynamic range compression.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	env       float32
}

// NewCompressor creates a compressor effect.
// thresholdDB: threshold in dB (e.g., -20)
// ratio: compression ratio (e.g., 4 for 4:1)
// attackMs: attack time in ms
// releaseMs: release time in ms
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

func (c *Compressor) Process(s float32) float32 {
	abs := float32(math.Abs(float64(s)))
	// Envelope follower
	if abs > c.env {
		c.env += c.attack * (abs - c.env)
	} else {
		c.env += c.release * (abs - c.env)
	}
	return s * c.computeGain(c.env) * c.makeup
}

func (c *Compressor) computeGain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.env = 0
}
