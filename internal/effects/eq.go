package effects

import "math"

// EQ3Band implements a simple 3-band equalizer.
type EQ3Band struct {
	lowGain  float32
	midGain  float32
	highGain float32
	lpAlpha  float32
	hpAlpha  float32
	lp       float32 // lowpass state
	hp       float32 // highpass state
}

// NewEQ3Band creates a 3-band EQ.
// lowGain, midGain, highGain: gain for each band (1.0 = unity)
// lowFreq: crossover frequency between low and mid bands
// highFreq: crossover frequency between mid and high bands
func NewEQ3Band(sampleRate int, lowGain, midGain, highGain, lowFreq, highFreq float32) *EQ3Band {
	lpRC := 1.0 / (2.0 * math.Pi * float64(lowFreq))
	hpRC := 1.0 / (2.0 * math.Pi * float64(highFreq))
	dt := 1.0 / float64(sampleRate)
	return &EQ3Band{
		lowGain:  lowGain,
		midGain:  midGain,
		highGain: highGain,
		lpAlpha:  float32(dt / (lpRC + dt)),
		hpAlpha:  float32(dt / (hpRC + dt)),
	}
}

func (eq *EQ3Band) Process(s float32) float32 {
	eq.lp += eq.lpAlpha * (s - eq.lp)
	low := eq.lp

	eq.hp += eq.hpAlpha * (s - eq.hp)
	high := s - eq.hp

	mid := s - low - high

	return low*eq.lowGain + mid*eq.midGain + high*eq.highGain
}

func (eq *EQ3Band) Reset() {
	eq.lp = 0
	eq.hp = 0
}
