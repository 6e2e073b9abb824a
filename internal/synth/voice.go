package synth

import (
	"math"

	"github.com/fsrlab/sonify-go/internal/envelope"
	"github.com/fsrlab/sonify-go/internal/genre"
)

const (
	twoPi = 2 * math.Pi

	// headroom keeps a single full-velocity voice below unity before mixing.
	headroom = 0.9

	// vibratoWarmup delays the vibrato LFO so attack transients stay stable.
	vibratoWarmup = 0.2

	pulseDuty = 0.3
)

// voice is one sounding note. It is owned exclusively by the Engine and only
// touched inside the Engine's critical section.
type voice struct {
	freq     float64
	velocity float64 // normalized 0..1
	preset   *genre.Preset
	waveform genre.Waveform

	phase      float64 // oscillator phase in [0, 1)
	age        float64 // seconds since note-on
	released   bool
	releaseAge float64 // seconds since note-off

	lastOut     float64 // one-pole filter memory, carried across blocks
	smoothAlpha float64
	sampleRate  float64
}

// generate renders len(dst) samples and adds them into dst, advancing phase,
// age and filter state. Not idempotent: calling twice for the same block
// produces different audio.
func (v *voice) generate(dst []float64, vibratoScale float64) {
	env := envelope.Value(v.preset.Envelope, v.age, v.released, v.releaseAge)

	freq := v.freq
	if v.preset.VibratoRate > 0 && v.age > vibratoWarmup {
		vib := math.Sin(twoPi*v.preset.VibratoRate*v.age) * v.preset.VibratoDepth * vibratoScale
		freq *= 1.0 + vib
	}
	inc := freq / v.sampleRate
	gain := env * v.velocity * headroom

	additive := v.waveform == genre.WaveSine && len(v.preset.Harmonics) > 1
	for i := range dst {
		var raw float64
		if additive {
			for h, amp := range v.preset.Harmonics {
				n := float64(h + 1)
				hp := math.Mod(v.phase*n, 1.0)
				// Normalize by harmonic index so high partials do not
				// dominate the sum.
				raw += math.Sin(twoPi*hp) * amp / n
			}
		} else {
			raw = waveSample(v.phase, v.waveform)
		}
		raw *= gain

		out := v.smoothAlpha*v.lastOut + (1.0-v.smoothAlpha)*raw
		v.lastOut = out
		dst[i] += out

		v.phase += inc
		if v.phase >= 1.0 {
			v.phase -= math.Floor(v.phase)
		}
	}

	dt := float64(len(dst)) / v.sampleRate
	v.age += dt
	if v.released {
		v.releaseAge += dt
	}
}

// finished reports whether the voice has fully decayed and can be pruned.
func (v *voice) finished() bool {
	return v.released && v.releaseAge >= v.preset.Envelope.Release
}

// waveSample evaluates a single waveform at phase p in [0, 1). The per-shape
// amplitude scaling keeps the shapes at comparable perceived loudness.
func waveSample(p float64, w genre.Waveform) float64 {
	switch w {
	case genre.WaveSquare:
		if p < 0.5 {
			return 0.5
		}
		return -0.5
	case genre.WaveSawtooth:
		return 2.0 * (p - math.Floor(p+0.5)) * 0.4
	case genre.WaveTriangle:
		return (2.0*math.Abs(2.0*(p-math.Floor(p+0.5))) - 1.0) * 0.6
	case genre.WavePulse:
		if p < pulseDuty {
			return 0.5
		}
		return -0.5
	default:
		return math.Sin(twoPi * p)
	}
}
