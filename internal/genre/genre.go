package genre

import (
	"errors"

	"github.com/fsrlab/sonify-go/internal/envelope"
)

// Waveform identifies an oscillator shape.
type Waveform int

const (
	// WaveAuto is not a real waveform: engines use it to request per-voice
	// selection from the preset's permitted list.
	WaveAuto Waveform = iota - 1
	WaveSine
	WaveSquare
	WaveSawtooth
	WaveTriangle
	WavePulse
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	case WavePulse:
		return "pulse"
	default:
		return "auto"
	}
}

// ParseWaveform maps a waveform name to its constant. Unknown names map to
// WaveAuto.
func ParseWaveform(name string) Waveform {
	switch name {
	case "sine":
		return WaveSine
	case "square":
		return WaveSquare
	case "sawtooth":
		return WaveSawtooth
	case "triangle":
		return WaveTriangle
	case "pulse":
		return WavePulse
	default:
		return WaveAuto
	}
}

// Preset holds the timbre profile for one musical genre. Presets are built
// once at init and must be treated as read-only.
type Preset struct {
	Key         string
	Name        string
	Description string

	// Scale is the permitted pitch classes (semitone offsets 0-11), in
	// quantization tie-break order.
	Scale []int

	// Waveforms lists the oscillator shapes voices may pick from.
	Waveforms []Waveform

	// Harmonics is the additive amplitude series; index 0 is the fundamental.
	Harmonics []float64

	Envelope envelope.ADSR

	// Reverb is the wet mix fed back from the engine's delay line, 0..1.
	Reverb float64

	// VibratoRate in Hz; VibratoDepth is a fractional frequency deviation.
	// A rate of 0 disables vibrato entirely.
	VibratoRate  float64
	VibratoDepth float64

	// FilterCutoff is a 0..1 brightness hint consumed by the voice
	// smoothing filter (1 = brightest, least smoothing).
	FilterCutoff float64
}

// Info is the catalog listing entry for one genre.
type Info struct {
	Key         string
	Name        string
	Description string
}

// ErrUnknownGenre is returned by Lookup for keys absent from the catalog.
var ErrUnknownGenre = errors.New("genre: unknown genre")

// DefaultKey is the preset engines start on.
const DefaultKey = "jazz"

var presets = []Preset{
	{
		Key:         "jazz",
		Name:        "Jazz",
		Description: "Smooth, warm tones with rich harmonics",
		Scale:       []int{0, 2, 3, 5, 7, 9, 10},
		Waveforms:   []Waveform{WaveSine, WaveTriangle},
		Harmonics:   []float64{1.0, 0.3, 0.2, 0.15, 0.1},
		Envelope:    envelope.ADSR{Attack: 0.02, Decay: 0.15, Sustain: 0.6, Release: 0.3},
		Reverb:      0.4,
		VibratoRate: 5.5, VibratoDepth: 0.015,
		FilterCutoff: 0.7,
	},
	{
		Key:         "rock",
		Name:        "Rock & Roll",
		Description: "Punchy, energetic tones with sustain",
		Scale:       []int{0, 2, 4, 5, 7, 9, 11},
		Waveforms:   []Waveform{WaveSquare, WaveSawtooth},
		Harmonics:   []float64{1.0, 0.6, 0.4, 0.3, 0.2, 0.15},
		Envelope:    envelope.ADSR{Attack: 0.005, Decay: 0.08, Sustain: 0.8, Release: 0.15},
		Reverb:      0.3,
		VibratoRate: 6.0, VibratoDepth: 0.02,
		FilterCutoff: 0.8,
	},
	{
		Key:         "metal",
		Name:        "Heavy Metal",
		Description: "Aggressive, distorted tones with heavy sustain",
		Scale:       []int{0, 2, 3, 5, 7, 8, 10},
		Waveforms:   []Waveform{WaveSquare, WavePulse},
		Harmonics:   []float64{1.0, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3},
		Envelope:    envelope.ADSR{Attack: 0.001, Decay: 0.05, Sustain: 0.9, Release: 0.1},
		Reverb:      0.5,
		VibratoRate: 0, VibratoDepth: 0,
		FilterCutoff: 0.95,
	},
	{
		Key:         "classical",
		Name:        "Classical",
		Description: "Pure, elegant tones with natural decay",
		Scale:       []int{0, 2, 4, 5, 7, 9, 11},
		Waveforms:   []Waveform{WaveSine, WaveTriangle},
		Harmonics:   []float64{1.0, 0.4, 0.25, 0.15, 0.1, 0.05},
		Envelope:    envelope.ADSR{Attack: 0.05, Decay: 0.2, Sustain: 0.5, Release: 0.4},
		Reverb:      0.6,
		VibratoRate: 4.5, VibratoDepth: 0.012,
		FilterCutoff: 0.75,
	},
	{
		Key:         "electronic",
		Name:        "Electronic",
		Description: "Synthetic, digital tones with character",
		Scale:       []int{0, 2, 4, 7, 9},
		Waveforms:   []Waveform{WaveSquare, WaveSawtooth, WavePulse},
		Harmonics:   []float64{1.0, 0.5, 0.6, 0.4, 0.3, 0.25, 0.2},
		Envelope:    envelope.ADSR{Attack: 0.001, Decay: 0.12, Sustain: 0.7, Release: 0.25},
		Reverb:      0.45,
		VibratoRate: 7.0, VibratoDepth: 0.025,
		FilterCutoff: 0.85,
	},
	{
		Key:         "ambient",
		Name:        "Ambient",
		Description: "Ethereal, atmospheric soundscapes",
		Scale:       []int{0, 2, 4, 7, 9, 11},
		Waveforms:   []Waveform{WaveSine, WaveTriangle},
		Harmonics:   []float64{1.0, 0.25, 0.2, 0.15, 0.1, 0.08, 0.05},
		Envelope:    envelope.ADSR{Attack: 0.3, Decay: 0.4, Sustain: 0.4, Release: 0.8},
		Reverb:      0.8,
		VibratoRate: 3.0, VibratoDepth: 0.01,
		FilterCutoff: 0.6,
	},
}

var byKey = func() map[string]*Preset {
	m := make(map[string]*Preset, len(presets))
	for i := range presets {
		m[presets[i].Key] = &presets[i]
	}
	return m
}()

// Lookup returns the preset for key, or ErrUnknownGenre.
func Lookup(key string) (*Preset, error) {
	p, ok := byKey[key]
	if !ok {
		return nil, ErrUnknownGenre
	}
	return p, nil
}

// Default returns the preset for DefaultKey.
func Default() *Preset {
	return byKey[DefaultKey]
}

// List returns catalog entries in definition order. The order is stable
// across calls.
func List() []Info {
	out := make([]Info, len(presets))
	for i, p := range presets {
		out[i] = Info{Key: p.Key, Name: p.Name, Description: p.Description}
	}
	return out
}
