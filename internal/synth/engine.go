package synth

import (
	"hash/fnv"
	"math"
	"strconv"
	"sync"

	"github.com/fsrlab/sonify-go/internal/genre"
)

// Params configures an Engine. Zero-value fields fall back to the defaults
// from DefaultParams.
type Params struct {
	// DefaultGenre selects the preset active at startup.
	DefaultGenre string

	// SmoothAlpha is the base coefficient of the per-voice one-pole declick
	// filter (fraction of the previous output kept per sample). Each voice
	// derives its effective coefficient from this and the preset's
	// filter-cutoff hint.
	SmoothAlpha float64

	// ReverbFeedback scales samples written back into the reverb delay line.
	ReverbFeedback float64

	// LimitCeiling is the peak amplitude the block limiter reduces to.
	LimitCeiling float64

	// Waveform pins a single oscillator shape for every voice. Leave as
	// genre.WaveAuto to select per voice from the preset's permitted list.
	Waveform genre.Waveform
}

func DefaultParams() Params {
	return Params{
		DefaultGenre:   genre.DefaultKey,
		SmoothAlpha:    0.9,
		ReverbFeedback: 0.5,
		LimitCeiling:   0.7,
		Waveform:       genre.WaveAuto,
	}
}

// reverbSeconds is the length of the circular reverb delay line.
const reverbSeconds = 0.2

// voiceID identifies one concurrently-sounding note: retriggering the same
// (instrument, quantized note) pair replaces the prior voice outright.
type voiceID struct {
	instrument string
	note       int
}

// Engine is the polyphonic voice registry and block renderer. Control calls
// and RenderBlock share one mutex; every operation either fully applies or
// is a no-op, so a note-on issued concurrently with a render pass lands
// entirely in that block or entirely in the next.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	params     Params

	preset       *genre.Preset
	voices       map[voiceID]*voice
	volume       float64 // master, 0..2
	expression   float64 // pressure-driven scalar, 0..1
	vibratoScale float64 // 1..maxVibratoScale

	reverb    []float64
	reverbPos int

	acc    []float64 // render scratch, reused across blocks
	closed bool
}

// maxVibratoScale bounds SetVibratoScale; matches the mapper's estimator cap.
const maxVibratoScale = 1.3

func New(sampleRate int, params Params) *Engine {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	def := DefaultParams()
	if params.DefaultGenre == "" {
		params.DefaultGenre = def.DefaultGenre
	}
	if params.SmoothAlpha <= 0 || params.SmoothAlpha >= 1 {
		params.SmoothAlpha = def.SmoothAlpha
	}
	if params.ReverbFeedback <= 0 {
		params.ReverbFeedback = def.ReverbFeedback
	}
	params.ReverbFeedback = clamp(params.ReverbFeedback, 0, 0.95)
	if params.LimitCeiling <= 0 {
		params.LimitCeiling = def.LimitCeiling
	}
	preset, err := genre.Lookup(params.DefaultGenre)
	if err != nil {
		preset = genre.Default()
	}
	return &Engine{
		sampleRate:   float64(sampleRate),
		params:       params,
		preset:       preset,
		voices:       make(map[voiceID]*voice),
		volume:       1.0,
		expression:   1.0,
		vibratoScale: 1.0,
		reverb:       make([]float64, int(float64(sampleRate)*reverbSeconds)),
	}
}

// NoteOn starts (or replaces) a voice. The note is quantized to the active
// preset's scale and bound to that preset for the voice's whole lifetime.
// Out-of-range inputs are clamped, never rejected.
func (e *Engine) NoteOn(note, velocity int, instrument string) {
	note = clampInt(note, 0, 127)
	velocity = clampInt(velocity, 1, 127)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	q := quantizeToScale(note, e.preset.Scale)
	id := voiceID{instrument: instrument, note: q}
	e.voices[id] = &voice{
		freq:        NoteToFreq(q),
		velocity:    float64(velocity) / 127.0,
		preset:      e.preset,
		waveform:    e.pickWaveform(id),
		smoothAlpha: voiceAlpha(e.params.SmoothAlpha, e.preset.FilterCutoff),
		sampleRate:  e.sampleRate,
	}
}

// NoteOff releases the voice at the quantized identity, letting its envelope
// decay. Idempotent: absent or already-released voices are left alone.
func (e *Engine) NoteOff(note int, instrument string) {
	note = clampInt(note, 0, 127)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	q := quantizeToScale(note, e.preset.Scale)
	if v, ok := e.voices[voiceID{instrument: instrument, note: q}]; ok && !v.released {
		v.released = true
	}
}

// AllNotesOff discards every voice immediately, bypassing release.
func (e *Engine) AllNotesOff() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.voices)
}

// SetGenre swaps the active preset and hard-cuts all current voices: their
// waveform and harmonic shape belong to the old preset and cannot be
// reinterpreted. Unknown keys are ignored and change nothing.
func (e *Engine) SetGenre(key string) {
	preset, err := genre.Lookup(key)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.preset = preset
	clear(e.voices)
}

// Genre returns the active preset's key.
func (e *Engine) Genre() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preset.Key
}

// Scale returns a copy of the active preset's scale.
func (e *Engine) Scale() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, len(e.preset.Scale))
	copy(out, e.preset.Scale)
	return out
}

// SetVolume stores the master volume scalar, clamped to [0, 2].
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = clamp(v, 0, 2)
}

// Volume returns the master volume scalar.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetExpression stores the continuous pressure-driven gain, clamped to [0, 1].
func (e *Engine) SetExpression(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expression = clamp(v, 0, 1)
}

// SetVibratoScale scales every preset's vibrato depth at render time,
// clamped to [1, 1.3]. Driven by the IMU shake estimator.
func (e *Engine) SetVibratoScale(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vibratoScale = clamp(s, 1.0, maxVibratoScale)
}

// ListGenres delegates to the catalog; order is catalog definition order.
func (e *Engine) ListGenres() []genre.Info {
	return genre.List()
}

// ActiveVoiceCount returns the number of live voices.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// Close discards all voices and turns every later control or render call
// into a no-op. Render calls after Close return silence.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.voices)
	e.closed = true
}

// RenderBlock renders n mono samples in [-1, 1]. It never fails: with no
// live voices (or after Close) the block is silence, not skipped, and a
// non-positive n yields an empty block.
func (e *Engine) RenderBlock(n int) []float32 {
	if n <= 0 {
		return nil
	}
	out := make([]float32, n)
	e.Render(out)
	return out
}

// Render fills dst with one block of output. One render pass mixes all
// voices, applies reverb, the soft limiter, master volume and the final
// saturator, then prunes finished voices, all inside a single critical
// section bounded by O(len(dst) * voices) work.
func (e *Engine) Render(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	if e.closed || len(dst) == 0 {
		return
	}

	if cap(e.acc) < len(dst) {
		e.acc = make([]float64, len(dst))
	}
	acc := e.acc[:len(dst)]
	for i := range acc {
		acc[i] = 0
	}

	for _, v := range e.voices {
		v.generate(acc, e.vibratoScale)
	}

	// Delay-line reverb: read the tail, write back the dry mix scaled by
	// the feedback coefficient.
	wet := e.preset.Reverb
	for i := range acc {
		tail := e.reverb[e.reverbPos]
		dry := acc[i]
		acc[i] += tail * wet
		e.reverb[e.reverbPos] = dry * e.params.ReverbFeedback
		e.reverbPos++
		if e.reverbPos >= len(e.reverb) {
			e.reverbPos = 0
		}
	}

	// Soft limit: scale the whole block so the peak meets the ceiling
	// instead of clipping individual samples.
	var peak float64
	for _, s := range acc {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	scale := 1.0
	if peak > e.params.LimitCeiling {
		scale = e.params.LimitCeiling / peak
	}

	gain := scale * e.volume * e.expression
	for i, s := range acc {
		dst[i] = float32(math.Tanh(s * gain))
	}

	for id, v := range e.voices {
		if v.finished() {
			delete(e.voices, id)
		}
	}
}

// pickWaveform chooses the voice's oscillator shape. With Params.Waveform
// pinned it is global; otherwise a stable FNV-1a hash of the voice identity
// indexes the preset's permitted list, so the same (instrument, note) pair
// always sounds the same under a given preset.
func (e *Engine) pickWaveform(id voiceID) genre.Waveform {
	if e.params.Waveform != genre.WaveAuto {
		return e.params.Waveform
	}
	waves := e.preset.Waveforms
	if len(waves) == 0 {
		return genre.WaveSine
	}
	h := fnv.New32a()
	h.Write([]byte(id.instrument))
	h.Write([]byte(":"))
	h.Write([]byte(strconv.Itoa(id.note)))
	return waves[int(h.Sum32())%len(waves)]
}

// voiceAlpha derives the per-voice smoothing coefficient: brighter presets
// (higher cutoff hint) keep more of the raw waveform.
func voiceAlpha(base, cutoff float64) float64 {
	return clamp(base*(1.2-cutoff), 0, 0.95)
}

// quantizeToScale snaps note to the nearest pitch class in scale, measured
// by absolute distance; ties go to the earliest scale entry.
func quantizeToScale(note int, scale []int) int {
	octave := note / 12
	pc := note % 12
	best := scale[0]
	bestDist := absInt(scale[0] - pc)
	for _, s := range scale[1:] {
		if d := absInt(s - pc); d < bestDist {
			best = s
			bestDist = d
		}
	}
	return octave*12 + best
}

// NoteToFreq converts a MIDI note number to Hz using equal temperament.
func NoteToFreq(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-69)/12.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
