// Package mapper turns smoothed sensor levels into note and controller
// activity on the tone engine, and mirrors that activity to an EventSink so
// an external protocol layer (e.g. a MIDI port) can consume it.
package mapper

import (
	"time"

	"github.com/fsrlab/sonify-go/internal/sensors"
)

// Synth is the control surface of the tone engine the mapper drives.
type Synth interface {
	NoteOn(note, velocity int, instrument string)
	NoteOff(note int, instrument string)
	SetExpression(v float64)
	SetVibratoScale(s float64)
	Scale() []int
}

// EventKind enumerates protocol events emitted alongside audio feedback.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventControlChange
	EventPitchBend
)

// Event is one protocol-layer message. Which fields are meaningful depends
// on Kind: Note/Velocity for notes, Control/Value for controllers, Pitch
// (-8192..8191) for pitch bend.
type Event struct {
	Kind     EventKind
	Channel  int
	Note     int
	Velocity int
	Control  int
	Value    int
	Pitch    int
}

// EventSink receives protocol events. Implementations must not block: Send
// is called from the sensor polling loop.
type EventSink interface {
	Send(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Send(Event) {}

// Mapping defaults shared by both strategies.
const (
	DefaultBaseNote = 60 // C4
	FSRCount        = 10
)

var defaultScale = []int{0, 2, 4, 5, 7, 9, 11}

// scaleOf asks the synth for its active scale, falling back to a major
// scale when unavailable.
func scaleOf(s Synth) []int {
	if s != nil {
		if sc := s.Scale(); len(sc) > 0 {
			return sc
		}
	}
	return defaultScale
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func velocityFromLevel(level float64) int {
	v := int(level * 127)
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

// Tilt-strategy tuning. Sensor levels are worked in 0..100; the pitch term
// combines opposing sensor pairs so tilting the surface sweeps the scale.
const (
	tiltMin          = -200.0
	tiltMax          = 200.0
	volumeThreshold  = 10.0
	volumeMax        = 100.0
	imuWindow        = 1500 * time.Millisecond
	imuMinFreq       = 2.0
	imuMaxFreq       = 10.0
	imuMinAmplitude  = 0.05
	vibratoScaleMax  = 1.3
	vibratoScaleStep = 0.02 // minimum change worth pushing to the synth
)

type imuSample struct {
	at  time.Time
	mag float64
}

// TiltMapper derives a single melodic voice from all ten FSR channels:
// pitch from the tilt between opposing sensors, volume from average
// pressure, vibrato from rhythmic IMU shake.
type TiltMapper struct {
	sink     EventSink
	synth    Synth
	baseNote int
	channel  int
	now      func() time.Time

	noteOn      bool
	currentNote int
	imuSamples  []imuSample
	lastScale   float64
}

// NewTiltMapper creates a tilt-strategy mapper. now may be nil (wall clock);
// tests inject a fake clock through it.
func NewTiltMapper(sink EventSink, synth Synth, baseNote int, channel int, now func() time.Time) *TiltMapper {
	if sink == nil {
		sink = NopSink{}
	}
	if baseNote <= 0 {
		baseNote = DefaultBaseNote
	}
	if now == nil {
		now = time.Now
	}
	return &TiltMapper{
		sink:        sink,
		synth:       synth,
		baseNote:    baseNote,
		channel:     channel,
		now:         now,
		currentNote: -1,
		lastScale:   1.0,
	}
}

// BaseNote returns the lowest note of the mapper's note table.
func (m *TiltMapper) BaseNote() int {
	return m.baseNote
}

// SetSink replaces the protocol-event consumer. Call before the polling
// loop starts.
func (m *TiltMapper) SetSink(sink EventSink) {
	if sink == nil {
		sink = NopSink{}
	}
	m.sink = sink
}

// Process consumes one polling tick of sensor state. levels are smoothed,
// amplified 0..1 values; missing channels read as zero.
func (m *TiltMapper) Process(levels []float64, imu sensors.IMUSnapshot) {
	m.updateVibrato(imu)

	values := make([]float64, FSRCount)
	for i := 0; i < FSRCount && i < len(levels); i++ {
		values[i] = clip01(levels[i]) * 100.0
	}

	volume := m.computeVolume(values)
	if volume <= 0 {
		if m.noteOn && m.currentNote >= 0 {
			m.sink.Send(Event{Kind: EventNoteOff, Channel: m.channel, Note: m.currentNote})
			if m.synth != nil {
				m.synth.NoteOff(m.currentNote, "fsr_pitch")
			}
		}
		m.noteOn = false
		m.currentNote = -1
		return
	}

	note := m.computePitchNote(values)
	velocity := velocityFromLevel(volume)

	// Channel volume for external devices; expression for the local engine.
	m.sink.Send(Event{Kind: EventControlChange, Channel: m.channel, Control: 7, Value: velocity})
	if m.synth != nil {
		m.synth.SetExpression(volume)
	}

	if !m.noteOn {
		m.sink.Send(Event{Kind: EventNoteOn, Channel: m.channel, Note: note, Velocity: velocity})
		if m.synth != nil {
			m.synth.NoteOn(note, velocity, "fsr_pitch")
		}
		m.noteOn = true
		m.currentNote = note
		return
	}

	if note != m.currentNote {
		m.sink.Send(Event{Kind: EventNoteOff, Channel: m.channel, Note: m.currentNote})
		m.sink.Send(Event{Kind: EventNoteOn, Channel: m.channel, Note: note, Velocity: velocity})
		if m.synth != nil {
			m.synth.NoteOff(m.currentNote, "fsr_pitch")
			m.synth.NoteOn(note, velocity, "fsr_pitch")
		}
		m.currentNote = note
	}
}

// computeVolume maps average pressure through the trigger threshold.
func (m *TiltMapper) computeVolume(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / FSRCount
	if avg <= volumeThreshold {
		return 0
	}
	return clip01((avg - volumeThreshold) / (volumeMax - volumeThreshold))
}

// computePitchNote picks a note from a two-octave table over the active
// scale, indexed by the tilt between sensor pairs (2,5) and (7,10).
func (m *TiltMapper) computePitchNote(values []float64) int {
	tilt := (values[4] - values[1]) + (values[6] - values[9])
	p := clip01((tilt - tiltMin) / (tiltMax - tiltMin))

	scale := scaleOf(m.synth)
	notes := make([]int, 0, len(scale)*2)
	for octave := 0; octave < 2; octave++ {
		for _, step := range scale {
			notes = append(notes, m.baseNote+step+12*octave)
		}
	}
	if len(notes) == 0 {
		return m.baseNote
	}
	k := int(p*float64(len(notes)-1) + 0.5)
	if k >= len(notes) {
		k = len(notes) - 1
	}
	return notes[k]
}

// updateVibrato estimates the dominant shake frequency over the recent IMU
// window by zero-crossing counting and, when it falls in the accepted band,
// boosts the synth's vibrato depth proportionally.
func (m *TiltMapper) updateVibrato(imu sensors.IMUSnapshot) {
	if m.synth == nil {
		return
	}
	mag := (abs(imu.Gx) + abs(imu.Gy) + abs(imu.Gz)) / 3.0
	now := m.now()
	m.imuSamples = append(m.imuSamples, imuSample{at: now, mag: mag})
	cutoff := now.Add(-imuWindow)
	drop := 0
	for drop < len(m.imuSamples) && m.imuSamples[drop].at.Before(cutoff) {
		drop++
	}
	m.imuSamples = m.imuSamples[drop:]
	if len(m.imuSamples) < 6 {
		return
	}

	duration := m.imuSamples[len(m.imuSamples)-1].at.Sub(m.imuSamples[0].at).Seconds()
	if duration <= 0 {
		return
	}
	var mean float64
	for _, s := range m.imuSamples {
		mean += s.mag
	}
	mean /= float64(len(m.imuSamples))

	lo, hi := m.imuSamples[0].mag-mean, m.imuSamples[0].mag-mean
	for _, s := range m.imuSamples[1:] {
		c := s.mag - mean
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}

	scale := 1.0
	if hi-lo >= imuMinAmplitude {
		crossings := 0
		prev := m.imuSamples[0].mag - mean
		for _, s := range m.imuSamples[1:] {
			curr := s.mag - mean
			if (prev <= 0 && curr > 0) || (prev >= 0 && curr < 0) {
				crossings++
			}
			prev = curr
		}
		freq := float64(crossings) / (2.0 * duration)
		if freq >= imuMinFreq && freq <= imuMaxFreq {
			t := (freq - imuMinFreq) / (imuMaxFreq - imuMinFreq)
			scale = 1.0 + t*(vibratoScaleMax-1.0)
		}
	}

	if abs(scale-m.lastScale) >= vibratoScaleStep {
		m.synth.SetVibratoScale(scale)
		m.lastScale = scale
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
