package mapper

import (
	"strconv"

	"github.com/fsrlab/sonify-go/internal/sensors"
)

// Per-sensor strategy tuning. Each FSR drives its own note; IMU axes drive
// fixed drone notes whose velocity follows the axis magnitude.
const (
	perSensorThreshold = 0.05

	// Axis velocities are capped below full scale and heavily smoothed so
	// continuous motion swells rather than stutters.
	axisVelocityMax  = 80
	axisVelocityGate = 8
	axisSmoothOld    = 0.85
	axisSmoothNew    = 0.15
)

// axisNote maps each IMU axis to its drone note and instrument tag.
var axisNotes = []struct {
	key  string
	note int
}{
	{"imu_gx", 72},
	{"imu_gy", 84},
	{"imu_gz", 96},
	{"imu_ax", 48},
	{"imu_ay", 36},
	{"imu_az", 24},
}

// PerSensorMapper triggers one note per FSR channel (chromatic from the base
// note) and sustains IMU-axis drone voices, the original per-sensor mapping
// strategy. IMU gyro X additionally drives pitch bend and gyro Y drives the
// modulation controller on the event sink.
type PerSensorMapper struct {
	sink     EventSink
	synth    Synth
	notes    []int
	channel  int
	noteOn   []bool
	axisVel  map[string]int
	axisOn   map[string]bool
	imuAudio bool
}

// NewPerSensorMapper creates a per-sensor mapper for count FSR channels.
func NewPerSensorMapper(sink EventSink, synth Synth, baseNote, count, channel int) *PerSensorMapper {
	if sink == nil {
		sink = NopSink{}
	}
	if baseNote <= 0 {
		baseNote = DefaultBaseNote
	}
	if count <= 0 {
		count = FSRCount
	}
	notes := make([]int, count)
	for i := range notes {
		notes[i] = baseNote + i
	}
	return &PerSensorMapper{
		sink:     sink,
		synth:    synth,
		notes:    notes,
		channel:  channel,
		noteOn:   make([]bool, count),
		axisVel:  make(map[string]int),
		axisOn:   make(map[string]bool),
		imuAudio: true,
	}
}

// BaseNote returns the note assigned to the first pressure channel.
func (m *PerSensorMapper) BaseNote() int {
	return m.notes[0]
}

// SetSink replaces the protocol-event consumer. Call before the polling
// loop starts.
func (m *PerSensorMapper) SetSink(sink EventSink) {
	if sink == nil {
		sink = NopSink{}
	}
	m.sink = sink
}

// SetIMUAudio toggles the IMU drone voices; pitch bend and modulation events
// keep flowing regardless.
func (m *PerSensorMapper) SetIMUAudio(enabled bool) {
	m.imuAudio = enabled
}

// Process consumes one polling tick of sensor state.
func (m *PerSensorMapper) Process(levels []float64, imu sensors.IMUSnapshot) {
	for i, note := range m.notes {
		var level float64
		if i < len(levels) {
			level = levels[i]
		}
		instrument := "fsr" + strconv.Itoa(i)

		switch {
		case level >= perSensorThreshold && !m.noteOn[i]:
			vel := velocityFromLevel(level)
			m.sink.Send(Event{Kind: EventNoteOn, Channel: m.channel, Note: note, Velocity: vel})
			if m.synth != nil {
				m.synth.NoteOn(note, vel, instrument)
			}
			m.noteOn[i] = true
		case level < perSensorThreshold && m.noteOn[i]:
			m.sink.Send(Event{Kind: EventNoteOff, Channel: m.channel, Note: note})
			if m.synth != nil {
				m.synth.NoteOff(note, instrument)
			}
			m.noteOn[i] = false
		}
	}

	// Gyro X -> pitch bend, gyro Y -> modulation (CC1).
	pitch := int(clampUnit(imu.Gx) * 8191)
	m.sink.Send(Event{Kind: EventPitchBend, Channel: m.channel, Pitch: pitch})
	ccVal := int((clampUnit(imu.Gy) + 1.0) / 2.0 * 127)
	m.sink.Send(Event{Kind: EventControlChange, Channel: m.channel, Control: 1, Value: ccVal})

	if m.imuAudio && m.synth != nil {
		axes := []float64{imu.Gx, imu.Gy, imu.Gz, imu.Ax, imu.Ay, imu.Az}
		for i, a := range axisNotes {
			m.driveAxis(a.key, a.note, axes[i])
		}
	}
}

// driveAxis converts an axis magnitude to a smoothed velocity and gates the
// axis drone voice on it.
func (m *PerSensorMapper) driveAxis(key string, note int, value float64) {
	raw := int(abs(value) * axisVelocityMax)
	if raw < 1 {
		raw = 1
	}
	if raw > axisVelocityMax {
		raw = axisVelocityMax
	}
	last, ok := m.axisVel[key]
	if !ok {
		last = raw
	}
	smoothed := int(float64(last)*axisSmoothOld + float64(raw)*axisSmoothNew)
	m.axisVel[key] = smoothed

	if smoothed > axisVelocityGate {
		m.synth.NoteOn(note, smoothed, key)
		m.axisOn[key] = true
	} else if m.axisOn[key] {
		m.synth.NoteOff(note, key)
		m.axisOn[key] = false
	}
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
