// Package sonify renders audible feedback for simulated touch and motion
// sensors: ten pressure channels and a six-axis IMU drive a genre-voiced
// polyphonic tone engine.
package sonify

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	intaudio "github.com/fsrlab/sonify-go/internal/audio"
	intfx "github.com/fsrlab/sonify-go/internal/effects"
	"github.com/fsrlab/sonify-go/internal/genre"
	"github.com/fsrlab/sonify-go/internal/mapper"
	"github.com/fsrlab/sonify-go/internal/sensors"
	"github.com/fsrlab/sonify-go/internal/synth"
)

// Strategy selects how sensor levels become notes.
type Strategy string

const (
	// StrategyTilt maps the spread between opposing pressure sensors to a
	// single melodic voice.
	StrategyTilt Strategy = "tilt"
	// StrategyPerSensor gives each pressure channel its own note and lets
	// the IMU axes drive drone voices.
	StrategyPerSensor Strategy = "persensor"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	params    synth.Params
	volume    float64
	strategy  Strategy
	baseNote  int
	fsrCount  int
	fsrTau    float64
	fsrGain   float64
	gyroRange float64
	pollHz    int
	sink      mapper.EventSink
	effects   []string
	clock     func() time.Time
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		params:    synth.DefaultParams(),
		volume:    1.0,
		strategy:  StrategyTilt,
		baseNote:  mapper.DefaultBaseNote,
		fsrCount:  mapper.FSRCount,
		fsrTau:    0.05,
		fsrGain:   1.0,
		gyroRange: 250.0,
		pollHz:    60,
	}
}

// WithEngineParams overrides the synthesis engine parameters.
func WithEngineParams(params synth.Params) PlayerOption {
	return func(cfg *playerConfig) { cfg.params = params }
}

// WithGenre sets the startup genre preset.
func WithGenre(key string) PlayerOption {
	return func(cfg *playerConfig) { cfg.params.DefaultGenre = key }
}

// WithVolume sets the startup master volume (0..2).
func WithVolume(v float64) PlayerOption {
	return func(cfg *playerConfig) { cfg.volume = v }
}

// WithStrategy selects the sensor-to-note mapping strategy.
func WithStrategy(s Strategy) PlayerOption {
	return func(cfg *playerConfig) { cfg.strategy = s }
}

// WithBaseNote sets the lowest note of the mapping strategies' note tables.
func WithBaseNote(note int) PlayerOption {
	return func(cfg *playerConfig) { cfg.baseNote = note }
}

// WithGyroRange sets the gyroscope full-scale range in degrees/sec.
func WithGyroRange(dps float64) PlayerOption {
	return func(cfg *playerConfig) { cfg.gyroRange = dps }
}

// WithEventSink installs a protocol-event consumer (e.g. a MIDI bridge or
// the control server). Send runs on the sensor polling goroutine; keep it
// non-blocking.
func WithEventSink(sink mapper.EventSink) PlayerOption {
	return func(cfg *playerConfig) { cfg.sink = sink }
}

// WithPollRate sets the sensor polling cadence in Hz.
func WithPollRate(hz int) PlayerOption {
	return func(cfg *playerConfig) { cfg.pollHz = hz }
}

// WithFSR configures the simulated pressure channels.
func WithFSR(count int, tau, gain float64) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.fsrCount = count
		cfg.fsrTau = tau
		cfg.fsrGain = gain
	}
}

// WithEffects installs master-chain directives, e.g. "delay 250,0.4,0.3".
func WithEffects(specs ...string) PlayerOption {
	return func(cfg *playerConfig) { cfg.effects = specs }
}

// withClock injects a fake clock for tests.
func withClock(now func() time.Time) PlayerOption {
	return func(cfg *playerConfig) { cfg.clock = now }
}

// Player owns the engine, the simulated sensors, the mapping strategy and
// the audio backend. Control methods are safe from any goroutine.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	pollHz     int
	engine     *synth.Engine
	channels   []*sensors.FSRChannel
	imu        *sensors.IMU
	tilt       *mapper.TiltMapper
	perSensor  *mapper.PerSensorMapper
	chain      *intfx.Chain
	backend    *intaudio.Player
	stopPoll   chan struct{}
	pollDone   chan struct{}
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.pollHz <= 0 {
		cfg.pollHz = 60
	}
	if cfg.fsrCount <= 0 {
		cfg.fsrCount = mapper.FSRCount
	}

	engine := synth.New(sampleRate, cfg.params)
	engine.SetVolume(cfg.volume)

	channels := make([]*sensors.FSRChannel, cfg.fsrCount)
	for i := range channels {
		channels[i] = sensors.NewFSRChannel(i, cfg.fsrTau, cfg.fsrGain)
	}

	p := &Player{
		sampleRate: sampleRate,
		pollHz:     cfg.pollHz,
		engine:     engine,
		channels:   channels,
		imu:        sensors.NewIMU(cfg.gyroRange),
		chain:      BuildEffectChain(cfg.effects, sampleRate),
	}
	switch cfg.strategy {
	case StrategyPerSensor:
		p.perSensor = mapper.NewPerSensorMapper(cfg.sink, engine, cfg.baseNote, cfg.fsrCount, 0)
	default:
		p.tilt = mapper.NewTiltMapper(cfg.sink, engine, cfg.baseNote, 0, cfg.clock)
	}
	return p, nil
}

// Engine returns the underlying tone engine for direct control access.
func (p *Player) Engine() *synth.Engine {
	return p.engine
}

// SetEventSink replaces the protocol-event consumer. Call before Start.
func (p *Player) SetEventSink(sink mapper.EventSink) {
	if p.tilt != nil {
		p.tilt.SetSink(sink)
	}
	if p.perSensor != nil {
		p.perSensor.SetSink(sink)
	}
}

// Render implements the audio backend's block source: one engine block plus
// the master effect chain.
func (p *Player) Render(dst []float32) {
	p.engine.Render(dst)
	if p.chain != nil {
		p.chain.ProcessBlock(dst)
	}
}

// Start opens the audio output and begins the sensor polling loop. If the
// output device cannot be opened the player stays silent but keeps
// accepting control and sensor updates.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopPoll != nil {
		return nil
	}

	backend, err := intaudio.NewPlayer(p.sampleRate, p)
	if err == nil {
		p.backend = backend
		p.backend.Play()
	}

	p.stopPoll = make(chan struct{})
	p.pollDone = make(chan struct{})
	go p.pollLoop(p.stopPoll, p.pollDone)
	return err
}

// pollLoop advances the sensor filters and feeds the mapping strategy at
// the configured cadence.
func (p *Player) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := time.Second / time.Duration(p.pollHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := interval.Seconds()
	levels := make([]float64, len(p.channels))
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for i, ch := range p.channels {
				levels[i] = ch.Update(dt)
			}
			snap := p.imu.Snapshot()
			if p.tilt != nil {
				p.tilt.Process(levels, snap)
			} else if p.perSensor != nil {
				p.perSensor.Process(levels, snap)
			}
		}
	}
}

// SetFSR stores the raw 0..1 level for one pressure channel.
func (p *Player) SetFSR(index int, value float64) {
	if index < 0 || index >= len(p.channels) {
		return
	}
	p.channels[index].SetRaw(value)
}

// SetAccel stores raw accelerometer readings in g.
func (p *Player) SetAccel(ax, ay, az float64) {
	p.imu.SetAccelRaw(ax, ay, az)
}

// SetGyro stores raw gyroscope readings in degrees/sec.
func (p *Player) SetGyro(gx, gy, gz float64) {
	p.imu.SetGyroRaw(gx, gy, gz)
}

// NoteOn/NoteOff/AllNotesOff/SetGenre/SetVolume/ListGenres delegate to the
// engine so collaborators can hold a Player alone.

func (p *Player) NoteOn(note, velocity int, instrument string) {
	p.engine.NoteOn(note, velocity, instrument)
}

func (p *Player) NoteOff(note int, instrument string) {
	p.engine.NoteOff(note, instrument)
}

func (p *Player) AllNotesOff() {
	p.engine.AllNotesOff()
}

func (p *Player) SetGenre(key string) {
	p.engine.SetGenre(key)
}

func (p *Player) SetVolume(v float64) {
	p.engine.SetVolume(v)
}

func (p *Player) ListGenres() []genre.Info {
	return p.engine.ListGenres()
}

// Stop halts the polling loop and the audio output. The engine itself stays
// usable; call Close for full teardown.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopPoll != nil {
		close(p.stopPoll)
		<-p.pollDone
		p.stopPoll = nil
		p.pollDone = nil
	}
	var err error
	if p.backend != nil {
		err = p.backend.Stop()
		p.backend = nil
	}
	return err
}

// Close stops playback and tears the engine down; no audio is emitted
// afterwards.
func (p *Player) Close() error {
	err := p.Stop()
	p.engine.AllNotesOff()
	p.engine.Close()
	return err
}

// BuildEffectChain parses master-chain directives of the form
// "type p1,p2,...". Supported: delay, eq, comp. Returns nil when no valid
// directive is present.
func BuildEffectChain(specs []string, sampleRate int) *intfx.Chain {
	chain := intfx.NewChain()
	for _, raw := range specs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, " ", 2)
		effectType := strings.ToLower(strings.TrimSpace(parts[0]))
		var params []float64
		if len(parts) > 1 {
			for _, p := range strings.Split(parts[1], ",") {
				if v, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
					params = append(params, v)
				}
			}
		}
		if eff := createEffect(effectType, params, sampleRate); eff != nil {
			chain.Add(eff)
		}
	}
	if chain.Len() == 0 {
		return nil
	}
	return chain
}

func createEffect(effectType string, params []float64, sampleRate int) intfx.Effector {
	getParam := func(idx int, def float64) float64 {
		if idx < len(params) {
			return params[idx]
		}
		return def
	}
	switch effectType {
	case "delay":
		return intfx.NewDelay(sampleRate,
			getParam(0, 250),          // delay ms
			float32(getParam(1, 0.4)), // feedback
			float32(getParam(2, 0.3)), // wet
		)
	case "eq":
		return intfx.NewEQ3Band(sampleRate,
			float32(getParam(0, 1.0)),  // low gain
			float32(getParam(1, 1.0)),  // mid gain
			float32(getParam(2, 1.0)),  // high gain
			float32(getParam(3, 300)),  // low freq
			float32(getParam(4, 3000)), // high freq
		)
	case "comp", "compressor":
		return intfx.NewCompressor(sampleRate,
			float32(getParam(0, -20)), // threshold dB
			float32(getParam(1, 4)),   // ratio
			float32(getParam(2, 5)),   // attack ms
			float32(getParam(3, 100)), // release ms
			float32(getParam(4, 6)),   // makeup dB
		)
	}
	return nil
}
