package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockSource renders mono audio one block at a time. Render must fill dst
// completely and never fail; silence is a valid block.
type BlockSource interface {
	Render(dst []float32)
}

// StreamReader adapts a mono BlockSource to the 32-bit float interleaved
// stereo stream the audio context consumes, duplicating the mono block onto
// both channels.
type StreamReader struct {
	mu     sync.Mutex
	source BlockSource
	buf    []float32
}

func NewStreamReader(source BlockSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]float32, frames)
	}
	r.buf = r.buf[:frames]
	r.source.Render(r.buf)
	for i, s := range r.buf {
		u := math.Float32bits(s)
		binary.LittleEndian.PutUint32(p[i*8:], u)
		binary.LittleEndian.PutUint32(p[i*8+4:], u)
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

// Player drives a BlockSource through the shared audio context.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewPlayer(sampleRate int, source BlockSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
