package sonify

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/fsrlab/sonify-go/internal/synth"
)

// RenderSamples renders seconds of audio from the engine in blockSize
// chunks, the same cadence the real-time driver would use.
func RenderSamples(engine *synth.Engine, sampleRate int, seconds float64, blockSize int) []float32 {
	if blockSize <= 0 {
		blockSize = 512
	}
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, 0, frames)
	block := make([]float32, blockSize)
	for len(out) < frames {
		n := blockSize
		if remaining := frames - len(out); remaining < n {
			n = remaining
		}
		engine.Render(block[:n])
		out = append(out, block[:n]...)
	}
	return out
}

// WriteWAVFile writes mono float samples to path as 16-bit PCM WAV.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
