package sonify

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/fsrlab/sonify-go/internal/synth"
)

func TestRenderSamplesLength(t *testing.T) {
	e := synth.New(44100, synth.DefaultParams())
	samples := RenderSamples(e, 44100, 0.5, 512)
	if got, want := len(samples), 22050; got != want {
		t.Fatalf("rendered %d samples, want %d", got, want)
	}
	// Odd block boundaries still land exactly on the requested length.
	samples = RenderSamples(e, 44100, 0.25, 333)
	if got, want := len(samples), 11025; got != want {
		t.Fatalf("rendered %d samples, want %d", got, want)
	}
}

func TestRenderSamplesCarriesVoices(t *testing.T) {
	e := synth.New(44100, synth.DefaultParams())
	e.NoteOn(60, 100, "test")
	samples := RenderSamples(e, 44100, 0.5, 512)
	var maxAbs float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs < 0.001 {
		t.Fatalf("expected audible render, peak %f", maxAbs)
	}
	if maxAbs > 1.0 {
		t.Fatalf("render exceeded full scale: %f", maxAbs)
	}
}

func TestWriteWAVFile(t *testing.T) {
	e := synth.New(44100, synth.DefaultParams())
	e.NoteOn(60, 100, "test")
	samples := RenderSamples(e, 44100, 0.2, 512)

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAVFile(path, samples, 44100); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("written file is not a valid WAV")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d frames, want %d", len(buf.Data), len(samples))
	}
	if dec.SampleRate != 44100 || dec.NumChans != 1 {
		t.Fatalf("format %d Hz %d ch", dec.SampleRate, dec.NumChans)
	}
}
