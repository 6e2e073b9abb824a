package synth

import (
	"math"
	"strconv"
	"testing"

	"github.com/fsrlab/sonify-go/internal/genre"
)

func renderBlocks(e *Engine, blocks, size int) (maxAbs float64) {
	for b := 0; b < blocks; b++ {
		for _, s := range e.RenderBlock(size) {
			if a := math.Abs(float64(s)); a > maxAbs {
				maxAbs = a
			}
		}
	}
	return maxAbs
}

func TestNoteOnProducesAudio(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	if maxAbs := renderBlocks(e, 10, 512); maxAbs < 0.001 {
		t.Fatalf("expected audible output, peak %f", maxAbs)
	}
}

func TestSilenceWithoutVoices(t *testing.T) {
	e := New(44100, DefaultParams())
	for _, s := range e.RenderBlock(512) {
		if s != 0 {
			t.Fatalf("expected silence, got %f", s)
		}
	}
	// An empty registry renders a full block, never a short one.
	if got := len(e.RenderBlock(256)); got != 256 {
		t.Fatalf("expected 256 samples, got %d", got)
	}
}

func TestOutputStaysInRange(t *testing.T) {
	e := New(44100, DefaultParams())
	e.SetVolume(2.0)
	for i := 0; i < 64; i++ {
		e.NoteOn(24+i, 127, "v"+strconv.Itoa(i))
	}
	for b := 0; b < 20; b++ {
		for _, s := range e.RenderBlock(512) {
			if s < -1 || s > 1 {
				t.Fatalf("sample %f outside [-1, 1]", s)
			}
		}
	}
}

func TestRenderBlockNonPositiveSize(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	if got := e.RenderBlock(0); len(got) != 0 {
		t.Fatalf("zero-size block rendered %d samples", len(got))
	}
	if got := e.RenderBlock(-8); len(got) != 0 {
		t.Fatalf("negative-size block rendered %d samples", len(got))
	}
}

func TestNoteOffReleasesVoice(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("expected 1 voice, got %d", got)
	}
	renderBlocks(e, 4, 512)
	e.NoteOff(60, "test")
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("released voice should still decay, got %d voices", got)
	}
	// Render well past the jazz release tail (0.3s).
	renderBlocks(e, 50, 512)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("expected voice pruned after release, got %d", got)
	}
}

func TestNoteOffIsIdempotent(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOff(60, "test") // absent voice
	e.NoteOn(60, 100, "test")
	e.NoteOff(60, "test")
	e.NoteOff(60, "test") // already released
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("expected 1 decaying voice, got %d", got)
	}
}

func TestRetriggerReplacesVoice(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	e.NoteOn(60, 50, "test")
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("retrigger should replace, got %d voices", got)
	}
	// A different instrument at the same note is a distinct voice.
	e.NoteOn(60, 100, "other")
	if got := e.ActiveVoiceCount(); got != 2 {
		t.Fatalf("expected 2 voices, got %d", got)
	}
}

func TestAllNotesOff(t *testing.T) {
	e := New(44100, DefaultParams())
	e.AllNotesOff() // empty registry is a no-op
	e.NoteOn(60, 100, "a")
	e.NoteOn(64, 100, "b")
	e.AllNotesOff()
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("expected 0 voices, got %d", got)
	}
}

func TestSetGenreClearsVoices(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	e.SetGenre("rock")
	if got := e.Genre(); got != "rock" {
		t.Fatalf("expected rock, got %q", got)
	}
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("genre change should hard-cut voices, got %d", got)
	}
}

func TestSetGenreUnknownIsNoOp(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	e.SetGenre("polka")
	if got := e.Genre(); got != "jazz" {
		t.Fatalf("unknown genre should keep current, got %q", got)
	}
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("unknown genre should keep voices, got %d", got)
	}
}

func TestVolumeClamped(t *testing.T) {
	e := New(44100, DefaultParams())
	e.SetVolume(5)
	if got := e.Volume(); got != 2 {
		t.Fatalf("expected volume clamped to 2, got %f", got)
	}
	e.SetVolume(-1)
	if got := e.Volume(); got != 0 {
		t.Fatalf("expected volume clamped to 0, got %f", got)
	}
}

func TestCloseSilencesEngine(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(60, 100, "test")
	e.Close()
	for _, s := range e.RenderBlock(512) {
		if s != 0 {
			t.Fatalf("expected silence after close, got %f", s)
		}
	}
	e.NoteOn(62, 100, "test")
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("note-on after close should be ignored, got %d voices", got)
	}
}

func TestQuantizeToScale(t *testing.T) {
	jazz := []int{0, 2, 3, 5, 7, 9, 10}
	cases := []struct {
		note, want int
	}{
		{60, 60}, // already on scale
		{61, 60}, // tie between 0 and 2 goes to the earlier entry
		{64, 63}, // tie between 3 and 5 goes to 3
		{71, 70}, // pitch class 11 snaps down to 10
		{48, 48}, // octave preserved
	}
	for _, tc := range cases {
		if got := quantizeToScale(tc.note, jazz); got != tc.want {
			t.Errorf("quantize(%d) = %d, want %d", tc.note, got, tc.want)
		}
	}
}

func TestNoteOnQuantizesIdentity(t *testing.T) {
	e := New(44100, DefaultParams())
	e.NoteOn(61, 100, "test") // jazz snaps 61 to 60
	e.NoteOff(61, "test")     // same snap finds the same voice
	renderBlocks(e, 50, 512)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("quantized note-off should release the voice, got %d", got)
	}
}

func TestPinnedWaveform(t *testing.T) {
	params := DefaultParams()
	params.Waveform = genre.WaveSawtooth
	e := New(44100, params)
	for i := 0; i < 8; i++ {
		id := voiceID{instrument: "i" + strconv.Itoa(i), note: 60 + i}
		if got := e.pickWaveform(id); got != genre.WaveSawtooth {
			t.Fatalf("pinned waveform ignored for %v: got %v", id, got)
		}
	}
}

func TestAutoWaveformIsStable(t *testing.T) {
	e := New(44100, DefaultParams())
	id := voiceID{instrument: "fsr_pitch", note: 72}
	first := e.pickWaveform(id)
	for i := 0; i < 5; i++ {
		if got := e.pickWaveform(id); got != first {
			t.Fatalf("waveform for fixed identity changed: %v then %v", first, got)
		}
	}
	permitted := false
	for _, w := range genre.Default().Waveforms {
		if w == first {
			permitted = true
		}
	}
	if !permitted {
		t.Fatalf("picked waveform %v not in preset list", first)
	}
}

func TestVibratoScaleClamped(t *testing.T) {
	e := New(44100, DefaultParams())
	e.SetVibratoScale(2.0)
	if e.vibratoScale != maxVibratoScale {
		t.Fatalf("expected vibrato scale clamped to %f, got %f", maxVibratoScale, e.vibratoScale)
	}
	e.SetVibratoScale(0.5)
	if e.vibratoScale != 1.0 {
		t.Fatalf("expected vibrato scale floor of 1, got %f", e.vibratoScale)
	}
}

func TestExpressionScalesOutput(t *testing.T) {
	loud := New(44100, DefaultParams())
	quiet := New(44100, DefaultParams())
	quiet.SetExpression(0.2)
	loud.NoteOn(60, 100, "test")
	quiet.NoteOn(60, 100, "test")
	if lp, qp := renderBlocks(loud, 10, 512), renderBlocks(quiet, 10, 512); qp >= lp {
		t.Fatalf("expression 0.2 should attenuate: quiet %f vs loud %f", qp, lp)
	}
}

func TestNoteToFreq(t *testing.T) {
	if got := NoteToFreq(69); math.Abs(got-440.0) > 1e-9 {
		t.Fatalf("A4 = %f, want 440", got)
	}
	if got := NoteToFreq(81); math.Abs(got-880.0) > 1e-6 {
		t.Fatalf("A5 = %f, want 880", got)
	}
	if got := NoteToFreq(57); math.Abs(got-220.0) > 1e-6 {
		t.Fatalf("A3 = %f, want 220", got)
	}
}

func BenchmarkRender32Voices(b *testing.B) {
	e := New(44100, DefaultParams())
	for i := 0; i < 32; i++ {
		e.NoteOn(24+i*2, 100, "v"+strconv.Itoa(i))
	}
	block := make([]float32, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Render(block)
	}
}
