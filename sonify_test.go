package sonify

import (
	"math"
	"testing"

	"github.com/fsrlab/sonify-go/internal/synth"
)

func TestNewPlayerRejectsBadSampleRate(t *testing.T) {
	if _, err := NewPlayer(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := NewPlayer(-44100); err == nil {
		t.Fatal("expected error for negative sample rate")
	}
}

func TestPlayerRendersNotes(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer pl.Close()

	pl.NoteOn(60, 100, "test")
	block := make([]float32, 512)
	var maxAbs float64
	for b := 0; b < 10; b++ {
		pl.Render(block)
		for _, s := range block {
			if a := math.Abs(float64(s)); a > maxAbs {
				maxAbs = a
			}
		}
	}
	if maxAbs < 0.001 {
		t.Fatalf("expected audible output, peak %f", maxAbs)
	}
}

func TestPlayerOptionsReachEngine(t *testing.T) {
	params := synth.DefaultParams()
	pl, err := NewPlayer(44100,
		WithEngineParams(params),
		WithGenre("ambient"),
		WithVolume(0.5),
		WithStrategy(StrategyPerSensor),
	)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer pl.Close()

	if got := pl.Engine().Genre(); got != "ambient" {
		t.Fatalf("genre = %q", got)
	}
	if got := pl.Engine().Volume(); got != 0.5 {
		t.Fatalf("volume = %f", got)
	}
}

func TestPlayerUnknownGenreFallsBack(t *testing.T) {
	pl, err := NewPlayer(44100, WithGenre("polka"))
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer pl.Close()
	if got := pl.Engine().Genre(); got != "jazz" {
		t.Fatalf("expected fallback to jazz, got %q", got)
	}
}

func TestPlayerMapperOptions(t *testing.T) {
	pl, err := NewPlayer(44100,
		WithStrategy(StrategyPerSensor),
		WithBaseNote(48),
		WithGyroRange(500),
	)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer pl.Close()
	if got := pl.perSensor.BaseNote(); got != 48 {
		t.Fatalf("per-sensor base note = %d, want 48", got)
	}
	pl.SetGyro(250, 0, 0)
	if got := pl.imu.Snapshot().Gx; math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("gyro range not applied: Gx = %f, want 0.5", got)
	}

	tiltPl, err := NewPlayer(44100, WithBaseNote(52))
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer tiltPl.Close()
	if got := tiltPl.tilt.BaseNote(); got != 52 {
		t.Fatalf("tilt base note = %d, want 52", got)
	}
}

func TestPlayerSensorInputsClamped(t *testing.T) {
	pl, err := NewPlayer(44100, WithFSR(4, 0.05, 1.0))
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer pl.Close()

	// Out-of-range channel indexes are ignored, never panic.
	pl.SetFSR(-1, 0.5)
	pl.SetFSR(99, 0.5)
	pl.SetFSR(0, 0.5)
	pl.SetAccel(10, -10, 0)
	pl.SetGyro(1000, -1000, 0)
}

func TestPlayerDelegation(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer pl.Close()

	pl.NoteOn(60, 100, "a")
	pl.NoteOn(64, 100, "b")
	if got := pl.Engine().ActiveVoiceCount(); got != 2 {
		t.Fatalf("expected 2 voices, got %d", got)
	}
	pl.AllNotesOff()
	if got := pl.Engine().ActiveVoiceCount(); got != 0 {
		t.Fatalf("expected 0 voices, got %d", got)
	}
	pl.SetGenre("rock")
	if got := pl.Engine().Genre(); got != "rock" {
		t.Fatalf("genre = %q", got)
	}
	pl.SetVolume(3)
	if got := pl.Engine().Volume(); got != 2 {
		t.Fatalf("volume = %f, want clamp at 2", got)
	}
	if got := len(pl.ListGenres()); got != 6 {
		t.Fatalf("expected 6 genres, got %d", got)
	}
}

func TestBuildEffectChain(t *testing.T) {
	if chain := BuildEffectChain(nil, 44100); chain != nil {
		t.Fatal("empty specs should yield no chain")
	}
	if chain := BuildEffectChain([]string{"flanger 1,2"}, 44100); chain != nil {
		t.Fatal("unknown effect should yield no chain")
	}
	chain := BuildEffectChain([]string{
		"delay 250,0.4,0.3",
		"eq 1.0,1.2,0.8",
		"comp -20,4,5,100,6",
		"",
	}, 44100)
	if chain == nil || chain.Len() != 3 {
		t.Fatalf("expected 3 effects, got %v", chain)
	}
}

func TestPlayerEffectChainApplied(t *testing.T) {
	dry, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer dry.Close()
	wet, err := NewPlayer(44100, WithEffects("delay 100,0.5,1.0"))
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer wet.Close()

	dry.NoteOn(60, 100, "test")
	wet.NoteOn(60, 100, "test")
	a := make([]float32, 2048)
	b := make([]float32, 2048)
	dry.Render(a)
	wet.Render(b)
	dry.Render(a)
	wet.Render(b)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("full-wet delay left the output identical to dry")
	}
}

func TestPlayerStopWithoutStart(t *testing.T) {
	pl, err := NewPlayer(44100)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := pl.Stop(); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
	if err := pl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
