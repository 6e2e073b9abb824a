package effects

import (
	"math"
	"testing"
)

func TestDelayEchoesAfterDelayTime(t *testing.T) {
	d := NewDelay(1000, 10, 0.5, 0.4) // 10 samples at 1kHz
	out0 := d.Process(1.0)
	if math.Abs(float64(out0-0.6)) > 1e-6 {
		t.Fatalf("dry sample = %f, want 0.6", out0)
	}
	var echo float32
	for i := 1; i <= 10; i++ {
		echo = d.Process(0)
	}
	// The impulse re-emerges scaled by the wet mix.
	if math.Abs(float64(echo-0.4)) > 1e-6 {
		t.Fatalf("echo = %f, want 0.4", echo)
	}
}

func TestDelayFeedbackDecays(t *testing.T) {
	d := NewDelay(1000, 5, 0.5, 1.0)
	d.Process(1.0)
	var first, second float32
	for i := 1; i <= 5; i++ {
		first = d.Process(0)
	}
	for i := 1; i <= 5; i++ {
		second = d.Process(0)
	}
	if second >= first {
		t.Fatalf("echo should decay: %f then %f", first, second)
	}
	if second == 0 {
		t.Fatal("feedback should keep the echo alive")
	}
}

func TestDelayClampsParameters(t *testing.T) {
	d := NewDelay(44100, 100, 2.0, 5.0)
	if d.feedback > 0.95 {
		t.Fatalf("feedback %f not clamped", d.feedback)
	}
	if d.wet > 1.0 {
		t.Fatalf("wet %f not clamped", d.wet)
	}
}

func TestDelayReset(t *testing.T) {
	d := NewDelay(1000, 5, 0.5, 1.0)
	d.Process(1.0)
	d.Reset()
	for i := 0; i < 20; i++ {
		if out := d.Process(0); out != 0 {
			t.Fatalf("residual %f after reset", out)
		}
	}
}

func TestEQUnityGainPassesSignal(t *testing.T) {
	eq := NewEQ3Band(44100, 1.0, 1.0, 1.0, 300, 3000)
	// With all bands at unity the reconstruction low+mid+high equals the
	// input exactly.
	for i, s := range []float32{0.5, -0.3, 0.8, 0.0, -1.0} {
		if out := eq.Process(s); math.Abs(float64(out-s)) > 1e-6 {
			t.Fatalf("sample %d: %f != %f at unity gain", i, out, s)
		}
	}
}

func TestEQLowCutAttenuatesDC(t *testing.T) {
	eq := NewEQ3Band(44100, 0.0, 1.0, 1.0, 300, 3000)
	var out float32
	for i := 0; i < 44100; i++ {
		out = eq.Process(1.0)
	}
	if out > 0.1 {
		t.Fatalf("DC level %f survived a zeroed low band", out)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := NewCompressor(44100, -20, 4, 1, 100, 0)
	var out float32
	for i := 0; i < 4410; i++ {
		out = c.Process(1.0)
	}
	if out >= 1.0 {
		t.Fatalf("signal above threshold not compressed: %f", out)
	}
	if out <= 0 {
		t.Fatalf("compressed signal inverted or killed: %f", out)
	}
}

func TestCompressorLeavesQuietSignal(t *testing.T) {
	c := NewCompressor(44100, -20, 4, 1, 100, 0)
	quiet := float32(0.01) // -40 dB, well under threshold
	var out float32
	for i := 0; i < 4410; i++ {
		out = c.Process(quiet)
	}
	if math.Abs(float64(out-quiet)) > 1e-6 {
		t.Fatalf("quiet signal altered: %f", out)
	}
}

func TestChainAppliesInOrder(t *testing.T) {
	chain := NewChain()
	if chain.Len() != 0 {
		t.Fatalf("fresh chain has %d effects", chain.Len())
	}
	chain.Add(NewDelay(1000, 10, 0.0, 0.5))
	chain.Add(NewEQ3Band(1000, 1.0, 1.0, 1.0, 100, 400))
	if chain.Len() != 2 {
		t.Fatalf("expected 2 effects, got %d", chain.Len())
	}

	block := []float32{1.0, 0, 0, 0}
	chain.ProcessBlock(block)
	if block[0] == 1.0 {
		t.Fatal("chain did not touch the block")
	}
	chain.Reset()
}

func TestEmptyChainBlockUntouched(t *testing.T) {
	chain := NewChain()
	block := []float32{0.25, -0.5}
	chain.ProcessBlock(block)
	if block[0] != 0.25 || block[1] != -0.5 {
		t.Fatal("empty chain modified the block")
	}
}
