package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	sonify "github.com/fsrlab/sonify-go"
	"github.com/fsrlab/sonify-go/internal/synth"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		blockSize  = flag.Int("block-size", 512, "render block size in samples")
		genreKey   = flag.String("genre", "jazz", "genre preset key")
		volume     = flag.Float64("volume", 1.0, "master volume (0..2)")
		seconds    = flag.Float64("seconds", 6.0, "demo duration in seconds")
		wavPath    = flag.String("wav", "", "render the demo offline to a WAV file instead of playing")
		strategy   = flag.String("strategy", "tilt", "sensor mapping strategy: tilt|persensor")
		listOnly   = flag.Bool("list-genres", false, "list genre presets and exit")
	)
	flag.Parse()

	if *listOnly {
		engine := synth.New(*sampleRate, synth.DefaultParams())
		for _, g := range engine.ListGenres() {
			fmt.Printf("%-12s %-14s %s\n", g.Key, g.Name, g.Description)
		}
		return
	}

	if *wavPath != "" {
		if err := renderOffline(*wavPath, *sampleRate, *blockSize, *genreKey, *volume, *seconds); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *wavPath)
		return
	}

	strat, err := parseStrategy(*strategy)
	if err != nil {
		log.Fatal(err)
	}
	pl, err := sonify.NewPlayer(*sampleRate,
		sonify.WithGenre(*genreKey),
		sonify.WithVolume(*volume),
		sonify.WithStrategy(strat),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "audio output unavailable (%v); running silent\n", err)
	}
	defer pl.Close()

	runDemo(pl, *seconds)
}

// runDemo sweeps simulated pressure and motion across the sensors so the
// mapping strategy has something to react to.
func runDemo(pl *sonify.Player, seconds float64) {
	const tick = 20 * time.Millisecond
	steps := int(seconds / tick.Seconds())
	for i := 0; i < steps; i++ {
		t := float64(i) * tick.Seconds()
		// Roll pressure across the board.
		for ch := 0; ch < 10; ch++ {
			center := math.Mod(t*2, 10)
			dist := math.Abs(float64(ch) - center)
			pl.SetFSR(ch, math.Max(0, 1.0-dist/2.0))
		}
		// Gentle periodic wrist shake for the vibrato estimator.
		pl.SetGyro(60*math.Sin(2*math.Pi*5*t), 0, 0)
		time.Sleep(tick)
	}
}

// renderOffline plays a short quantized phrase directly on the engine and
// writes the result to a WAV file.
func renderOffline(path string, sampleRate, blockSize int, genreKey string, volume, seconds float64) error {
	params := synth.DefaultParams()
	params.DefaultGenre = genreKey
	engine := synth.New(sampleRate, params)
	engine.SetVolume(volume)

	phrase := []int{60, 64, 67, 72, 67, 64}
	per := seconds / float64(len(phrase)+1)
	var out []float32
	for _, note := range phrase {
		engine.NoteOn(note, 100, "demo")
		out = append(out, sonify.RenderSamples(engine, sampleRate, per*0.8, blockSize)...)
		engine.NoteOff(note, "demo")
		out = append(out, sonify.RenderSamples(engine, sampleRate, per*0.2, blockSize)...)
	}
	// Let the last release and reverb tail ring out.
	out = append(out, sonify.RenderSamples(engine, sampleRate, per, blockSize)...)
	return sonify.WriteWAVFile(path, out, sampleRate)
}

func parseStrategy(name string) (sonify.Strategy, error) {
	switch name {
	case "tilt":
		return sonify.StrategyTilt, nil
	case "persensor":
		return sonify.StrategyPerSensor, nil
	default:
		return "", fmt.Errorf("invalid -strategy %q (expected tilt|persensor)", name)
	}
}
