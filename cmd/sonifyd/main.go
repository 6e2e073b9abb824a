// sonifyd runs the tone engine headless: sensor state and control arrive
// over HTTP/WebSocket instead of a local UI.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	sonify "github.com/fsrlab/sonify-go"
	"github.com/fsrlab/sonify-go/internal/config"
	"github.com/fsrlab/sonify-go/internal/control"
	"github.com/fsrlab/sonify-go/internal/genre"
	"github.com/fsrlab/sonify-go/internal/synth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := synth.DefaultParams()
	params.DefaultGenre = cfg.Engine.Genre
	params.SmoothAlpha = cfg.Engine.SmoothAlpha
	params.ReverbFeedback = cfg.Engine.ReverbFeedback
	params.Waveform = genre.ParseWaveform(cfg.Engine.Waveform)

	pl, err := sonify.NewPlayer(cfg.Audio.SampleRate,
		sonify.WithEngineParams(params),
		sonify.WithVolume(cfg.Engine.Volume),
		sonify.WithStrategy(sonify.Strategy(cfg.Mapper.Strategy)),
		sonify.WithBaseNote(cfg.Mapper.BaseNote),
		sonify.WithPollRate(cfg.Mapper.PollHz),
		sonify.WithFSR(cfg.Mapper.FSRCount, cfg.Mapper.FSRTau, cfg.Mapper.FSRGain),
		sonify.WithGyroRange(cfg.Mapper.GyroRange),
		sonify.WithEffects(cfg.Engine.Effects...),
	)
	if err != nil {
		log.Fatalf("failed to create player: %v", err)
	}

	server := control.NewServer(pl.Engine())
	pl.SetEventSink(server)

	if err := pl.Start(); err != nil {
		log.Printf("audio output unavailable (%v); control surface stays up, engine silent", err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Printf("server shutdown: %v", err)
		}
		if err := pl.Close(); err != nil {
			log.Printf("player close: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Control.Port)
	log.Printf("control surface listening on %s (genre=%s)", addr, cfg.Engine.Genre)
	if err := server.Listen(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
