// Package control exposes the tone engine's note/genre/volume operations
// over HTTP and streams protocol events to WebSocket subscribers. It is a
// collaborator of the core, not part of it: every handler funnels into the
// same non-failing control operations the other collaborators use.
package control

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/fsrlab/sonify-go/internal/genre"
	"github.com/fsrlab/sonify-go/internal/mapper"
)

// Engine is the control surface the server drives.
type Engine interface {
	NoteOn(note, velocity int, instrument string)
	NoteOff(note int, instrument string)
	AllNotesOff()
	SetGenre(key string)
	SetVolume(v float64)
	ListGenres() []genre.Info
	Genre() string
	Volume() float64
	ActiveVoiceCount() int
}

type Server struct {
	app    *fiber.App
	engine Engine
	hub    *Hub
}

type noteRequest struct {
	Note       int    `json:"note"`
	Velocity   int    `json:"velocity"`
	Instrument string `json:"instrument"`
}

type genreRequest struct {
	Key string `json:"key"`
}

type volumeRequest struct {
	Value float64 `json:"value"`
}

type eventMessage struct {
	Type     string `json:"type"`
	Channel  int    `json:"channel"`
	Note     int    `json:"note,omitempty"`
	Velocity int    `json:"velocity,omitempty"`
	Control  int    `json:"control,omitempty"`
	Value    int    `json:"value,omitempty"`
	Pitch    int    `json:"pitch,omitempty"`
}

func NewServer(engine Engine) *Server {
	s := &Server{
		app:    fiber.New(fiber.Config{DisableStartupMessage: true}),
		engine: engine,
		hub:    NewHub(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"genre":  s.engine.Genre(),
			"voices": s.engine.ActiveVoiceCount(),
		})
	})

	s.app.Get("/genres", func(c *fiber.Ctx) error {
		return c.JSON(s.engine.ListGenres())
	})

	s.app.Post("/genre", func(c *fiber.Ctx) error {
		var req genreRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		// Unknown keys are a silent no-op in the engine; report what is
		// actually active so stale UIs can resync.
		s.engine.SetGenre(req.Key)
		return c.JSON(fiber.Map{"genre": s.engine.Genre()})
	})

	s.app.Post("/volume", func(c *fiber.Ctx) error {
		var req volumeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		s.engine.SetVolume(req.Value)
		return c.JSON(fiber.Map{"volume": s.engine.Volume()})
	})

	s.app.Post("/notes/on", func(c *fiber.Ctx) error {
		var req noteRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if req.Instrument == "" {
			req.Instrument = "api"
		}
		if req.Velocity == 0 {
			req.Velocity = 127
		}
		s.engine.NoteOn(req.Note, req.Velocity, req.Instrument)
		return c.SendStatus(fiber.StatusNoContent)
	})

	s.app.Post("/notes/off", func(c *fiber.Ctx) error {
		var req noteRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if req.Instrument == "" {
			req.Instrument = "api"
		}
		s.engine.NoteOff(req.Note, req.Instrument)
		return c.SendStatus(fiber.StatusNoContent)
	})

	s.app.Post("/notes/all-off", func(c *fiber.Ctx) error {
		s.engine.AllNotesOff()
		return c.SendStatus(fiber.StatusNoContent)
	})

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		s.hub.HandleConnection(c)
	}))
}

// Send implements mapper.EventSink: protocol events from the sensor loop
// are fanned out to WebSocket subscribers.
func (s *Server) Send(ev mapper.Event) {
	msg := eventMessage{Channel: ev.Channel}
	switch ev.Kind {
	case mapper.EventNoteOn:
		msg.Type = "note_on"
		msg.Note = ev.Note
		msg.Velocity = ev.Velocity
	case mapper.EventNoteOff:
		msg.Type = "note_off"
		msg.Note = ev.Note
	case mapper.EventControlChange:
		msg.Type = "control_change"
		msg.Control = ev.Control
		msg.Value = ev.Value
	case mapper.EventPitchBend:
		msg.Type = "pitchwheel"
		msg.Pitch = ev.Pitch
	}
	s.hub.Broadcast(msg)
}

// Listen runs the hub and serves on addr. Blocks until the server stops.
func (s *Server) Listen(addr string) error {
	go s.hub.Run()
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server and the event hub.
func (s *Server) Shutdown() error {
	s.hub.Stop()
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
