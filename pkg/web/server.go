// Package web serves the guidance engine over HTTP and WebSocket
package web

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-disktray/pkg/hub"
	"github.com/teslashibe/go-disktray/pkg/protocol"
	"github.com/teslashibe/go-disktray/pkg/session"
)

// Server is the guidance HTTP/WebSocket server
type Server struct {
	app      *fiber.App
	addr     string
	sessions *session.Manager
	events   *hub.Hub
	logger   *slog.Logger
	started  time.Time
}

// NewServer creates a server for the given session registry
func NewServer(addr string, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:     addr,
		sessions: sessions,
		events:   hub.New("events"),
		logger:   logger,
		started:  time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "disktray",
		DisableStartupMessage: true,
		BodyLimit:             1 * 1024 * 1024,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/sessions", s.handleListSessions)
	api.Post("/sessions", s.handleCreateSession)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Delete("/sessions/:id", s.handleDeleteSession)
	api.Post("/sessions/:id/frames", s.handleFrame)
	api.Post("/sessions/:id/reset", s.handleResetSession)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/session", websocket.New(s.handleSessionWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	sessions.OnEvent(s.publishTransition)

	s.app = app
	return s
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("guidance server listening", "addr", s.addr)

	go s.events.Run()

	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("server error", "error", err)
		}
	}()
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Events returns the transition broadcast hub
func (s *Server) Events() *hub.Hub {
	return s.events
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.events.Stop()
	return s.app.Shutdown()
}

// publishTransition forwards session transitions to dashboards
func (s *Server) publishTransition(e session.Event) {
	msg, err := protocol.NewTransitionMessage(protocol.TransitionData{
		SessionID: e.SessionID,
		From:      string(e.From),
		To:        string(e.To),
		Speech:    e.Instruction.Speech,
		At:        e.At.UnixMilli(),
	})
	if err != nil {
		s.logger.Warn("encode transition", "error", err)
		return
	}
	if err := s.events.BroadcastJSON(msg); err != nil {
		s.logger.Warn("broadcast transition", "error", err)
	}
}
