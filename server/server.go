package server

import (
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/tranvictor/liveview/chain"
	"github.com/tranvictor/liveview/config"
	"github.com/tranvictor/liveview/metadata"
)

// Server exposes the websocket streaming endpoint and the synchronous
// single-address search endpoint over one fiber app.
type Server struct {
	app      *fiber.App
	registry *chain.Registry
	resolver *metadata.Resolver
	limiter  *ConnLimiter
	logger   *slog.Logger
	port     int
}

func New(
	cfg *config.Config,
	registry *chain.Registry,
	resolver *metadata.Resolver,
	logger *slog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})
	app.Use(cors.New())

	s := &Server{
		app:      app,
		registry: registry,
		resolver: resolver,
		limiter:  NewConnLimiter(defaultConnRPS, defaultConnBurst),
		logger:   logger,
		port:     cfg.Port,
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello, world!")
	})
	app.Get("/search", s.handleSearch)
	app.Use("/ws", s.upgradeWS)
	app.Get("/ws", websocket.New(s.handleWS))

	return s
}

func (s *Server) upgradeWS(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if !s.limiter.Allow(c.IP()) {
		s.logger.Warn("websocket connect rate limited", "ip", c.IP())
		return fiber.ErrTooManyRequests
	}
	return c.Next()
}

func (s *Server) Listen() error {
	s.logger.Info("listening", "port", s.port)
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
