package server

import (
	"backend-snapgraph/internal/auth"
	"backend-snapgraph/internal/config"
	"backend-snapgraph/internal/events"
	"backend-snapgraph/internal/feed"
	"backend-snapgraph/internal/post"
	"backend-snapgraph/internal/search"
	"backend-snapgraph/internal/shared/response"
	"backend-snapgraph/internal/social"
	"backend-snapgraph/internal/stream"
	"backend-snapgraph/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Events events.Publisher
}

// NewServer wires every service onto one fiber app. Events go to the live
// stream hub and, when nc is set, to NATS.
func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, nc *nats.Conn) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	pubs := events.Multi{hub}
	if nc != nil {
		pubs = append(pubs, events.NewNatsPublisher(nc))
	}

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Events: pubs,
	}

	registerRoutes(s)
	return s
}

// Close stops the stream relay. Connections passed to NewServer are owned by
// the caller.
func (s *Server) Close() error {
	return s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return response.OK(c, "ok", fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB).WithSessionKey(s.Cfg.SessionKey))
	social.RegisterRoutes(s.App, social.NewService(s.DB, s.Events), jwtMiddleware)
	post.RegisterRoutes(s.App, post.NewService(s.DB, s.Events), jwtMiddleware)
	feed.RegisterRoutes(s.App, feed.NewService(s.DB), jwtMiddleware)
	search.RegisterRoutes(s.App, search.NewService(s.DB), jwtMiddleware)
	user.RegisterRoutes(s.App, user.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
