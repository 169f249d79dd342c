package server

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"swipefeed/auth"
	"swipefeed/models"
)

// FeedRepository is the part of feeds.Repository the handlers use
type FeedRepository interface {
	FetchFeedPage(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*models.FeedPage, error)
	RecordInteraction(ctx context.Context, fromUserID, toUserID string, kind models.InteractionKind) error
	BumpUserActivity(userID string)
}

// Pinger reports whether the backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type ServerConfig struct {

	// Repository serving feed pages and interactions
	Repository FeedRepository

	// Verifier turning bearer tokens into sessions
	Verifier auth.Verifier

	// Page size used when the request has no limit
	DefaultLimit int

	// Comma separated list of allowed CORS origins
	CorsOrigins string

	// Optional backend health check
	Health Pinger
}

const sessionKey = "session"

// Returns a fiber.App instance to be used as the HTTP server for the feed API
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		// Diff
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.CorsOrigins,
		AllowHeaders: "Authorization, Content-Type",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if config.Health != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := config.Health.Ping(ctx); err != nil {
				log.WithFields(log.Fields{
					"error": err,
				}).Warn("Health check failed")
				return c.Status(fiber.StatusServiceUnavailable).SendString("Database unreachable")
			}
		}
		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h := &handlers{
		repo:         config.Repository,
		defaultLimit: config.DefaultLimit,
	}

	api := app.Group("/api", requireSession(config.Verifier))
	api.Get("/feed", h.getFeed)
	api.Post("/interactions", h.postInteraction)

	return app
}

// requireSession resolves the bearer token to a session and stores it on the
// request. Requests without a valid session get 401.
func requireSession(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := verifier.Verify(auth.ExtractBearer(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			if !errors.Is(err, auth.ErrMissingToken) {
				log.WithFields(log.Fields{
					"error": err,
				}).Info("Rejected token")
			}
			return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Message: msgUnauthorized})
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

func sessionFrom(c *fiber.Ctx) *auth.Session {
	session, _ := c.Locals(sessionKey).(*auth.Session)
	return session
}
