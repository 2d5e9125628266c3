package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/flipover/flipover_auth/internal/auth"
	"github.com/flipover/flipover_auth/internal/config"
	"github.com/flipover/flipover_auth/internal/identity"
	"github.com/flipover/flipover_auth/internal/middleware"
	"github.com/flipover/flipover_auth/internal/notification"
	"github.com/flipover/flipover_auth/internal/oauth"
	"github.com/flipover/flipover_auth/internal/sms"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil in development, in which case in-memory stores are used.
type Deps struct {
	Cfg    config.Config
	DB     *mongo.Client
	Cache  *redis.Client
	Logger *slog.Logger
	OTP    sms.Verifier
	Google oauth.Verifier
	Mail   notification.Sender
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("mongo is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": fmt.Sprintf("%s server up and running on port: %s", d.Cfg.AppName, d.Cfg.Port),
		})
	})

	// Stores
	var users identity.Repository
	if d.DB != nil {
		users = identity.NewMongoRepository(d.DB.Database(d.Cfg.MongoDatabase))
	} else {
		users = identity.NewMemoryRepository()
	}

	var pending auth.PendingStore
	if d.Cache != nil {
		pending = auth.NewRedisPendingStore(d.Cache)
	} else {
		pending = auth.NewMemoryPendingStore()
	}

	// Services and handlers
	tokens := auth.NewTokenManager(d.Cfg.JWTSecret, d.Cfg.SessionTokenTTL, d.Cfg.LinkTokenTTL)
	authSvc := auth.NewService(auth.Deps{
		Users:      users,
		Pending:    pending,
		Tokens:     tokens,
		OTP:        d.OTP,
		Google:     d.Google,
		Mail:       d.Mail,
		Logger:     d.Logger,
		ClientURL:  d.Cfg.ClientURL,
		PendingTTL: d.Cfg.LinkTokenTTL,
	})
	authHandler := auth.NewHandler(authSvc, d.Logger)

	RegisterAuthRoutes(app, authHandler, tokens)

	// Any unmatched route fails with a generic not-found response.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route Not Found...",
		})
	})

	return nil
}
