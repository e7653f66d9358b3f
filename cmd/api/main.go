package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"newsletter_backend/internal/controller"
	"newsletter_backend/internal/middleware"
	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/config"
	"newsletter_backend/pkg/cron"
	"newsletter_backend/pkg/database"
	"newsletter_backend/pkg/email"
	"newsletter_backend/pkg/seed"
	"newsletter_backend/pkg/utils/jwt"
	"newsletter_backend/pkg/utils/storage"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	// Public newsletter routes
	api.Get("/newsletters", controller.ListPublicNewsletters)

	public := api.Group("/newsletter")
	public.Post("/:newsletter_slug/subscribe", controller.SubscribeRequest)
	public.Post("/:newsletter_slug/unsubscribe", controller.UnsubscribeRequest)
	public.Post("/:newsletter_slug/update", controller.UpdateRequest)
	public.Get("/:newsletter_slug/activate/:action/:email/:code", controller.Activate)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware())

	admin.Get("/newsletters", controller.ListNewsletters)
	admin.Post("/newsletters", controller.CreateNewsletter)
	admin.Get("/newsletters/:newsletter_slug", controller.GetNewsletter)
	admin.Put("/newsletters/:newsletter_slug", controller.UpdateNewsletter)

	subscriptions := admin.Group("/subscriptions")
	subscriptions.Get("/", controller.ListSubscriptions)
	subscriptions.Post("/", controller.CreateSubscription)
	subscriptions.Put("/:id", controller.UpdateSubscription)
	subscriptions.Post("/make-subscribed", controller.BulkSubscribe)
	subscriptions.Post("/make-unsubscribed", controller.BulkUnsubscribe)

	// Two-step bulk import
	subscriptions.Post("/import", controller.ImportSubscribers)
	subscriptions.Get("/import/confirm", controller.ImportConfirmForm)
	subscriptions.Post("/import/confirm", controller.ImportConfirm)

	messages := admin.Group("/messages")
	messages.Get("/", controller.ListMessages)
	messages.Post("/", controller.CreateMessage)
	messages.Post("/:message_id/images", controller.UploadMessageImage)
	messages.Delete("/:message_id/images/:image_id", controller.DeleteMessageImage)

	submissions := admin.Group("/submissions")
	submissions.Get("/", controller.ListSubmissions)
	submissions.Post("/", controller.CreateSubmission)
	submissions.Post("/:id/submit", controller.SubmitSubmission)
}

func main() {
	cfg := config.Load()

	jwt.SetSecret(cfg.JWT.Secret)

	if cfg.Email.APIKey != "" {
		if err := email.InitEmailService(cfg.Email.APIKey, cfg.Email.TemplatesDir); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, outgoing email disabled")
	}

	if err := storage.InitStorage(); err != nil {
		log.Printf("Could not initialize storage: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.Newsletter{},
		&model.Subscription{},
		&model.Message{},
		&model.MessageImage{},
		&model.Submission{},
		&model.ImportDraft{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.SeedDefaultNewsletter(database.GetDB())

	cron.InitSubmissionCron()
	cron.InitDraftExpiryCron()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
