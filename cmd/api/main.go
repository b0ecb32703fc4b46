package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/config"
	"github.com/taskbid/taskbid-api/internal/db"
	"github.com/taskbid/taskbid-api/internal/handlers"
	"github.com/taskbid/taskbid-api/internal/middleware"
	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/realtime"
	bidsvc "github.com/taskbid/taskbid-api/internal/services/bids"
	"github.com/taskbid/taskbid-api/internal/services/sessions"
	"github.com/taskbid/taskbid-api/internal/services/wallet"
	worksvc "github.com/taskbid/taskbid-api/internal/services/works"
	"github.com/taskbid/taskbid-api/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unavailable, falling back to DB-only sessions: %v", err)
		rdb = nil
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Freelancer{},
		&models.Project{},
		&models.Task{},
		&models.Bid{},
		&models.Work{},
		&models.Payment{},
		&models.Session{},
		&models.WalletTransaction{},
	); err != nil {
		log.Fatal(err)
	}

	if err := seedAdmin(gdb); err != nil {
		log.Fatal(err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	events := realtime.NewBroadcaster(hub, rdb)
	go events.RelayFromRedis(context.Background())

	sess := sessions.NewService(gdb, rdb)
	walletSvc := wallet.NewWalletService(gdb)
	bidSvc := bidsvc.NewService(gdb)
	workSvc := worksvc.NewService(gdb, walletSvc)

	requireJWT := middleware.RequireJWT(cfg.JWTSecret, sess)
	optionalJWT := middleware.OptionalJWT(cfg.JWTSecret, sess)
	attachLocals := middleware.AttachJWTLocals()
	adminOnly := middleware.RequireRoles(string(models.RoleAdmin))
	freelancerOnly := middleware.RequireRoles(string(models.RoleFreelancer))

	authH := handlers.NewAuthHandler(gdb, sess, cfg.JWTSecret, cfg.JWTExpiresMin)
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		Sessions:        sess,
		JWTSecret:       cfg.JWTSecret,
		ExpiresMin:      cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	projectH := handlers.NewProjectHandler(gdb)
	taskH := handlers.NewTaskHandler(gdb)
	bidH := handlers.NewBidHandler(gdb, bidSvc, events)
	workH := handlers.NewWorkHandler(gdb, workSvc, events)
	dashH := handlers.NewDashboardHandler(gdb, hub, cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				msg = fe.Message
			}
			return c.Status(code).JSON(fiber.Map{"message": msg})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.FrontendBaseURL,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	authH.Routes(app.Group("/auth"), requireJWT, attachLocals)
	googleH.Routes(app.Group("/auth"))
	projectH.Routes(app.Group("/projects"), optionalJWT, requireJWT, adminOnly, attachLocals)
	taskH.Routes(app.Group("/tasks"), optionalJWT, requireJWT, adminOnly, attachLocals)
	bidH.Routes(app.Group("/bids"), requireJWT, attachLocals, freelancerOnly, adminOnly)
	workH.Routes(app.Group("/works"), requireJWT, attachLocals, freelancerOnly, adminOnly)
	dashH.Routes(app.Group("/admin/dashboard"), requireJWT, adminOnly, attachLocals)

	// socket auth happens in the handler via query param
	app.Get("/ws/admin", websocket.New(dashH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}

// seedAdmin makes sure at least one ADMIN account exists. Admins cannot
// register through the API.
func seedAdmin(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@taskbid.com"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Names:    "Administrator",
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	if err := gdb.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("seeded admin account %s", email)
	return nil
}
