package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-catalog-api/internal/handler"
	"go-catalog-api/internal/middleware"
	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/internal/service"
	"go-catalog-api/internal/storage"
	"go-catalog-api/internal/ws"
	"go-catalog-api/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Product{}, &model.User{})

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Image store
	imageDir := os.Getenv("IMAGE_DIR")
	if imageDir == "" {
		imageDir = "./public/images"
	}
	imageStore, err := storage.NewDiskStore(imageDir)
	if err != nil {
		log.Fatal("Failed to prepare image directory: ", err)
	}

	siteTitle := os.Getenv("SITE_TITLE")
	if siteTitle == "" {
		siteTitle = "Catalog Storefront"
	}

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	userRepo := repository.NewUserRepo(db)

	// Superseded image files are kept on disk, matching how shared links keep
	// working after an image swap. Swap in storage.DeleteFiles{} to reclaim.
	catalogService := service.NewCatalogService(productRepo, imageStore, storage.KeepFiles{}, wsHub)
	authService := service.NewAuthService(userRepo)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	storefrontHandler := handler.NewStorefrontHandler(catalogService, siteTitle)
	authHandler := handler.NewAuthHandler(authService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Catalog API v1.0",
		BodyLimit: 10 * 1024 * 1024, // multipart uploads, 3 images max 2 MB each
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	// Uploaded images are publicly servable by filename
	app.Static("/images", imageDir)

	// Auth (public)
	app.Post("/auth/login", authHandler.Login)

	// Catalog reads (public, used by the SPA and the storefront)
	app.Get("/products", catalogHandler.GetProducts)
	app.Get("/products/:id/edit", catalogHandler.EditProduct)

	// Catalog mutations (require a logged-in admin)
	app.Post("/products", middleware.RequireAuth(), catalogHandler.CreateProduct)
	app.Post("/products/:id", middleware.RequireAuth(), catalogHandler.UpdateProduct)
	app.Delete("/products/:id", middleware.RequireAuth(), catalogHandler.DeleteProduct)

	// Storefront detail page, server-rendered so crawlers see the SEO/OG tags
	app.Get("/shop/product/:id", storefrontHandler.Show)

	// WebSocket route for live catalog events
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedAdmin creates the default admin user if it doesn't exist yet
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	admin := &model.User{
		Email:    email,
		FullName: "Catalog Administrator",
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("Admin user created: %s", email)
	}
}
