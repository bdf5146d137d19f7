package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/tabng/tab-backend/internal/address"
	"github.com/tabng/tab-backend/internal/admin"
	"github.com/tabng/tab-backend/internal/apperror"
	"github.com/tabng/tab-backend/internal/auth"
	"github.com/tabng/tab-backend/internal/cart"
	"github.com/tabng/tab-backend/internal/category"
	"github.com/tabng/tab-backend/internal/checkout"
	"github.com/tabng/tab-backend/internal/config"
	"github.com/tabng/tab-backend/internal/database"
	"github.com/tabng/tab-backend/internal/events"
	"github.com/tabng/tab-backend/internal/logger"
	"github.com/tabng/tab-backend/internal/order"
	"github.com/tabng/tab-backend/internal/payment"
	"github.com/tabng/tab-backend/internal/product"
	"github.com/tabng/tab-backend/internal/slider"
	"github.com/tabng/tab-backend/internal/upload"
	"github.com/tabng/tab-backend/internal/user"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	db := mustOpenDB(cfg, log)
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaOrderTopic, log, cfg.KafkaBrokers...)
		defer kp.Close()
		publisher = kp
		log.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	addressService := address.NewService(address.NewPostgresRepository(db))
	userService := user.NewService(user.NewPostgresRepository(db), addressService)
	productService := product.NewService(product.NewPostgresRepository(db))
	categoryService := category.NewService(category.NewPostgresRepository(db), productService)
	orderService := order.NewService(order.NewPostgresRepository(db), productService, addressService, publisher, log)
	sliderService := slider.NewService(slider.NewPostgresRepository(db), slider.NewRedisStyling(rdb), log)
	adminService := admin.NewService(admin.NewPostgresStats(db), userService, orderService, log)

	carts := cart.NewManager(cart.NewRedisSnapshots(rdb), log)
	gateway := payment.NewGateway(payment.Config{
		SecretKey:   cfg.PaystackSecretKey,
		PublicKey:   cfg.PaystackPublicKey,
		BaseURL:     cfg.PaystackBaseURL,
		CallbackURL: cfg.PaystackCallbackURL,
		SessionTTL:  cfg.PaymentSessionTTL,
	}, log)
	checkoutService := checkout.NewService(carts, gateway, cfg.CODDelay, log)

	userHandler := user.NewHandler(userService, issuer)
	productHandler := product.NewHandler(productService)
	categoryHandler := category.NewHandler(categoryService)
	sliderHandler := slider.NewHandler(sliderService)
	cartHandler := cart.NewHandler(carts, productService)
	checkoutHandler := checkout.NewHandler(checkoutService)
	paymentHandler := payment.NewHandler(gateway, log)
	addressHandler := address.NewHandler(addressService)
	orderHandler := order.NewHandler(orderService)
	adminHandler := admin.NewHandler(adminService)
	uploadHandler := upload.NewHandler(upload.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL), log)

	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(log)})
	app.Use(recover.New())
	app.Use(logger.Requests(log))
	setupCORS(app, cfg.CORSOrigins)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Static("/uploads", cfg.UploadDir)
	app.Use("/admin", auth.AdminPageGuard(issuer, "/login"))
	app.Static("/admin", cfg.AdminDir)

	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	sliderHandler.RegisterPublicRoutes(app)
	cartHandler.RegisterPublicRoutes(app)
	checkoutHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)

	// everything below requires a valid bearer token
	app.Use(issuer.Middleware())

	userHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	categoryHandler.RegisterProtectedRoutes(app)
	sliderHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	adminHandler.RegisterProtectedRoutes(app)
	uploadHandler.RegisterProtectedRoutes(app)

	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := app.Listen(cfg.Addr); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	gateway.Shutdown()
	checkoutService.Wait()
	log.Info("stopped")
}

func mustOpenDB(cfg config.Config, log *zap.Logger) *sql.DB {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
		log.Info("migrations applied")
	}
	return db
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + cart.HeaderName,
		ExposeHeaders: cart.HeaderName,
	}))
}
