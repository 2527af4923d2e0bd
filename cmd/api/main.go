package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/repair-marketplace/internal/api/http"
	"github.com/spec-kit/repair-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/config"
	"github.com/spec-kit/repair-marketplace/internal/events"
	"github.com/spec-kit/repair-marketplace/internal/observability"
	"github.com/spec-kit/repair-marketplace/internal/persistence"
	"github.com/spec-kit/repair-marketplace/internal/realtime"
	"github.com/spec-kit/repair-marketplace/internal/repository"
	"github.com/spec-kit/repair-marketplace/internal/service"
	"github.com/spec-kit/repair-marketplace/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	repairmanRepo := repository.NewRepairmanRepository(pool)
	shopRepo := repository.NewShopRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	otpRepo := repository.NewOTPRepository(redis.Client)

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		OTPRepo:  otpRepo,
		Logger:   logger,
	})
	profileService := service.NewProfileService(service.ProfileDependencies{
		Pool:          pool,
		UserRepo:      userRepo,
		RepairmanRepo: repairmanRepo,
		ShopRepo:      shopRepo,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  orderRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	bookingService := service.NewBookingService(service.BookingDependencies{
		BookingRepo: bookingRepo,
		ShopRepo:    shopRepo,
		Dispatcher:  dispatcher,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		MessageRepo: messageRepo,
		OrderRepo:   orderRepo,
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	if cfg.Rabbit.Enabled() {
		bridge, err := events.NewAMQPBridge(cfg.Rabbit.URL, cfg.Rabbit.Exchange, logger)
		if err != nil {
			logger.Error("rabbitmq bridge unavailable", zap.Error(err))
		} else {
			bridge.Attach(dispatcher)
			defer bridge.Close() //nolint:errcheck
		}
	}

	hub := realtime.NewHub(logger)
	gateway := realtime.NewGateway(realtime.GatewayDependencies{
		Hub:      hub,
		Orders:   orderService,
		Bookings: bookingService,
		Chat:     chatService,
		Tokens:   authService.TokenManager(),
		Config:   cfg.Realtime,
		Logger:   logger,
		Metrics:  metrics,
	})
	gateway.RegisterEventHandlers(dispatcher)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Providers:      handlers.NewProvidersHandler(profileService),
		Orders:         handlers.NewOrdersHandler(orderService),
		Bookings:       handlers.NewBookingsHandler(bookingService),
		Messages:       handlers.NewMessagesHandler(chatService, orderService),
		Gateway:        gateway,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
