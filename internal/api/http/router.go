package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Providers      *handlers.ProvidersHandler
	Orders         *handlers.OrdersHandler
	Bookings       *handlers.BookingsHandler
	Messages       *handlers.MessagesHandler
	Gateway        *realtime.Gateway
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// identity lifecycle, reachable without a token
	app.Post("/api/register", cfg.Users.Register)
	app.Post("/api/complete-registration", cfg.Users.CompleteRegistration)
	app.Post("/api/verify-otp", cfg.Users.VerifyOTP)
	app.Post("/api/resend-otp", cfg.Users.ResendOTP)
	app.Post("/api/login", cfg.Users.Login)

	authed := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireVerified()}

	order := app.Group("/order", authed...)
	order.Post("/create", cfg.Orders.CreateOrder)
	order.Post("/accept/:id", auth.RequireRepairman(), cfg.Orders.AcceptOrder)
	order.Post("/reject/:id", auth.RequireRepairman(), cfg.Orders.RejectOrder)
	order.Post("/cancel/:id", cfg.Orders.CancelOrder)
	order.Post("/depart/:id", auth.RequireRepairman(), cfg.Orders.DepartOrder)
	order.Post("/finish/:id", cfg.Orders.FinishOrder)

	book := app.Group("/book", authed...)
	book.Post("/create", cfg.Bookings.CreateBooking)
	book.Post("/accept/:id", auth.RequireShopOwner(), cfg.Bookings.AcceptBooking)
	book.Post("/reject/:id", auth.RequireShopOwner(), cfg.Bookings.RejectBooking)
	book.Post("/cancel/:id", cfg.Bookings.CancelBooking)
	book.Post("/finish/:id", auth.RequireShopOwner(), cfg.Bookings.FinishBooking)

	api := app.Group("/api", authed...)
	api.Get("/me", cfg.Users.Me)

	api.Get("/orders", cfg.Orders.ListOrders)
	api.Get("/order/:id", cfg.Orders.GetOrder)
	api.Get("/booking/:id", cfg.Bookings.GetBooking)
	api.Get("/messages/:orderId", cfg.Messages.ListMessages)

	api.Post("/repairman", cfg.Providers.BecomeRepairman)
	api.Delete("/repairman", auth.RequireRepairman(), cfg.Providers.ResignRepairman)
	api.Put("/repairman/phone", auth.RequireRepairman(), cfg.Providers.ChangePhone)

	api.Get("/shops", cfg.Providers.ListShops)
	api.Post("/shop", cfg.Providers.OpenShop)
	api.Get("/shop", auth.RequireShopOwner(), cfg.Providers.MyShop)
	api.Delete("/shop", auth.RequireShopOwner(), cfg.Providers.CloseShop)
	api.Get("/shop/:id/bookings", auth.RequireShopOwner(), cfg.Bookings.ListShopBookings)

	app.Get("/ws", cfg.Gateway.UpgradeGate, cfg.Gateway.Handler())
}
