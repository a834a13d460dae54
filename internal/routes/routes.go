package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/restoman/internal/billing"
	"github.com/example/restoman/internal/config"
	"github.com/example/restoman/internal/handlers"
	"github.com/example/restoman/internal/middleware"
	"github.com/example/restoman/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, mailer services.Mailer) {
	reconciler := billing.NewReconciler(db, cfg.StrictBilling)

	authHandler := handlers.NewAuthHandler(db, cfg, mailer)
	menuHandler := handlers.NewMenuHandler(db)
	orderHandler := handlers.NewOrderHandler(db, reconciler)
	billHandler := handlers.NewBillHandler(db)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/verify-otp", authHandler.VerifyOtp)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/verify-reset-otp", authHandler.VerifyResetOtp)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	menu := api.Group("/menu")
	menu.Get("/", menuHandler.ListMenuItems)
	menu.Post("/", menuHandler.CreateMenuItem)
	menu.Get("/:id", menuHandler.GetMenuItem)
	menu.Put("/:id", menuHandler.UpdateMenuItem)
	menu.Delete("/:id", menuHandler.DeleteMenuItem)

	orders := api.Group("/orders")
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/admin", orderHandler.ListOrders)
	orders.Get("/user/:userId", orderHandler.GetOrdersByUser)
	orders.Get("/email/:email", orderHandler.GetOrdersByEmail)
	orders.Put("/:id/status", orderHandler.UpdateOrderStatus)
	orders.Get("/:orderId", orderHandler.GetOrder)

	bills := api.Group("/bills")
	bills.Get("/", billHandler.ListBills)
	bills.Get("/unpaid", billHandler.ListUnpaidBills)
	bills.Get("/paid/:customerId", billHandler.GetPaidBillsByCustomer)
	bills.Put("/pay/:billId", billHandler.PayBill)
	bills.Get("/:billId", billHandler.GetBill)
}

// ErrorHandler renders every failure as a JSON body with a message
// string; unexpected errors also surface the raw detail, which is
// acceptable for an internal-facing system.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
		"error":   err.Error(),
	})
}
