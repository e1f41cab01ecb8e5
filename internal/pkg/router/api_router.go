package router

import (
	"github.com/atolyesoft/DrapeDesk/app/controllers"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	v1 := api.Group("/v1")

	// Provider webhook intake. Authenticated by its HMAC signature, not by
	// the admin key.
	v1.Post("/billing/webhook", controllers.HandleBillingWebhook)

	// Tenant-facing order endpoints.
	ordersGroup := v1.Group("/orders")
	ordersGroup.Post("/", controllers.HandleCreateOrder)
	ordersGroup.Get("/uuid/:uuid", controllers.HandleGetOrderByUUID)
	ordersGroup.Get("/:id", controllers.HandleGetOrder)
	ordersGroup.Put("/:id/items", controllers.HandleReplaceOrderItems)
	ordersGroup.Put("/:id/status", controllers.HandleUpdateOrderStatus)
	ordersGroup.Post("/:id/payments", controllers.HandleAddOrderPayment)
	ordersGroup.Get("/:id/payments", controllers.HandleListOrderPayments)

	v1.Get("/tenants/:id/orders", controllers.HandleListTenantOrders)

	// User-facing billing request.
	v1.Post("/users/:id/billing/request", controllers.HandleRequestUserPayment)

	// Administrative billing surface, gated by the shared admin key.
	admin := v1.Group("/admin", middleware.AdminKeyMiddleware())

	adminTenants := admin.Group("/tenants/:id")
	adminTenants.Get("/subscription", controllers.HandleGetSubscription)
	adminTenants.Post("/pay-month", controllers.HandlePayForMonth)
	adminTenants.Post("/plan", controllers.HandleSetPlan)
	adminTenants.Post("/cancel", controllers.HandleCancelSubscription)
	adminTenants.Post("/resume", controllers.HandleResumeSubscription)
	adminTenants.Post("/transition", controllers.HandleTransitionSubscription)

	adminUsers := admin.Group("/users/:id")
	adminUsers.Post("/billing/payments", controllers.HandleRecordUserPayment)
	adminUsers.Get("/billing/payments", controllers.HandleListUserPayments)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
