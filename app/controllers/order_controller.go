package controllers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/atolyesoft/DrapeDesk/app/models"
	"github.com/atolyesoft/DrapeDesk/app/repository"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/apperr"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/database"
	metrics "github.com/atolyesoft/DrapeDesk/internal/pkg/metrics/counter"
	"github.com/atolyesoft/DrapeDesk/internal/pkg/orders"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateOrderRequest is the input for opening a new order.
type CreateOrderRequest struct {
	TenantID      uint   `json:"tenant_id" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"max=150"`
	CustomerPhone string `json:"customer_phone" validate:"max=30"`
	Note          string `json:"note"`
}

// HandleCreateOrder opens an empty draft order for a tenant. Items and extras
// are attached afterwards via the replace-items endpoint.
func HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_order", err.Error()))
	}

	repos := repository.GetGlobalRepositories()
	if _, err := repos.Tenant.GetByID(req.TenantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperr.Validation("unknown_tenant", "tenant_id does not reference an existing tenant"))
		}
		return respondError(c, err)
	}

	order := &models.Order{
		UUID:          uuid.New().String(),
		TenantID:      req.TenantID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        models.ORDER_STATUS_DRAFT,
		NetTotal:      decimal.Zero,
		Note:          req.Note,
	}
	if err := repos.Order.Create(order); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": order})
}

// HandleGetOrder returns one order with its items, extras and balance.
func HandleGetOrder(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	svc := orders.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, totals, err := svc.GetOrder(ctx, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"order":  order,
		"totals": totals,
	})
}

// HandleGetOrderByUUID looks an order up by its public UUID, for links that
// leave the shop (customer receipts, production slips).
func HandleGetOrderByUUID(c *fiber.Ctx) error {
	orderUUID := c.Params("uuid")
	if orderUUID == "" {
		return respondError(c, apperr.Validation("missing_uuid", "order uuid is required"))
	}

	repos := repository.GetGlobalRepositories()
	order, err := repos.Order.GetByUUID(orderUUID)
	if err != nil {
		return respondError(c, err)
	}

	svc := orders.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, totals, err := svc.ListPayments(ctx, order.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"order":  order,
		"totals": totals,
	})
}

// UpdateOrderStatusRequest moves an order along its fulfilment states.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft confirmed produced delivered canceled"`
}

// HandleUpdateOrderStatus sets the fulfilment status of an order. The status
// is workflow state only; it never changes totals or payments.
func HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_status", err.Error()))
	}

	repos := repository.GetGlobalRepositories()
	order, err := repos.Order.GetByID(orderID)
	if err != nil {
		return respondError(c, err)
	}
	order.Status = req.Status
	if err := repos.Order.Update(order); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"order": order})
}

// HandleListTenantOrders returns a page of a tenant's orders, newest first.
func HandleListTenantOrders(c *fiber.Ctx) error {
	tenantID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repos := repository.GetGlobalRepositories()
	if _, err := repos.Tenant.GetByID(tenantID); err != nil {
		return respondError(c, err)
	}

	list, err := repos.Order.GetByTenantID(tenantID, (page-1)*limit, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repos.Order.CountByTenantID(tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders": list,
		"page":   page,
		"limit":  limit,
		"total":  total,
	})
}

// AddOrderPaymentRequest is the input for recording one payment.
type AddOrderPaymentRequest struct {
	Amount string     `json:"amount" validate:"required"`
	Method string     `json:"method" validate:"required"`
	Note   string     `json:"note"`
	PaidAt *time.Time `json:"paid_at"`
}

// HandleAddOrderPayment records a payment against an order. Overpayment is
// rejected inside the ledger transaction, not here.
func HandleAddOrderPayment(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req AddOrderPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_payment", err.Error()))
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return respondError(c, apperr.Validation("invalid_amount", "amount must be a decimal string"))
	}

	svc := orders.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	totals, err := svc.AddPayment(ctx, orders.AddPaymentInput{
		OrderID: orderID,
		Amount:  amount,
		Method:  req.Method,
		Note:    req.Note,
		PaidAt:  req.PaidAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	if err := metrics.AddOrderPayment(); err != nil {
		log.Printf("orders: payment counter increment failed: %v", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"totals": totals})
}

// HandleListOrderPayments returns all payments of an order plus the balance.
func HandleListOrderPayments(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	svc := orders.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	payments, totals, err := svc.ListPayments(ctx, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"payments": payments,
		"totals":   totals,
	})
}

// OrderItemInput is one order line in a replace-items request. Subtotals are
// never accepted from the client.
type OrderItemInput struct {
	Description string `json:"description" validate:"max=255"`
	Qty         int    `json:"qty" validate:"required,min=1"`
	WidthCM     int    `json:"width_cm" validate:"required,min=1"`
	HeightCM    int    `json:"height_cm" validate:"min=0"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	FileDensity string `json:"file_density"`
}

// OrderExtraInput is one flat-priced extra line.
type OrderExtraInput struct {
	Label    string `json:"label" validate:"max=150"`
	Subtotal string `json:"subtotal" validate:"required"`
}

// ReplaceOrderItemsRequest is the full replacement item/extra set.
type ReplaceOrderItemsRequest struct {
	Items  []OrderItemInput  `json:"items" validate:"dive"`
	Extras []OrderExtraInput `json:"extras" validate:"dive"`
}

// HandleReplaceOrderItems replaces the full item and extra set of an order and
// recomputes every subtotal and the net total server-side.
func HandleReplaceOrderItems(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req ReplaceOrderItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_body", "request body must be JSON"))
	}
	if err := validate.Struct(&req); err != nil {
		return respondError(c, apperr.Validation("invalid_items", err.Error()))
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		unitPrice, err := decimal.NewFromString(in.UnitPrice)
		if err != nil {
			return respondError(c, apperr.Validation("invalid_unit_price", "unit_price must be a decimal string"))
		}
		density := decimal.Zero
		if in.FileDensity != "" {
			density, err = decimal.NewFromString(in.FileDensity)
			if err != nil {
				return respondError(c, apperr.Validation("invalid_file_density", "file_density must be a decimal string"))
			}
		}
		items = append(items, models.OrderItem{
			Description: in.Description,
			Qty:         in.Qty,
			WidthCM:     in.WidthCM,
			HeightCM:    in.HeightCM,
			UnitPrice:   unitPrice,
			FileDensity: density,
		})
	}

	extras := make([]models.OrderExtra, 0, len(req.Extras))
	for _, in := range req.Extras {
		subtotal, err := decimal.NewFromString(in.Subtotal)
		if err != nil {
			return respondError(c, apperr.Validation("invalid_extra_subtotal", "subtotal must be a decimal string"))
		}
		extras = append(extras, models.OrderExtra{
			Label:    in.Label,
			Subtotal: subtotal,
		})
	}

	svc := orders.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	order, err := svc.ReplaceItems(ctx, orderID, items, extras)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"order": order})
}
