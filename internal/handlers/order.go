package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/restoman/internal/billing"
	"github.com/example/restoman/internal/models"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db         *gorm.DB
	reconciler *billing.Reconciler
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, reconciler *billing.Reconciler) *OrderHandler {
	return &OrderHandler{db: db, reconciler: reconciler}
}

type orderItemRequest struct {
	MenuItemID int     `json:"menu_item_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

type createOrderRequest struct {
	User        string             `json:"user"`
	Items       []orderItemRequest `json:"items"`
	TotalAmount float64            `json:"total_amount"`
}

// CreateOrder places a new order in PENDING status. Item name and price
// are snapshotted from the request; no availability check is made
// against the catalogue.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := uuid.Parse(req.User)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	order := models.Order{
		UserID:      userID,
		OrderNumber: generateOrderNumber(),
		Status:      models.OrderStatusPending,
		IsBilled:    false,
		PlacedAt:    time.Now(),
	}

	// Snapshot the customer's email so the by-email listing survives
	// later account changes.
	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err == nil {
		order.CustomerEmail = user.Email
	}

	var subtotal float64
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
		})
		subtotal += item.Price * float64(item.Quantity)
	}

	order.TotalAmount = req.TotalAmount
	if order.TotalAmount == 0 {
		order.TotalAmount = subtotal
	}

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// ListOrders returns all orders, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	var orders []models.Order
	if err := h.db.Preload("Items").Preload("User").
		Order("placed_at desc").
		Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(orders)
}

// GetOrdersByUser returns a user's orders, newest first.
func (h *OrderHandler) GetOrdersByUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var orders []models.Order
	if err := h.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("placed_at desc").
		Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(orders)
}

// GetOrdersByEmail returns orders whose snapshotted customer email
// matches case-insensitively.
func (h *OrderHandler) GetOrdersByEmail(c *fiber.Ctx) error {
	var orders []models.Order
	if err := h.db.Preload("Items").
		Where("LOWER(customer_email) = LOWER(?)", c.Params("email")).
		Order("placed_at desc").
		Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(orders)
}

// GetOrder returns one order by its business order number.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	var order models.Order
	if err := h.db.Preload("Items").
		Where("order_number = ?", c.Params("orderId")).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		}
		return err
	}
	return c.JSON(order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus overwrites the order status unconditionally, then
// reconciles billing when the new status is DELIVERED. The status
// change is the primary effect: a billing failure is logged and never
// fails the call.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var order models.Order
	if err := h.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		}
		return err
	}

	if err := h.db.Model(&order).Update("status", req.Status).Error; err != nil {
		return err
	}
	order.Status = req.Status

	if req.Status == models.OrderStatusDelivered {
		if err := h.reconciler.Reconcile(&order); err != nil {
			log.Printf("[Order] billing reconciliation failed for order %s: %v", order.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Order status updated",
		"order":   order,
	})
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano()%1000000000)
}
