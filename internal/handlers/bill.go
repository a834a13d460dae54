package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/restoman/internal/models"
)

// BillHandler manages bill read and pay endpoints.
type BillHandler struct {
	db *gorm.DB
}

// NewBillHandler constructs BillHandler.
func NewBillHandler(db *gorm.DB) *BillHandler {
	return &BillHandler{db: db}
}

// ListBills returns all bills, newest first.
func (h *BillHandler) ListBills(c *fiber.Ctx) error {
	var bills []models.Bill
	if err := h.db.Preload("Items").
		Order("created_at desc").
		Find(&bills).Error; err != nil {
		return err
	}
	return c.JSON(bills)
}

// ListUnpaidBills returns open bills only.
func (h *BillHandler) ListUnpaidBills(c *fiber.Ctx) error {
	var bills []models.Bill
	if err := h.db.Preload("Items").
		Where("status = ?", models.BillStatusUnpaid).
		Order("created_at desc").
		Find(&bills).Error; err != nil {
		return err
	}
	return c.JSON(bills)
}

// GetPaidBillsByCustomer returns a customer's settled bills.
func (h *BillHandler) GetPaidBillsByCustomer(c *fiber.Ctx) error {
	customerID, err := uuid.Parse(c.Params("customerId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
	}

	var bills []models.Bill
	if err := h.db.Preload("Items").
		Where("customer_id = ? AND status = ?", customerID, models.BillStatusPaid).
		Order("created_at desc").
		Find(&bills).Error; err != nil {
		return err
	}
	return c.JSON(bills)
}

// GetBill returns one bill by id.
func (h *BillHandler) GetBill(c *fiber.Ctx) error {
	billID, err := uuid.Parse(c.Params("billId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid bill id")
	}

	var bill models.Bill
	if err := h.db.Preload("Items").First(&bill, "id = ?", billID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bill not found")
		}
		return err
	}
	return c.JSON(bill)
}

// PayBill marks a bill as paid. A paid bill is never reopened; the
// customer's next delivered order starts a fresh unpaid bill.
func (h *BillHandler) PayBill(c *fiber.Ctx) error {
	billID, err := uuid.Parse(c.Params("billId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid bill id")
	}

	var bill models.Bill
	if err := h.db.Preload("Items").First(&bill, "id = ?", billID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bill not found")
		}
		return err
	}

	if err := h.db.Model(&bill).Update("status", models.BillStatusPaid).Error; err != nil {
		return err
	}
	bill.Status = models.BillStatusPaid

	return c.JSON(fiber.Map{
		"message": "Bill marked as paid",
		"bill":    bill,
	})
}
