package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/restoman/internal/models"
)

// MenuHandler manages the menu catalogue.
type MenuHandler struct {
	db *gorm.DB
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// ListMenuItems returns all catalogue entries.
func (h *MenuHandler) ListMenuItems(c *fiber.Ctx) error {
	var items []models.MenuItem
	if err := h.db.Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(items)
}

// GetMenuItem returns one entry by its business id.
func (h *MenuHandler) GetMenuItem(c *fiber.Ctx) error {
	itemID, err := parseItemID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.db.Where("item_id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Menu item not found")
		}
		return err
	}

	return c.JSON(item)
}

type menuItemRequest struct {
	ItemID      int     `json:"item_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	FoodType    string  `json:"food_type"`
	SpiceLevel  string  `json:"spice_level"`
}

// CreateMenuItem persists a new catalogue entry.
func (h *MenuHandler) CreateMenuItem(c *fiber.Ctx) error {
	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var existing models.MenuItem
	err := h.db.Where("item_id = ?", req.ItemID).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "Menu item with this ID already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	item := models.MenuItem{
		ItemID:      req.ItemID,
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Description: req.Description,
		FoodType:    defaultString(req.FoodType, models.FoodTypeVeg),
		SpiceLevel:  defaultString(req.SpiceLevel, models.SpiceLevelMedium),
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Menu item created successfully",
		"menu_item": item,
	})
}

// UpdateMenuItem updates an existing entry by its business id.
func (h *MenuHandler) UpdateMenuItem(c *fiber.Ctx) error {
	itemID, err := parseItemID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.db.Where("item_id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Menu item not found")
		}
		return err
	}

	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// Partial update: fields omitted from the body keep their stored
	// value.
	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Price != 0 {
		item.Price = req.Price
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.Image != "" {
		item.Image = req.Image
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.FoodType != "" {
		item.FoodType = req.FoodType
	}
	if req.SpiceLevel != "" {
		item.SpiceLevel = req.SpiceLevel
	}

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":   "Menu item updated successfully",
		"menu_item": item,
	})
}

// DeleteMenuItem removes an entry by its business id.
func (h *MenuHandler) DeleteMenuItem(c *fiber.Ctx) error {
	itemID, err := parseItemID(c)
	if err != nil {
		return err
	}

	result := h.db.Where("item_id = ?", itemID).Delete(&models.MenuItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Menu item not found")
	}

	return c.JSON(fiber.Map{"message": "Menu item deleted successfully"})
}

func parseItemID(c *fiber.Ctx) (int, error) {
	itemID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return itemID, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
