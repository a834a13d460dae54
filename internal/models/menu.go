package models

// Food type tags.
const (
	FoodTypeVeg    = "veg"
	FoodTypeNonVeg = "non-veg"
)

// Spice level tags.
const (
	SpiceLevelMild   = "mild"
	SpiceLevelMedium = "medium"
	SpiceLevelHot    = "hot"
)

// MenuItem is a catalogue entry keyed by a business-assigned integer id.
type MenuItem struct {
	BaseModel
	ItemID      int     `gorm:"uniqueIndex" json:"item_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	FoodType    string  `json:"food_type"`
	SpiceLevel  string  `json:"spice_level"`
}
