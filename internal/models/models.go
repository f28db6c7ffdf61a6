package models

import "time"

const (
	CategoryBase   = "base"
	CategorySauce  = "sauce"
	CategoryCheese = "cheese"
	CategoryVeggie = "veggie"
	CategoryMeat   = "meat"
)

var Categories = []string{CategoryBase, CategorySauce, CategoryCheese, CategoryVeggie, CategoryMeat}

const DefaultThreshold = 20

type InventoryItem struct {
	ItemID        int       `json:"item_id"`
	Category      string    `json:"category"`
	Name          string    `json:"name"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	Threshold     int       `json:"threshold"`
	LastRestocked time.Time `json:"last_restocked"`
	CreatedAt     time.Time `json:"created_at"`
}

// LowStock reports whether the item is at or below its reorder threshold.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.Threshold
}

type Pizza struct {
	Base    string   `json:"base"`
	Sauce   string   `json:"sauce"`
	Cheese  string   `json:"cheese"`
	Veggies []string `json:"veggies"`
	Meat    []string `json:"meat"`
}

// Ingredients flattens the pizza into (category, name) pairs, one per unit of
// stock the order consumes.
func (p *Pizza) Ingredients() []Ingredient {
	ingredients := []Ingredient{
		{Category: CategoryBase, Name: p.Base},
		{Category: CategorySauce, Name: p.Sauce},
		{Category: CategoryCheese, Name: p.Cheese},
	}
	for _, v := range p.Veggies {
		ingredients = append(ingredients, Ingredient{Category: CategoryVeggie, Name: v})
	}
	for _, m := range p.Meat {
		ingredients = append(ingredients, Ingredient{Category: CategoryMeat, Name: m})
	}
	return ingredients
}

type Ingredient struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

type Order struct {
	OrderID       int           `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	UserID        int           `json:"user_id"`
	UserName      string        `json:"user_name,omitempty"`
	UserEmail     string        `json:"user_email,omitempty"`
	Pizza         Pizza         `json:"pizza"`
	TotalPrice    float64       `json:"total_price"`
	Status        string        `json:"status"`
	PaymentID     string        `json:"payment_id"`
	PaymentStatus string        `json:"payment_status"`
	StatusHistory []StatusEntry `json:"status_history"`
	CreatedAt     time.Time     `json:"created_at"`
}

type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID       int       `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	MovementOrder      = "order"
	MovementRestock    = "restock"
	MovementAdjustment = "adjustment"
)

// StockMovement is the audit trail of every quantity change on an inventory
// item. OrderID is zero for admin edits.
type StockMovement struct {
	MovementID   int       `json:"movement_id"`
	ItemID       int       `json:"item_id"`
	OrderID      int       `json:"order_id,omitempty"`
	MovementType string    `json:"movement_type"`
	Change       int       `json:"change"`
	CreatedAt    time.Time `json:"created_at"`
}
