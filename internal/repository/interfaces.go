package repository

import (
	"context"
	"time"

	"pizza-backend/internal/models"
)

type InventoryRepository interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, id int) (*models.InventoryItem, error)
	GetAll(ctx context.Context) ([]models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id int) error

	GetAvailable(ctx context.Context) ([]models.InventoryItem, error)
	GetLowStock(ctx context.Context) ([]models.InventoryItem, error)
}

type OrderRepository interface {
	// Create runs the whole placement as one transaction: ingredient lookup,
	// server-side pricing, order + history insert, conditional stock
	// decrements and movement records.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUserID(ctx context.Context, userID int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int, status string) (*models.Order, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	SetVerificationToken(ctx context.Context, userID int, tokenHash string, expire time.Time) error
	ClearVerificationToken(ctx context.Context, userID int) error
	VerifyByToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)

	SetResetToken(ctx context.Context, userID int, tokenHash string, expire time.Time) error
	ResetPasswordByToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error)
}

type MovementRepository interface {
	Create(ctx context.Context, movement *models.StockMovement) error
	GetByItemID(ctx context.Context, itemID int) ([]models.StockMovement, error)
	GetByOrderID(ctx context.Context, orderID int) ([]models.StockMovement, error)
}
