package stock

import (
	"context"
	"fmt"
	"log"
	"time"

	"pizza-backend/internal/mailer"
	"pizza-backend/internal/repository"
)

// Checker scans the inventory for items at or below their threshold and sends
// one aggregated alert to the operator. It runs after every order placement
// and on the hourly schedule; a chronically low item re-alerts each time, by
// the original product behavior.
type Checker struct {
	inventory  repository.InventoryRepository
	sender     mailer.Sender
	adminEmail string
}

func NewChecker(inventory repository.InventoryRepository, sender mailer.Sender, adminEmail string) *Checker {
	return &Checker{
		inventory:  inventory,
		sender:     sender,
		adminEmail: adminEmail,
	}
}

// Check returns the number of low-stock items found. No email is sent when
// nothing is low.
func (c *Checker) Check(ctx context.Context) (int, error) {
	items, err := c.inventory.GetLowStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan for low stock: %w", err)
	}

	if len(items) == 0 {
		return 0, nil
	}

	html, err := mailer.LowStockAlert(items)
	if err != nil {
		return len(items), err
	}

	err = c.sender.Send(ctx, mailer.Message{
		To:      c.adminEmail,
		Subject: "Low Stock Alert - Pizza App",
		HTML:    html,
	})
	if err != nil {
		return len(items), fmt.Errorf("failed to send low stock alert: %w", err)
	}

	return len(items), nil
}

// RunScheduled is the cron entry point; failures are logged, never fatal.
func (c *Checker) RunScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Running scheduled stock check...")

	n, err := c.Check(ctx)
	if err != nil {
		log.Printf("Scheduled stock check failed: %v", err)
		return
	}

	if n > 0 {
		log.Printf("Low stock alert sent for %d items", n)
	}
}
