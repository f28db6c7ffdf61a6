package main

import (
	"context"
	"fmt"
	"log"

	"pizza-backend/internal/auth"
	"pizza-backend/internal/config"
	"pizza-backend/internal/database"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

type seedUser struct {
	name     string
	email    string
	password string
	role     string
}

var seedUsers = []seedUser{
	{name: "Admin", email: "admin@pizzaapp.com", password: "admin123", role: models.RoleAdmin},
	{name: "Test User", email: "user@test.com", password: "user123", role: models.RoleUser},
}

var seedInventory = []models.InventoryItem{
	// Bases
	{Category: "base", Name: "Thin Crust", Quantity: 50, Price: 100, Threshold: 20},
	{Category: "base", Name: "Thick Crust", Quantity: 50, Price: 120, Threshold: 20},
	{Category: "base", Name: "Cheese Burst", Quantity: 40, Price: 150, Threshold: 20},
	{Category: "base", Name: "Whole Wheat", Quantity: 30, Price: 130, Threshold: 20},
	{Category: "base", Name: "Gluten Free", Quantity: 25, Price: 180, Threshold: 15},

	// Sauces
	{Category: "sauce", Name: "Marinara", Quantity: 60, Price: 30, Threshold: 20},
	{Category: "sauce", Name: "BBQ Sauce", Quantity: 55, Price: 35, Threshold: 20},
	{Category: "sauce", Name: "Pesto", Quantity: 45, Price: 40, Threshold: 20},
	{Category: "sauce", Name: "White Sauce", Quantity: 50, Price: 35, Threshold: 20},
	{Category: "sauce", Name: "Hot Sauce", Quantity: 40, Price: 30, Threshold: 20},

	// Cheeses
	{Category: "cheese", Name: "Mozzarella", Quantity: 70, Price: 50, Threshold: 25},
	{Category: "cheese", Name: "Cheddar", Quantity: 60, Price: 55, Threshold: 25},
	{Category: "cheese", Name: "Parmesan", Quantity: 50, Price: 60, Threshold: 20},
	{Category: "cheese", Name: "Feta", Quantity: 40, Price: 65, Threshold: 20},
	{Category: "cheese", Name: "Vegan Cheese", Quantity: 35, Price: 70, Threshold: 15},

	// Veggies
	{Category: "veggie", Name: "Tomatoes", Quantity: 80, Price: 20, Threshold: 30},
	{Category: "veggie", Name: "Onions", Quantity: 80, Price: 15, Threshold: 30},
	{Category: "veggie", Name: "Bell Peppers", Quantity: 70, Price: 25, Threshold: 25},
	{Category: "veggie", Name: "Mushrooms", Quantity: 65, Price: 30, Threshold: 25},
	{Category: "veggie", Name: "Olives", Quantity: 60, Price: 35, Threshold: 20},
	{Category: "veggie", Name: "Jalapenos", Quantity: 55, Price: 25, Threshold: 20},
	{Category: "veggie", Name: "Corn", Quantity: 70, Price: 20, Threshold: 25},
	{Category: "veggie", Name: "Spinach", Quantity: 50, Price: 25, Threshold: 20},
	{Category: "veggie", Name: "Broccoli", Quantity: 45, Price: 30, Threshold: 20},

	// Meat
	{Category: "meat", Name: "Pepperoni", Quantity: 60, Price: 60, Threshold: 25},
	{Category: "meat", Name: "Chicken", Quantity: 55, Price: 65, Threshold: 25},
	{Category: "meat", Name: "Bacon", Quantity: 50, Price: 70, Threshold: 20},
	{Category: "meat", Name: "Sausage", Quantity: 45, Price: 65, Threshold: 20},
	{Category: "meat", Name: "Ham", Quantity: 40, Price: 60, Threshold: 20},
	{Category: "meat", Name: "Beef", Quantity: 35, Price: 75, Threshold: 15},
}

func main() {
	cfg := config.Load()

	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	ctx := context.Background()

	fmt.Println("Clearing existing data...")
	for _, table := range []string{"stock_movements", "order_status_history", "order_toppings", "orders", "inventory", "users"} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}

	userRepo := repository.NewUserRepository(pool)
	inventoryRepo := repository.NewInventoryRepository(pool)

	fmt.Println("Creating users...")
	for _, su := range seedUsers {
		hash, err := auth.HashPassword(su.password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		user := &models.User{
			Name:         su.name,
			Email:        su.email,
			PasswordHash: hash,
			Role:         su.role,
			IsVerified:   true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("failed to create user %s: %v", su.email, err)
		}
	}

	fmt.Println("Creating inventory items...")
	for i := range seedInventory {
		item := seedInventory[i]
		if err := inventoryRepo.Create(ctx, &item); err != nil {
			log.Fatalf("failed to create item %s/%s: %v", item.Category, item.Name, err)
		}
	}

	fmt.Println("\nDatabase seeded successfully!")
	fmt.Println("Admin credentials: admin@pizzaapp.com / admin123")
	fmt.Println("User credentials:  user@test.com / user123")
	fmt.Printf("Created %d inventory items\n", len(seedInventory))
}
