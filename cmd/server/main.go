package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"pizza-backend/internal/api/handlers"
	"pizza-backend/internal/api/middleware"
	"pizza-backend/internal/auth"
	"pizza-backend/internal/cache"
	"pizza-backend/internal/config"
	"pizza-backend/internal/database"
	"pizza-backend/internal/mailer"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
	"pizza-backend/internal/stock"
)

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

	rdb, err := cache.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	movementRepo := repository.NewMovementRepository(pool)
	inventoryRepo := cache.NewCachedInventoryRepository(repository.NewInventoryRepository(pool), rdb)

	sender, err := mailer.NewSMTPSender(cfg)
	if err != nil {
		log.Fatalf("failed to create mail sender: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiryInSecs)
	checker := stock.NewChecker(inventoryRepo, sender, cfg.AdminEmail)

	authMW := middleware.NewAuth(tokens, userRepo)
	authHandler := handlers.NewAuthHandler(userRepo, tokens, sender, cfg.FrontendURL)
	inventoryHandler := handlers.NewInventoryHandler(inventoryRepo, movementRepo)
	orderHandler := handlers.NewOrderHandler(orderRepo, sender, checker, inventoryRepo)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 * * * *", checker.RunScheduled); err != nil {
		log.Fatalf("failed to schedule stock check: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","message":"server is running"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Put("/verifyemail", authHandler.VerifyEmail)
		r.Post("/forgotpassword", authHandler.ForgotPassword)
		r.Put("/resetpassword", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Protect)
			r.Get("/me", authHandler.Me)
		})
	})

	r.Route("/api/inventory", func(r chi.Router) {
		r.Use(authMW.Protect)

		r.Get("/", inventoryHandler.GetAll)
		r.Get("/available", inventoryHandler.GetAvailable)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireRole(models.RoleAdmin))

			r.Get("/low-stock/list", inventoryHandler.GetLowStock)
			r.Post("/", inventoryHandler.Create)
			r.Put("/{id}", inventoryHandler.Update)
			r.Delete("/{id}", inventoryHandler.Delete)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMW.Protect)

		r.Post("/", orderHandler.Create)
		r.Get("/my-orders", orderHandler.GetMyOrders)
		r.Get("/{id}", orderHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireRole(models.RoleAdmin))

			r.Get("/", orderHandler.GetAll)
			r.Put("/{id}/status", orderHandler.UpdateStatus)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}

	log.Println("Server exited properly")
}
