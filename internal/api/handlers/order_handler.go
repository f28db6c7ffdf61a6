package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pizza-backend/internal/api/middleware"
	"pizza-backend/internal/mailer"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
	"pizza-backend/internal/stock"
)

// cacheInvalidator lets the handler drop cached inventory after a placement
// decrements stock underneath the cache.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, itemIDs ...int)
}

type OrderHandler struct {
	repo    repository.OrderRepository
	sender  mailer.Sender
	checker *stock.Checker
	cache   cacheInvalidator
}

func NewOrderHandler(repo repository.OrderRepository, sender mailer.Sender, checker *stock.Checker, cache cacheInvalidator) *OrderHandler {
	return &OrderHandler{
		repo:    repo,
		sender:  sender,
		checker: checker,
		cache:   cache,
	}
}

type OrderCreateRequest struct {
	Pizza     models.Pizza `json:"pizza"`
	PaymentID string       `json:"payment_id"`
	// TotalPrice is accepted for compatibility with older clients but the
	// server reprices every order from the current catalog.
	TotalPrice float64 `json:"total_price"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := chi.URLParam(r, "id")

	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return 0, false
	}
	return id, true
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not authenticated", nil)
		return
	}

	var req OrderCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Pizza.Base == "" || req.Pizza.Sauce == "" || req.Pizza.Cheese == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "base, sauce and cheese are required", nil)
		return
	}

	paymentID := req.PaymentID
	if paymentID == "" {
		paymentID = uuid.NewString()
	}

	order := &models.Order{
		UserID:        user.UserID,
		Pizza:         req.Pizza,
		PaymentID:     paymentID,
		PaymentStatus: models.PaymentCompleted,
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		writeRepoError(w, err)
		return
	}

	if h.cache != nil {
		h.cache.Invalidate(r.Context())
	}

	// Placement already succeeded; a failed scan or alert only gets logged.
	if h.checker != nil {
		if _, err := h.checker.Check(context.WithoutCancel(r.Context())); err != nil {
			log.Printf("post-order stock check failed: %v", err)
		}
	}

	populated, err := h.repo.GetByID(r.Context(), order.OrderID)
	if err != nil {
		// The order exists; fall back to what we already have.
		log.Printf("failed to reload order %d: %v", order.OrderID, err)
		writeJSON(w, http.StatusCreated, order)
		return
	}

	writeJSON(w, http.StatusCreated, populated)
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not authenticated", nil)
		return
	}

	orders, err := h.repo.GetByUserID(r.Context(), user.UserID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.GetAll(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not authenticated", nil)
		return
	}

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if order.UserID != user.UserID && user.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "not authorized to access this order", nil)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	html, err := mailer.OrderStatusEmail(order.UserName, order.OrderNumber, order.Status)
	if err != nil {
		log.Printf("failed to render status email: %v", err)
	} else {
		err := h.sender.Send(r.Context(), mailer.Message{
			To:      order.UserEmail,
			Subject: "Order " + order.OrderNumber + " Status Update",
			HTML:    html,
		})
		if err != nil {
			log.Printf("status email for order %s failed: %v", order.OrderNumber, err)
		}
	}

	writeJSON(w, http.StatusOK, order)
}
