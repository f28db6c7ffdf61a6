package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

type InventoryHandler struct {
	repo      repository.InventoryRepository
	movements repository.MovementRepository
}

func NewInventoryHandler(repo repository.InventoryRepository, movements repository.MovementRepository) *InventoryHandler {
	return &InventoryHandler{repo: repo, movements: movements}
}

type InventoryCreateRequest struct {
	Category  string  `json:"category" validate:"required,oneof=base sauce cheese veggie meat"`
	Name      string  `json:"name" validate:"required,min=1,max=100"`
	Quantity  int     `json:"quantity" validate:"gte=0"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	Threshold int     `json:"threshold" validate:"gte=0"`
}

// InventoryUpdateRequest carries a partial update; nil fields are left as-is.
type InventoryUpdateRequest struct {
	Quantity  *int     `json:"quantity" validate:"omitempty,gte=0"`
	Price     *float64 `json:"price" validate:"omitempty,gt=0"`
	Threshold *int     `json:"threshold" validate:"omitempty,gt=0"`
}

func itemIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := chi.URLParam(r, "id")

	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid item id", nil)
		return 0, false
	}
	return id, true
}

func (h *InventoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.GetAll(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// AvailableInventory groups in-stock items for the pizza builder.
type AvailableInventory struct {
	Bases   []models.InventoryItem `json:"bases"`
	Sauces  []models.InventoryItem `json:"sauces"`
	Cheeses []models.InventoryItem `json:"cheeses"`
	Veggies []models.InventoryItem `json:"veggies"`
	Meats   []models.InventoryItem `json:"meats"`
}

func (h *InventoryHandler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.GetAvailable(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	organized := AvailableInventory{
		Bases:   []models.InventoryItem{},
		Sauces:  []models.InventoryItem{},
		Cheeses: []models.InventoryItem{},
		Veggies: []models.InventoryItem{},
		Meats:   []models.InventoryItem{},
	}

	for _, item := range items {
		switch item.Category {
		case models.CategoryBase:
			organized.Bases = append(organized.Bases, item)
		case models.CategorySauce:
			organized.Sauces = append(organized.Sauces, item)
		case models.CategoryCheese:
			organized.Cheeses = append(organized.Cheeses, item)
		case models.CategoryVeggie:
			organized.Veggies = append(organized.Veggies, item)
		case models.CategoryMeat:
			organized.Meats = append(organized.Meats, item)
		}
	}

	writeJSON(w, http.StatusOK, organized)
}

func (h *InventoryHandler) GetLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.GetLowStock(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req InventoryCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "category, name and a positive price are required", nil)
		return
	}

	item := &models.InventoryItem{
		Category:  req.Category,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Threshold: req.Threshold,
	}

	if err := h.repo.Create(r.Context(), item); err != nil {
		writeRepoError(w, err)
		return
	}

	if item.Quantity > 0 {
		h.recordMovement(r, item.ItemID, models.MovementRestock, item.Quantity)
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	var req InventoryUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "quantity, price and threshold must be positive when provided", nil)
		return
	}

	item, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	oldQuantity := item.Quantity

	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Threshold != nil {
		item.Threshold = *req.Threshold
	}

	if item.Quantity > oldQuantity {
		item.LastRestocked = time.Now()
	}

	if err := h.repo.Update(r.Context(), item); err != nil {
		writeRepoError(w, err)
		return
	}

	if change := item.Quantity - oldQuantity; change != 0 {
		movementType := models.MovementAdjustment
		if change > 0 {
			movementType = models.MovementRestock
		}
		h.recordMovement(r, item.ItemID, movementType, change)
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "item deleted successfully",
	})
}

// recordMovement keeps the audit trail; a failed insert is logged, not
// surfaced, so admin edits never fail on bookkeeping.
func (h *InventoryHandler) recordMovement(r *http.Request, itemID int, movementType string, change int) {
	movement := &models.StockMovement{
		ItemID:       itemID,
		MovementType: movementType,
		Change:       change,
	}
	if err := h.movements.Create(r.Context(), movement); err != nil {
		log.Printf("failed to record stock movement for item %d: %v", itemID, err)
	}
}
