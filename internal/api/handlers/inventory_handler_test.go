package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizza-backend/internal/api/middleware"
	"pizza-backend/internal/auth"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

type fakeInventoryRepo struct {
	nextID int
	items  map[int]*models.InventoryItem
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: make(map[int]*models.InventoryItem)}
}

func (f *fakeInventoryRepo) Create(_ context.Context, item *models.InventoryItem) error {
	for _, existing := range f.items {
		if existing.Category == item.Category && existing.Name == item.Name {
			return fmt.Errorf("%w: %s '%s' already exists", repository.ErrDuplicate, item.Category, item.Name)
		}
	}

	f.nextID++
	item.ItemID = f.nextID
	if item.Threshold == 0 {
		item.Threshold = models.DefaultThreshold
	}

	cp := *item
	f.items[item.ItemID] = &cp
	return nil
}

func (f *fakeInventoryRepo) GetByID(_ context.Context, id int) (*models.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %d", repository.ErrNotFound, id)
	}
	cp := *item
	return &cp, nil
}

func (f *fakeInventoryRepo) list(filter func(*models.InventoryItem) bool) []models.InventoryItem {
	ids := make([]int, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	items := make([]models.InventoryItem, 0, len(ids))
	for _, id := range ids {
		if filter(f.items[id]) {
			items = append(items, *f.items[id])
		}
	}
	return items
}

func (f *fakeInventoryRepo) GetAll(context.Context) ([]models.InventoryItem, error) {
	return f.list(func(*models.InventoryItem) bool { return true }), nil
}

func (f *fakeInventoryRepo) GetAvailable(context.Context) ([]models.InventoryItem, error) {
	return f.list(func(i *models.InventoryItem) bool { return i.Quantity > 0 }), nil
}

func (f *fakeInventoryRepo) GetLowStock(context.Context) ([]models.InventoryItem, error) {
	return f.list(func(i *models.InventoryItem) bool { return i.LowStock() }), nil
}

func (f *fakeInventoryRepo) Update(_ context.Context, item *models.InventoryItem) error {
	if _, ok := f.items[item.ItemID]; !ok {
		return fmt.Errorf("%w: item %d", repository.ErrNotFound, item.ItemID)
	}
	cp := *item
	f.items[item.ItemID] = &cp
	return nil
}

func (f *fakeInventoryRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.items[id]; !ok {
		return fmt.Errorf("%w: item %d", repository.ErrNotFound, id)
	}
	delete(f.items, id)
	return nil
}

type fakeMovementRepo struct {
	movements []models.StockMovement
}

func (f *fakeMovementRepo) Create(_ context.Context, movement *models.StockMovement) error {
	movement.MovementID = len(f.movements) + 1
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeMovementRepo) GetByItemID(_ context.Context, itemID int) ([]models.StockMovement, error) {
	var out []models.StockMovement
	for _, m := range f.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) GetByOrderID(_ context.Context, orderID int) ([]models.StockMovement, error) {
	var out []models.StockMovement
	for _, m := range f.movements {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

type inventoryTestStack struct {
	repo      *fakeInventoryRepo
	movements *fakeMovementRepo
	router    http.Handler

	customerToken string
	adminToken    string
}

func newInventoryTestStack(t *testing.T) *inventoryTestStack {
	t.Helper()

	users := newFakeUserRepo()
	tokens := auth.NewTokenManager("test-secret", 3600)

	customer := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}
	require.NoError(t, users.Create(context.Background(), customer))
	admin := &models.User{Name: "Boss", Email: "boss@example.com", Role: models.RoleAdmin}
	require.NoError(t, users.Create(context.Background(), admin))

	customerToken, err := tokens.Issue(customer.UserID, customer.Role)
	require.NoError(t, err)
	adminToken, err := tokens.Issue(admin.UserID, admin.Role)
	require.NoError(t, err)

	repo := newFakeInventoryRepo()
	movements := &fakeMovementRepo{}
	h := NewInventoryHandler(repo, movements)
	authMW := middleware.NewAuth(tokens, users)

	r := chi.NewRouter()
	r.Route("/api/inventory", func(r chi.Router) {
		r.Use(authMW.Protect)

		r.Get("/", h.GetAll)
		r.Get("/available", h.GetAvailable)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireRole(models.RoleAdmin))

			r.Get("/low-stock/list", h.GetLowStock)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})

	return &inventoryTestStack{
		repo:          repo,
		movements:     movements,
		router:        r,
		customerToken: customerToken,
		adminToken:    adminToken,
	}
}

func (s *inventoryTestStack) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = jsonRequest(t, method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *inventoryTestStack) seed(t *testing.T, category, name string, quantity int, price float64, threshold int) int {
	t.Helper()

	item := &models.InventoryItem{Category: category, Name: name, Quantity: quantity, Price: price, Threshold: threshold}
	require.NoError(t, s.repo.Create(context.Background(), item))
	return item.ItemID
}

func TestCreateInventoryItem(t *testing.T) {
	s := newInventoryTestStack(t)

	req := InventoryCreateRequest{Category: "cheese", Name: "Gouda", Quantity: 40, Price: 2.50, Threshold: 15}

	t.Run("customer forbidden", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/inventory/", s.customerToken, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin creates", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/inventory/", s.adminToken, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var item models.InventoryItem
		decodeBody(t, rec, &item)
		assert.NotZero(t, item.ItemID)
		assert.Equal(t, 40, item.Quantity)

		// Initial stock shows up in the movement ledger.
		recorded, err := s.movements.GetByItemID(context.Background(), item.ItemID)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, models.MovementRestock, recorded[0].MovementType)
		assert.Equal(t, 40, recorded[0].Change)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/inventory/", s.adminToken, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		bad := req
		bad.Category = "dessert"
		rec := s.do(t, http.MethodPost, "/api/inventory/", s.adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetAvailableGroupsByCategory(t *testing.T) {
	s := newInventoryTestStack(t)

	s.seed(t, models.CategoryBase, "Thin Crust", 50, 5.00, 20)
	s.seed(t, models.CategoryCheese, "Mozzarella", 30, 2.00, 10)
	s.seed(t, models.CategoryCheese, "Feta", 0, 2.75, 10)

	rec := s.do(t, http.MethodGet, "/api/inventory/available", s.customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var organized AvailableInventory
	decodeBody(t, rec, &organized)

	require.Len(t, organized.Bases, 1)
	assert.Equal(t, "Thin Crust", organized.Bases[0].Name)

	// Out-of-stock Feta is hidden from the builder.
	require.Len(t, organized.Cheeses, 1)
	assert.Equal(t, "Mozzarella", organized.Cheeses[0].Name)

	assert.Empty(t, organized.Sauces)
	assert.Empty(t, organized.Veggies)
	assert.Empty(t, organized.Meats)
}

func TestLowStockListIsAdminOnly(t *testing.T) {
	s := newInventoryTestStack(t)

	s.seed(t, models.CategoryMeat, "Pepperoni", 10, 3.00, 10)
	s.seed(t, models.CategoryMeat, "Ham", 50, 3.00, 10)

	rec := s.do(t, http.MethodGet, "/api/inventory/low-stock/list", s.customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/inventory/low-stock/list", s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.InventoryItem
	decodeBody(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Pepperoni", items[0].Name)
}

func TestUpdateInventoryItem(t *testing.T) {
	intp := func(v int) *int { return &v }
	floatp := func(v float64) *float64 { return &v }

	t.Run("restock bumps last_restocked and records movement", func(t *testing.T) {
		s := newInventoryTestStack(t)
		id := s.seed(t, models.CategoryVeggie, "Onions", 5, 0.75, 20)

		rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/inventory/%d", id), s.adminToken,
			InventoryUpdateRequest{Quantity: intp(60)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var item models.InventoryItem
		decodeBody(t, rec, &item)
		assert.Equal(t, 60, item.Quantity)
		assert.False(t, item.LastRestocked.IsZero())

		recorded, err := s.movements.GetByItemID(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, models.MovementRestock, recorded[0].MovementType)
		assert.Equal(t, 55, recorded[0].Change)
	})

	t.Run("shrink records an adjustment", func(t *testing.T) {
		s := newInventoryTestStack(t)
		id := s.seed(t, models.CategoryVeggie, "Onions", 50, 0.75, 20)

		rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/inventory/%d", id), s.adminToken,
			InventoryUpdateRequest{Quantity: intp(30)})
		require.Equal(t, http.StatusOK, rec.Code)

		recorded, err := s.movements.GetByItemID(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, models.MovementAdjustment, recorded[0].MovementType)
		assert.Equal(t, -20, recorded[0].Change)
	})

	t.Run("price-only update leaves quantity and ledger alone", func(t *testing.T) {
		s := newInventoryTestStack(t)
		id := s.seed(t, models.CategoryVeggie, "Onions", 50, 0.75, 20)

		rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/inventory/%d", id), s.adminToken,
			InventoryUpdateRequest{Price: floatp(0.95)})
		require.Equal(t, http.StatusOK, rec.Code)

		var item models.InventoryItem
		decodeBody(t, rec, &item)
		assert.Equal(t, 50, item.Quantity)
		assert.InDelta(t, 0.95, item.Price, 0.001)

		recorded, err := s.movements.GetByItemID(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, recorded)
	})

	t.Run("missing item", func(t *testing.T) {
		s := newInventoryTestStack(t)

		rec := s.do(t, http.MethodPut, "/api/inventory/999", s.adminToken,
			InventoryUpdateRequest{Quantity: intp(10)})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		s := newInventoryTestStack(t)
		id := s.seed(t, models.CategoryVeggie, "Onions", 50, 0.75, 20)

		rec := s.do(t, http.MethodPut, fmt.Sprintf("/api/inventory/%d", id), s.adminToken,
			InventoryUpdateRequest{Quantity: intp(-1)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteInventoryItem(t *testing.T) {
	s := newInventoryTestStack(t)
	id := s.seed(t, models.CategorySauce, "Pesto", 10, 1.75, 20)

	rec := s.do(t, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", id), s.customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", id), s.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", id), s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
