package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pizza-backend/internal/mailer"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeUserRepo struct {
	nextID int
	users  map[int]*models.User

	verHash     map[int]string
	verExpire   map[int]time.Time
	resetHash   map[int]string
	resetExpire map[int]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:       make(map[int]*models.User),
		verHash:     make(map[int]string),
		verExpire:   make(map[int]time.Time),
		resetHash:   make(map[int]string),
		resetExpire: make(map[int]time.Time),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range f.users {
		if u.Email == email {
			return fmt.Errorf("%w: email %s is already registered", repository.ErrUserExists, email)
		}
	}

	f.nextID++
	user.UserID = f.nextID
	user.Email = email
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()

	cp := *user
	f.users[user.UserID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", repository.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", repository.ErrNotFound, email)
}

func (f *fakeUserRepo) SetVerificationToken(_ context.Context, userID int, tokenHash string, expire time.Time) error {
	if _, ok := f.users[userID]; !ok {
		return repository.ErrNotFound
	}
	f.verHash[userID] = tokenHash
	f.verExpire[userID] = expire
	return nil
}

func (f *fakeUserRepo) ClearVerificationToken(_ context.Context, userID int) error {
	delete(f.verHash, userID)
	delete(f.verExpire, userID)
	return nil
}

func (f *fakeUserRepo) VerifyByToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	for id, hash := range f.verHash {
		if hash == tokenHash && f.verExpire[id].After(now) {
			delete(f.verHash, id)
			delete(f.verExpire, id)
			f.users[id].IsVerified = true
			cp := *f.users[id]
			return &cp, nil
		}
	}
	return nil, repository.ErrTokenExpired
}

func (f *fakeUserRepo) SetResetToken(_ context.Context, userID int, tokenHash string, expire time.Time) error {
	if _, ok := f.users[userID]; !ok {
		return repository.ErrNotFound
	}
	f.resetHash[userID] = tokenHash
	f.resetExpire[userID] = expire
	return nil
}

func (f *fakeUserRepo) ResetPasswordByToken(_ context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error) {
	for id, hash := range f.resetHash {
		if hash == tokenHash && f.resetExpire[id].After(now) {
			delete(f.resetHash, id)
			delete(f.resetExpire, id)
			f.users[id].PasswordHash = newPasswordHash
			cp := *f.users[id]
			return &cp, nil
		}
	}
	return nil, repository.ErrTokenExpired
}

type stockLine struct {
	quantity int
	price    float64
}

// fakeOrderRepo mirrors the transactional placement semantics: server-side
// pricing, all-or-nothing conditional decrements, forward-only status
// transitions with a history row per change.
type fakeOrderRepo struct {
	nextID int
	orders map[int]*models.Order
	stock  map[models.Ingredient]*stockLine
	users  *fakeUserRepo
}

func newFakeOrderRepo(users *fakeUserRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[int]*models.Order),
		stock:  make(map[models.Ingredient]*stockLine),
		users:  users,
	}
}

func (f *fakeOrderRepo) addStock(category, name string, quantity int, price float64) {
	f.stock[models.Ingredient{Category: category, Name: name}] = &stockLine{quantity: quantity, price: price}
}

func (f *fakeOrderRepo) quantity(category, name string) int {
	line, ok := f.stock[models.Ingredient{Category: category, Name: name}]
	if !ok {
		return 0
	}
	return line.quantity
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	needed := make(map[models.Ingredient]int)
	var total float64
	for _, ing := range order.Pizza.Ingredients() {
		line, ok := f.stock[ing]
		if !ok {
			return fmt.Errorf("%w: %s '%s' is not on the menu", repository.ErrInvalidInput, ing.Category, ing.Name)
		}
		needed[ing]++
		if line.quantity < needed[ing] {
			return fmt.Errorf("%w: %s '%s' is out of stock", repository.ErrNotEnough, ing.Category, ing.Name)
		}
		total += line.price
	}

	for ing, n := range needed {
		f.stock[ing].quantity -= n
	}

	f.nextID++
	now := time.Now()
	order.OrderID = f.nextID
	order.OrderNumber = fmt.Sprintf("ORD%d%d", now.UnixMilli(), f.nextID)
	order.TotalPrice = total
	order.Status = models.StatusReceived
	order.StatusHistory = []models.StatusEntry{{Status: models.StatusReceived, Timestamp: now}}
	order.CreatedAt = now

	cp := *order
	f.orders[order.OrderID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", repository.ErrNotFound, id)
	}

	cp := *o
	if f.users != nil {
		if u, err := f.users.GetByID(ctx, o.UserID); err == nil {
			cp.UserName = u.Name
			cp.UserEmail = u.Email
		}
	}
	return &cp, nil
}

func (f *fakeOrderRepo) GetAll(ctx context.Context) ([]models.Order, error) {
	ids := make([]int, 0, len(f.orders))
	for id := range f.orders {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := f.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (f *fakeOrderRepo) GetByUserID(ctx context.Context, userID int) ([]models.Order, error) {
	all, err := f.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var mine []models.Order
	for _, o := range all {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id int, status string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", repository.ErrNotFound, id)
	}

	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status '%s'", repository.ErrInvalidInput, status)
	}
	if !models.CanTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from '%s' to '%s'", repository.ErrInvalidInput, o.Status, status)
	}

	o.Status = status
	o.StatusHistory = append(o.StatusHistory, models.StatusEntry{Status: status, Timestamp: time.Now()})

	return f.GetByID(ctx, id)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}
