package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

const (
	allKey       = "inventory:all"
	availableKey = "inventory:available"
	lowStockKey  = "inventory:lowstock"
)

// CachedInventoryRepository is a read-through cache in front of the real
// inventory repository. Redis failures are logged and fall back to the
// database; the menu tolerates stale reads for the short TTL.
type CachedInventoryRepository struct {
	realRepo repository.InventoryRepository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedInventoryRepository(realRepo repository.InventoryRepository, redis *redis.Client) *CachedInventoryRepository {
	return &CachedInventoryRepository{
		realRepo: realRepo,
		redis:    redis,
		ttl:      1 * time.Minute,
	}
}

func (c *CachedInventoryRepository) GetByID(ctx context.Context, id int) (*models.InventoryItem, error) {
	key := fmt.Sprintf("inventory:item:%d", id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == "notfound" {
			return nil, repository.ErrNotFound
		}

		var item models.InventoryItem
		if err := json.Unmarshal(data, &item); err != nil {
			log.Printf("Failed to unmarshal cached item (continuing with DB): %v", err)
			break
		}

		return &item, nil

	case errors.Is(err, redis.Nil):

	default:
		log.Printf("Redis error (continuing with DB): %v", err)
	}

	item, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, "notfound", 30*time.Second).Err(); setErr != nil {
				log.Printf("Failed to cache notfound: %v", setErr)
			}
		}
		return nil, err
	}

	c.set(ctx, key, item)

	return item, nil
}

func (c *CachedInventoryRepository) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	return c.getList(ctx, allKey, c.realRepo.GetAll)
}

func (c *CachedInventoryRepository) GetAvailable(ctx context.Context) ([]models.InventoryItem, error) {
	return c.getList(ctx, availableKey, c.realRepo.GetAvailable)
}

// GetLowStock goes straight to the database: the low-stock scan decides
// whether to page an operator, and a stale answer either spams or misses.
func (c *CachedInventoryRepository) GetLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return c.realRepo.GetLowStock(ctx)
}

func (c *CachedInventoryRepository) getList(ctx context.Context, key string, load func(context.Context) ([]models.InventoryItem, error)) ([]models.InventoryItem, error) {
	data, err := c.redis.Get(ctx, key).Bytes()

	if err == nil {
		var items []models.InventoryItem
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		log.Printf("Failed to unmarshal cached list %s (continuing with DB)", key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("Redis error: %v (continuing with DB)", err)
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, items)

	return items, nil
}

func (c *CachedInventoryRepository) set(ctx context.Context, key string, v interface{}) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal for cache key %s: %v", key, err)
		return
	}

	if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		log.Printf("Failed to cache %s: %v", key, err)
	}
}

// Invalidate drops the cached lists and one item entry. Called after admin
// edits and after order placement, which decrements stock outside this
// decorator.
func (c *CachedInventoryRepository) Invalidate(ctx context.Context, itemIDs ...int) {
	keys := []string{allKey, availableKey, lowStockKey}
	for _, id := range itemIDs {
		keys = append(keys, fmt.Sprintf("inventory:item:%d", id))
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Failed to invalidate inventory cache: %v", err)
	}
}

func (c *CachedInventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	if err := c.realRepo.Create(ctx, item); err != nil {
		return err
	}
	c.Invalidate(ctx, item.ItemID)
	return nil
}

func (c *CachedInventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	if err := c.realRepo.Update(ctx, item); err != nil {
		c.Invalidate(ctx, item.ItemID)
		return err
	}
	c.Invalidate(ctx, item.ItemID)
	return nil
}

func (c *CachedInventoryRepository) Delete(ctx context.Context, id int) error {
	if err := c.realRepo.Delete(ctx, id); err != nil {
		return err
	}
	c.Invalidate(ctx, id)
	return nil
}
