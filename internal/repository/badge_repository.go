package repository

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gamification-service/internal/models"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	catalogCacheKey = "gamify:badge_catalog"
	catalogCacheTTL = 5 * time.Minute
)

// BadgeRepository reads the badge catalog. The catalog is small and changes
// rarely, so reads go through a short-lived Redis cache when one is wired.
type BadgeRepository struct {
	Col   *mongo.Collection
	cache *redis.Client
}

func NewBadgeRepository(db *mongo.Database, cache *redis.Client) *BadgeRepository {
	return &BadgeRepository{Col: db.Collection("badge_definitions"), cache: cache}
}

func (r *BadgeRepository) FindAll(ctx context.Context) ([]models.BadgeDefinition, error) {
	if catalog, ok := r.fromCache(ctx); ok {
		return catalog, nil
	}

	cur, err := r.Col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var catalog []models.BadgeDefinition
	for cur.Next(ctx) {
		var def models.BadgeDefinition
		if err := cur.Decode(&def); err != nil {
			return nil, err
		}
		catalog = append(catalog, def)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	r.toCache(ctx, catalog)
	return catalog, nil
}

func (r *BadgeRepository) Create(ctx context.Context, def *models.BadgeDefinition) error {
	_, err := r.Col.InsertOne(ctx, def)
	if err == nil && r.cache != nil {
		r.cache.Del(ctx, catalogCacheKey)
	}
	return err
}

func (r *BadgeRepository) fromCache(ctx context.Context) ([]models.BadgeDefinition, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var catalog []models.BadgeDefinition
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, false
	}
	return catalog, true
}

func (r *BadgeRepository) toCache(ctx context.Context, catalog []models.BadgeDefinition) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, catalogCacheKey, raw, catalogCacheTTL).Err(); err != nil {
		log.Printf("badge catalog cache write failed: %v", err)
	}
}
