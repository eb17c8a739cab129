package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/memeditor/internal/entity"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:memes"

type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *CatalogCache) SetMemes(ctx context.Context, memes []entity.CatalogMeme) error {
	data, err := json.Marshal(memes)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, catalogKey, data, r.ttl).Err()
}

func (r *CatalogCache) GetMemes(ctx context.Context) ([]entity.CatalogMeme, error) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		return nil, err
	}

	var memes []entity.CatalogMeme
	if err := json.Unmarshal(data, &memes); err != nil {
		return nil, err
	}

	return memes, nil
}
