package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCatalogCacheUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	cache := NewCatalogCache(client, time.Minute)

	ctx := context.Background()
	assert.Error(t, cache.SetMemes(ctx, []entity.CatalogMeme{{ID: "1"}}))

	memes, err := cache.GetMemes(ctx)
	assert.Error(t, err)
	assert.Nil(t, memes)
}
