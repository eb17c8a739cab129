package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/sirupsen/logrus"
)

// CatalogCache stores the parsed catalog between fetches.
type CatalogCache interface {
	GetMemes(ctx context.Context) ([]entity.CatalogMeme, error)
	SetMemes(ctx context.Context, memes []entity.CatalogMeme) error
}

type CatalogClient struct {
	url    string
	client *http.Client
	cache  CatalogCache
	pick   func(n int) int
}

type CatalogOption func(*CatalogClient)

func WithCache(cache CatalogCache) CatalogOption {
	return func(c *CatalogClient) { c.cache = cache }
}

// WithPicker replaces the uniform random index choice.
func WithPicker(pick func(n int) int) CatalogOption {
	return func(c *CatalogClient) { c.pick = pick }
}

func NewCatalogClient(url string, client *http.Client, opts ...CatalogOption) *CatalogClient {
	if client == nil {
		client = http.DefaultClient
	}
	c := &CatalogClient{url: url, client: client, pick: rand.IntN}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the catalog, from cache when available.
func (c *CatalogClient) Fetch(ctx context.Context) ([]entity.CatalogMeme, error) {
	if c.cache != nil {
		if memes, err := c.cache.GetMemes(ctx); err == nil && len(memes) > 0 {
			return memes, nil
		}
	}

	memes, err := c.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetMemes(ctx, memes); err != nil {
			logrus.WithError(err).Warn("failed to cache meme catalog")
		}
	}
	return memes, nil
}

func (c *CatalogClient) fetchRemote(ctx context.Context) ([]entity.CatalogMeme, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: catalog status %d", entity.ErrFetch, resp.StatusCode)
	}

	var body entity.CatalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %v", entity.ErrFetch, err)
	}

	memes := make([]entity.CatalogMeme, 0, len(body.Data.Memes))
	for _, m := range body.Data.Memes {
		if m.URL != "" {
			memes = append(memes, m)
		}
	}
	if len(memes) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", entity.ErrFetch)
	}
	return memes, nil
}

// Random picks one catalog entry uniformly at random.
func (c *CatalogClient) Random(ctx context.Context) (entity.CatalogMeme, error) {
	memes, err := c.Fetch(ctx)
	if err != nil {
		return entity.CatalogMeme{}, err
	}
	return memes[c.pick(len(memes))], nil
}
