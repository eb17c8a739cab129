package service

import (
	"context"

	"github.com/ds124wfegd/memeditor/internal/entity"
)

func (s *catalogService) List(ctx context.Context) ([]entity.CatalogMeme, error) {
	return s.catalog.Fetch(ctx)
}
