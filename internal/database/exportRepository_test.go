package database

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRepository(t *testing.T) {
	repo := NewExportRepository(storage.NewFileStorage(t.TempDir()))

	export := &entity.Export{
		ID:        "e1",
		SessionID: "s1",
		Name:      "funky-meme.png",
		Width:     400,
		Height:    300,
		Status:    entity.ExportStatusStored,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.Save(export))
	require.NoError(t, repo.SaveFile("e1", FormatOriginal, strings.NewReader("png")))
	require.NoError(t, repo.SaveFile("e1", "thumbnail", strings.NewReader("thumb")))

	got, err := repo.FindByID("e1")
	require.NoError(t, err)
	assert.Equal(t, export, got)

	r, err := repo.GetFile("e1", FormatOriginal)
	require.NoError(t, err)
	data, _ := io.ReadAll(r)
	r.Close()
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "processed/e1/thumbnail.png", repo.GetFilePath("e1", "thumbnail"))

	require.NoError(t, repo.Delete("e1"))
	got, err = repo.FindByID("e1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, repo.Delete("never-existed"))
}
