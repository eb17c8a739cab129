package database

import (
	"io"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/storage"
)

type ExportRepository interface {
	Save(export *entity.Export) error
	FindByID(id string) (*entity.Export, error)
	Delete(id string) error
	SaveFile(id string, format string, file io.Reader) error
	GetFile(id string, format string) (io.ReadCloser, error)
	GetFilePath(id string, format string) string
}

type fileExportRepository struct {
	storage storage.FileStorage
}
