package database

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/storage"
)

const FormatOriginal = "original"

func NewExportRepository(storage storage.FileStorage) ExportRepository {
	return &fileExportRepository{storage: storage}
}

func (r *fileExportRepository) Save(export *entity.Export) error {
	data, err := json.Marshal(export)
	if err != nil {
		return err
	}

	return r.storage.Save(r.getMetadataPath(export.ID), bytes.NewReader(data))
}

// FindByID returns nil, nil when the export does not exist.
func (r *fileExportRepository) FindByID(id string) (*entity.Export, error) {
	reader, err := r.storage.Get(r.getMetadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer reader.Close()

	var export entity.Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return nil, err
	}

	return &export, nil
}

func (r *fileExportRepository) Delete(id string) error {
	for _, path := range []string{
		r.getMetadataPath(id),
		filepath.Join("processed", id),
		filepath.Join("exports", id),
	} {
		if err := r.storage.Delete(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (r *fileExportRepository) SaveFile(id string, format string, file io.Reader) error {
	return r.storage.Save(r.GetFilePath(id, format), file)
}

func (r *fileExportRepository) GetFile(id string, format string) (io.ReadCloser, error) {
	return r.storage.Get(r.GetFilePath(id, format))
}

func (r *fileExportRepository) GetFilePath(id string, format string) string {
	if format == FormatOriginal {
		return filepath.Join("exports", id, "meme.png")
	}
	return filepath.Join("processed", id, format+".png")
}

func (r *fileExportRepository) getMetadataPath(id string) string {
	return filepath.Join("metadata", id+".json")
}
