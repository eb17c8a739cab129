package entity

import "time"

const (
	ExportStatusStored   = "stored"
	ExportStatusArchived = "archived"
)

// Export is the metadata kept for every successful export.
type Export struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Name      string            `json:"name"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Size      int               `json:"size"`
	Status    string            `json:"status"`
	Formats   map[string]string `json:"formats,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ExportEvent is published after an export is stored.
type ExportEvent struct {
	ExportID  string `json:"export_id"`
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}
