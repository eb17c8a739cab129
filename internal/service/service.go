package service

import (
	"context"
	"image"
	"mime/multipart"
	"sync"
	"time"

	"github.com/ds124wfegd/memeditor/internal/database"
	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/editor"
	"github.com/ds124wfegd/memeditor/internal/pkg/kafka"
	"github.com/ds124wfegd/memeditor/internal/pkg/source"
)

type EditorService interface {
	CreateSession(mode entity.Mode) (entity.SessionSnapshot, error)
	GetSession(id string) (entity.SessionSnapshot, error)
	DeleteSession(id string) error

	LoadUpload(ctx context.Context, id string, file *multipart.FileHeader) (entity.SessionSnapshot, error)
	LoadRandom(ctx context.Context, id string) (entity.SessionSnapshot, error)
	LoadURL(ctx context.Context, id string, url string) (entity.SessionSnapshot, error)

	SetTexts(id string, texts entity.Texts) (entity.SessionSnapshot, error)
	SetStyle(id string, style entity.TextStyle) (entity.SessionSnapshot, error)
	SetMode(id string, mode entity.Mode) (entity.SessionSnapshot, error)
	Pointer(id string, ev entity.PointerEvent) (entity.SessionSnapshot, error)
	Reset(id string) (entity.SessionSnapshot, error)

	Canvas(id string) ([]byte, error)
	Export(ctx context.Context, id string) (*ExportResult, error)

	// EvictIdle drops sessions unused for longer than the session TTL and
	// returns how many were dropped.
	EvictIdle() int
	// RunJanitor calls EvictIdle every interval until ctx is done.
	RunJanitor(ctx context.Context, interval time.Duration)
}

type CatalogService interface {
	List(ctx context.Context) ([]entity.CatalogMeme, error)
}

// CatalogSource is implemented by source.CatalogClient.
type CatalogSource interface {
	Fetch(ctx context.Context) ([]entity.CatalogMeme, error)
	Random(ctx context.Context) (entity.CatalogMeme, error)
}

// ImageFetcher is implemented by source.Fetcher.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

type Options struct {
	MaxUploadBytes int64
	DownloadName   string
	JitterMax      float64
	JitterSeed     uint64
	// SessionTTL is the idle time after which a session is evicted; zero keeps
	// sessions until deleted.
	SessionTTL time.Duration
	// MaxImagePixels bounds decoded uploads; zero uses source.MaxImagePixels.
	MaxImagePixels int64
	// MaxSessions caps live sessions; zero means no cap.
	MaxSessions int
	// Now defaults to time.Now.
	Now func() time.Time
}

// ExportResult is a stored export together with the bytes to download.
type ExportResult struct {
	Export   *entity.Export
	Filename string
	Data     []byte
}

type editorService struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	renderer editor.Renderer
	catalog  CatalogSource
	fetcher  ImageFetcher
	repo     database.ExportRepository
	producer kafka.Producer
	opts     Options
}

type sessionEntry struct {
	sess     *editor.Session
	lastUsed time.Time
}

func NewEditorService(renderer editor.Renderer, catalog CatalogSource, fetcher ImageFetcher,
	repo database.ExportRepository, producer kafka.Producer, opts Options) EditorService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxImagePixels == 0 {
		opts.MaxImagePixels = source.MaxImagePixels
	}
	return &editorService{
		sessions: make(map[string]*sessionEntry),
		renderer: renderer,
		catalog:  catalog,
		fetcher:  fetcher,
		repo:     repo,
		producer: producer,
		opts:     opts,
	}
}

type catalogService struct {
	catalog CatalogSource
}

func NewCatalogService(catalog CatalogSource) CatalogService {
	return &catalogService{catalog: catalog}
}
