package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/memeditor/internal/database"
	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/compositor"
	"github.com/ds124wfegd/memeditor/internal/pkg/kafka"
	"github.com/ds124wfegd/memeditor/internal/pkg/storage"
	"github.com/ds124wfegd/memeditor/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	err error
}

func (s stubCatalog) Fetch(context.Context) ([]entity.CatalogMeme, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []entity.CatalogMeme{{ID: "1", Name: "Drake", URL: "https://i.example/drake.png", Width: 200, Height: 100}}, nil
}

func (s stubCatalog) Random(ctx context.Context) (entity.CatalogMeme, error) {
	memes, err := s.Fetch(ctx)
	if err != nil {
		return entity.CatalogMeme{}, err
	}
	return memes[0], nil
}

type stubFetcher struct{}

func (stubFetcher) FetchImage(_ context.Context, url string) (image.Image, error) {
	if url != "https://i.example/drake.png" {
		return nil, entity.ErrFetch
	}
	return testImage(200, 100), nil
}

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 40, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	return img
}

func newRouter(t *testing.T, catalog stubCatalog) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := database.NewExportRepository(storage.NewFileStorage(t.TempDir()))
	editorService := service.NewEditorService(
		compositor.New(compositor.NewFonts(), compositor.DefaultConfig()),
		catalog, stubFetcher{}, repo, kafka.NewMockProducer(),
		service.Options{MaxUploadBytes: 5 * 1024 * 1024, DownloadName: "funky-meme.png"},
	)
	return InitRoutes(
		NewEditorHandler(editorService),
		NewCatalogHandler(service.NewCatalogService(catalog)),
		5*time.Second,
	)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine, mode entity.Mode) entity.SessionSnapshot {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/sessions", entity.CreateSessionRequest{Mode: mode})
	require.Equal(t, http.StatusCreated, w.Code)
	var snap entity.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	router := newRouter(t, stubCatalog{})
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestUploadImage(t *testing.T) {
	router := newRouter(t, stubCatalog{})
	snap := createSession(t, router, entity.ModeFree)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, testImage(64, 32)))

	tests := []struct {
		name       string
		field      string
		data       []byte
		wantStatus int
	}{
		{"valid png", "image", img.Bytes(), http.StatusOK},
		{"wrong field", "file", img.Bytes(), http.StatusBadRequest},
		{"garbage", "image", []byte("nope"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, err := mw.CreateFormFile(tt.field, "meme.png")
			require.NoError(t, err)
			_, err = part.Write(tt.data)
			require.NoError(t, err)
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/sessions/"+snap.ID+"/image", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestEditingFlow(t *testing.T) {
	router := newRouter(t, stubCatalog{})
	snap := createSession(t, router, entity.ModeBanner)
	base := "/sessions/" + snap.ID

	w := doJSON(t, router, http.MethodPost, base+"/export", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, base+"/image/random", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPut, base+"/text", entity.Texts{Top: "ONE DOES NOT", Bottom: "SIMPLY"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPut, base+"/style", entity.TextStyle{
		FontColor: "#FFFF00", StrokeColor: "#000", FontScale: 60, FontFamily: "Impact", Filter: "grayscale(100%)",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPut, base+"/style", entity.TextStyle{
		FontColor: "yellow-ish", StrokeColor: "#000", FontScale: 60, FontFamily: "Impact", Filter: "none",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, base+"/canvas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = doJSON(t, router, http.MethodPost, base+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "funky-meme.png")
	assert.NotEmpty(t, w.Header().Get("X-Export-ID"))

	w = doJSON(t, router, http.MethodPost, base+"/export", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, base+"/pointer", entity.PointerEvent{Type: entity.PointerDown, X: 10, Y: 10})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPut, base+"/mode", entity.ModeRequest{Mode: entity.ModeFree})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reset entity.SessionSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reset))
	assert.False(t, reset.HasImage)

	w = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestValidation(t *testing.T) {
	router := newRouter(t, stubCatalog{})
	snap := createSession(t, router, entity.ModeFree)
	base := "/sessions/" + snap.ID

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"bad mode", http.MethodPut, base + "/mode", gin.H{"mode": "diagonal"}, http.StatusBadRequest},
		{"bad pointer type", http.MethodPost, base + "/pointer", gin.H{"type": "click"}, http.StatusBadRequest},
		{"bad url", http.MethodPost, base + "/image/url", gin.H{"url": "not a url"}, http.StatusBadRequest},
		{"unreachable url", http.MethodPost, base + "/image/url", gin.H{"url": "https://i.example/missing.png"}, http.StatusBadGateway},
		{"unknown session", http.MethodGet, "/sessions/nope", nil, http.StatusNotFound},
		{"create with bad mode", http.MethodPost, "/sessions", gin.H{"mode": "diagonal"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestCatalog(t *testing.T) {
	w := doJSON(t, newRouter(t, stubCatalog{}), http.MethodGet, "/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp entity.CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Memes, 1)

	w = doJSON(t, newRouter(t, stubCatalog{err: entity.ErrFetch}), http.MethodGet, "/catalog", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrSessionNotFound, http.StatusNotFound},
		{entity.ErrSessionLimit, http.StatusServiceUnavailable},
		{entity.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{entity.ErrImageDecode, http.StatusUnprocessableEntity},
		{entity.ErrFetch, http.StatusBadGateway},
		{entity.ErrNoChangeToExport, http.StatusConflict},
		{entity.ErrInvalidStyle, http.StatusBadRequest},
		{entity.ErrInvalidInput, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
