package source

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCheckSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"empty", 0, false},
		{"exactly 5MB", 5 * 1024 * 1024, false},
		{"one byte over", 5*1024*1024 + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSize(tt.size, MaxUploadBytes)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrFileTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, 40, 30)

	img, format, err := Decode(bytes.NewReader(data), MaxUploadBytes)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	_, _, err = Decode(strings.NewReader("definitely not an image"), MaxUploadBytes)
	assert.ErrorIs(t, err, entity.ErrImageDecode)

	_, _, err = Decode(bytes.NewReader(data), int64(len(data)-1))
	assert.ErrorIs(t, err, entity.ErrFileTooLarge)

	_, _, err = Decode(bytes.NewReader(data), int64(len(data)))
	assert.NoError(t, err)
}

// pngWithDimensions returns a valid 1x1 PNG whose header claims w x h.
func pngWithDimensions(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encodePNG(t, 1, 1)
	// signature (8) + length (4) + "IHDR" (4), then width and height
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodePixelBudget(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		maxPixels int64
		wantErr   bool
	}{
		{"within budget", encodePNG(t, 40, 30), 1200, false},
		{"one pixel over", encodePNG(t, 40, 30), 1199, true},
		{"declared huge", pngWithDimensions(t, 30000, 30000), MaxImagePixels, true},
		{"no budget", encodePNG(t, 40, 30), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeBounded(bytes.NewReader(tt.data), MaxUploadBytes, tt.maxPixels)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrImageDecode)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, _, err := Decode(bytes.NewReader(pngWithDimensions(t, 30000, 30000)), MaxUploadBytes)
	assert.ErrorIs(t, err, entity.ErrImageDecode)
}

type memoryCache struct {
	memes []entity.CatalogMeme
	sets  int
}

func (c *memoryCache) GetMemes(context.Context) ([]entity.CatalogMeme, error) {
	if c.memes == nil {
		return nil, errors.New("miss")
	}
	return c.memes, nil
}

func (c *memoryCache) SetMemes(_ context.Context, memes []entity.CatalogMeme) error {
	c.memes = memes
	c.sets++
	return nil
}

const catalogBody = `{"success":true,"data":{"memes":[
	{"id":"1","name":"Drake","url":"https://i.imgflip.com/30b1gx.jpg","width":1200,"height":1200,"box_count":2},
	{"id":"2","name":"Distracted","url":"https://i.imgflip.com/1ur9b0.jpg","width":1200,"height":800,"box_count":3},
	{"id":"3","name":"Broken","url":""}
]}}`

func TestCatalogFetch(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogBody))
	}))
	defer srv.Close()

	cache := &memoryCache{}
	client := NewCatalogClient(srv.URL, srv.Client(), WithCache(cache), WithPicker(func(n int) int { return n - 1 }))

	memes, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, memes, 2, "entries without url are dropped")
	assert.Equal(t, "Drake", memes[0].Name)
	assert.Equal(t, 1, cache.sets)

	meme, err := client.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Distracted", meme.Name)
	assert.Equal(t, 1, hits, "second call is served from cache")
}

func TestCatalogFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":`))
			},
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":{"templates":[]}}`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewCatalogClient(srv.URL, srv.Client()).Random(context.Background())
			assert.ErrorIs(t, err, entity.ErrFetch)
		})
	}

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewCatalogClient(url, nil).Fetch(context.Background())
		assert.ErrorIs(t, err, entity.ErrFetch)
	})
}

func TestFetchImage(t *testing.T) {
	data := encodePNG(t, 64, 48)
	var sawCookie, sawReferer bool

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		sawCookie = r.Header.Get("Cookie") != ""
		sawReferer = r.Header.Get("Referer") != ""
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	})
	mux.HandleFunc("/moved.png", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok.png", http.StatusFound)
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(srv.Client(), MaxUploadBytes, WithPrivateNetworks())

	img, err := f.FetchImage(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	assert.False(t, sawCookie)
	assert.False(t, sawReferer)

	_, err = f.FetchImage(context.Background(), srv.URL+"/moved.png")
	require.NoError(t, err)
	assert.False(t, sawReferer, "redirects must not carry a referrer")

	_, err = f.FetchImage(context.Background(), srv.URL+"/garbage.png")
	assert.ErrorIs(t, err, entity.ErrImageDecode)

	_, err = f.FetchImage(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, entity.ErrImageDecode)

	_, err = f.FetchImage(context.Background(), "ftp://example.com/a.png")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	small := NewFetcher(srv.Client(), 10, WithPrivateNetworks())
	_, err = small.FetchImage(context.Background(), srv.URL+"/ok.png")
	assert.ErrorIs(t, err, entity.ErrFileTooLarge)
}

func TestFetchImageRejectsNonPublicHosts(t *testing.T) {
	f := NewFetcher(nil, MaxUploadBytes)

	for _, u := range []string{
		"http://127.0.0.1:8080/a.png",
		"http://169.254.169.254/latest/meta-data/",
		"http://10.1.2.3/a.png",
		"http://192.168.0.10/a.png",
		"http://[::1]/a.png",
		"http://[::ffff:127.0.0.1]/a.png",
		"http://0.0.0.0/a.png",
		"http://localhost/a.png",
		"http://api.localhost/a.png",
	} {
		t.Run(u, func(t *testing.T) {
			_, err := f.FetchImage(context.Background(), u)
			assert.ErrorIs(t, err, entity.ErrInvalidInput)
		})
	}
}

func TestPublicOnlyTransportBlocksDial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	conn, err := publicOnlyTransport(nil).DialContext(context.Background(), "tcp", srv.Listener.Addr().String())
	if conn != nil {
		conn.Close()
	}
	assert.ErrorIs(t, err, errBlockedAddress)
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"10.0.0.1", false},
		{"172.16.5.4", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::1", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"::ffff:10.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublic(netip.MustParseAddr(tt.addr)))
		})
	}
}
