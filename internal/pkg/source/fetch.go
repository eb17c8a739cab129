package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/ds124wfegd/memeditor/internal/entity"
)

var errBlockedAddress = errors.New("address is not publicly routable")

// cgnat is the shared address space of RFC 6598.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// Fetcher downloads remote images anonymously: no cookie jar, no
// credentials in the URL and no referrer, so nothing ties the image to the
// user. Unless private networks are allowed it refuses to connect to
// loopback, private, link-local and other non-public addresses.
type Fetcher struct {
	client       *http.Client
	limit        int64
	maxPixels    int64
	allowPrivate bool
}

type FetcherOption func(*Fetcher)

// WithPrivateNetworks lets the fetcher reach loopback and private addresses.
func WithPrivateNetworks() FetcherOption {
	return func(f *Fetcher) { f.allowPrivate = true }
}

// WithMaxPixels bounds the decoded image area.
func WithMaxPixels(n int64) FetcherOption {
	return func(f *Fetcher) { f.maxPixels = n }
}

func NewFetcher(client *http.Client, limit int64, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	f := &Fetcher{limit: limit, maxPixels: MaxImagePixels}
	for _, opt := range opts {
		opt(f)
	}

	anonymous := *client
	anonymous.Jar = nil
	anonymous.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		req.Header.Del("Referer")
		return nil
	}
	if !f.allowPrivate {
		anonymous.Transport = publicOnlyTransport(client.Transport)
	}
	f.client = &anonymous
	return f
}

// publicOnlyTransport checks every address actually dialled, which also
// covers redirects and DNS names resolving to internal addresses.
func publicOnlyTransport(base http.RoundTripper) *http.Transport {
	var t *http.Transport
	if bt, ok := base.(*http.Transport); ok {
		t = bt.Clone()
	} else {
		t = http.DefaultTransport.(*http.Transport).Clone()
	}
	t.Proxy = nil
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return err
			}
			if !isPublic(addr) {
				return fmt.Errorf("%w: %s", errBlockedAddress, addr)
			}
			return nil
		},
	}
	t.DialContext = dialer.DialContext
	return t
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified() &&
		!cgnat.Contains(addr)
}

func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: image url %q", entity.ErrInvalidInput, rawURL)
	}
	u.User = nil

	if !f.allowPrivate {
		host := u.Hostname()
		if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
			return nil, fmt.Errorf("%w: image url %q", entity.ErrInvalidInput, rawURL)
		}
		if addr, err := netip.ParseAddr(host); err == nil && !isPublic(addr) {
			return nil, fmt.Errorf("%w: image url %q", entity.ErrInvalidInput, rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrFetch, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: image status %d", entity.ErrImageDecode, resp.StatusCode)
	}
	if resp.ContentLength > 0 {
		if err := CheckSize(resp.ContentLength, f.limit); err != nil {
			return nil, err
		}
	}

	img, _, err := DecodeBounded(resp.Body, f.limit, f.maxPixels)
	return img, err
}
