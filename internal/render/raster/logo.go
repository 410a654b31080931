package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
)

const (
	maxLogoBytes  = 5 << 20
	maxLogoPixels = 4096 * 4096
	maxRedirects  = 3
)

var (
	ErrLogoURLNotAllowed = errors.New("logo: url not allowed")
	ErrLogoTooLarge      = errors.New("logo: image too large")
)

// LogoFetcher loads a logo image by URL.
type LogoFetcher interface {
	Fetch(ctx context.Context, src string) (image.Image, error)
}

// HTTPLogoFetcher downloads logos over https and also accepts base64 data URLs.
// Hosts outside the allow list must resolve to public addresses only.
type HTTPLogoFetcher struct {
	client    *http.Client
	allowed   map[string]struct{}
	maxPixels int
	resolver  *net.Resolver
}

type FetcherOption func(*HTTPLogoFetcher)

// WithAllowedHosts trusts hosts regardless of the addresses they resolve to.
func WithAllowedHosts(hosts ...string) FetcherOption {
	return func(f *HTTPLogoFetcher) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				f.allowed[h] = struct{}{}
			}
		}
	}
}

func WithMaxPixels(n int) FetcherOption {
	return func(f *HTTPLogoFetcher) {
		if n > 0 {
			f.maxPixels = n
		}
	}
}

// NewHTTPLogoFetcher uses client as given when it is not nil; otherwise the
// default client refuses to dial private addresses that are not allow-listed.
func NewHTTPLogoFetcher(client *http.Client, opts ...FetcherOption) *HTTPLogoFetcher {
	f := &HTTPLogoFetcher{
		allowed:   make(map[string]struct{}),
		maxPixels: maxLogoPixels,
		resolver:  net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(f)
	}
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{DialContext: f.guardedDialer().DialContext},
		}
	}
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("logo: too many redirects")
		}
		return f.checkURL(req.Context(), req.URL)
	}
	f.client = &c
	return f
}

func (f *HTTPLogoFetcher) Fetch(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New("logo: empty source")
	}
	if strings.HasPrefix(src, "data:") {
		return f.decodeDataURL(src)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoURLNotAllowed, err)
	}
	if err := f.checkURL(ctx, u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logo: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxLogoBytes {
		return nil, ErrLogoTooLarge
	}
	return f.decode(raw)
}

func (f *HTTPLogoFetcher) checkURL(ctx context.Context, u *url.URL) error {
	if u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrLogoURLNotAllowed, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrLogoURLNotAllowed)
	}
	if f.isAllowed(host) {
		return nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if !publicAddr(addr) {
			return fmt.Errorf("%w: %s", ErrLogoURLNotAllowed, host)
		}
		return nil
	}
	addrs, err := f.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("logo: resolve %s: %w", host, err)
	}
	for _, addr := range addrs {
		if !publicAddr(addr) {
			return fmt.Errorf("%w: %s resolves to %s", ErrLogoURLNotAllowed, host, addr)
		}
	}
	return nil
}

func (f *HTTPLogoFetcher) isAllowed(host string) bool {
	_, ok := f.allowed[host]
	return ok
}

// guardedDialer rejects connections to non-public addresses at dial time, so a
// name that re-resolves after checkURL still cannot reach an internal host.
func (f *HTTPLogoFetcher) guardedDialer() *net.Dialer {
	return &net.Dialer{
		Timeout: 5 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return err
			}
			if publicAddr(addr) || f.isAllowed(addr.Unmap().String()) {
				return nil
			}
			return fmt.Errorf("%w: dial %s", ErrLogoURLNotAllowed, addr)
		},
	}
}

func publicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified() &&
		!sharedAddressSpace.Contains(addr)
}

// 100.64.0.0/10, carrier-grade NAT.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func (f *HTTPLogoFetcher) decodeDataURL(src string) (image.Image, error) {
	idx := strings.Index(src, ";base64,")
	if idx < 0 {
		return nil, errors.New("logo: unsupported data url")
	}
	payload := src[idx+len(";base64,"):]
	if base64.StdEncoding.DecodedLen(len(payload)) > maxLogoBytes {
		return nil, ErrLogoTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("logo: %w", err)
	}
	return f.decode(raw)
}

// decode reads the header first so an oversized bitmap is never allocated.
func (f *HTTPLogoFetcher) decode(raw []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("logo: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > f.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrLogoTooLarge, cfg.Width, cfg.Height)
	}
	return imaging.Decode(bytes.NewReader(raw))
}
