package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/model"
)

const (
	// DefaultLogoMaxWidth is the widest logo kept, in pixels.
	DefaultLogoMaxWidth = 400
	maxLogoBytes        = 5 << 20
)

// ErrLogoTooLarge is returned for logo sources over 5 MiB.
var ErrLogoTooLarge = errors.New("logo exceeds 5 MiB")

// LogoResolver turns a logo reference into an embeddable PNG data URI.
type LogoResolver struct {
	Client   *http.Client
	MaxWidth int
	Logger   *zap.Logger
}

// NewLogoResolver returns a resolver with a 10 second HTTP timeout.
func NewLogoResolver(maxWidth int, logger *zap.Logger) *LogoResolver {
	if maxWidth <= 0 {
		maxWidth = DefaultLogoMaxWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogoResolver{
		Client:   &http.Client{Timeout: 10 * time.Second},
		MaxWidth: maxWidth,
		Logger:   logger,
	}
}

// ResolveLogo resolves ref with a default resolver.
func ResolveLogo(ctx context.Context, ref *model.LogoRef) string {
	return NewLogoResolver(0, nil).Resolve(ctx, ref)
}

// Resolve fetches, decodes and downscales the logo and returns it as a PNG
// data URI. Any failure is logged and yields "", meaning no logo.
func (r *LogoResolver) Resolve(ctx context.Context, ref *model.LogoRef) string {
	if ref == nil || (len(ref.Data) == 0 && ref.Source == "") {
		return ""
	}
	uri, err := r.resolve(ctx, ref)
	if err != nil {
		r.Logger.Warn("failed to resolve logo, rendering without it",
			zap.String("source", sourceLabel(ref)), zap.Error(err))
		return ""
	}
	return uri
}

func (r *LogoResolver) resolve(ctx context.Context, ref *model.LogoRef) (string, error) {
	data, err := r.fetch(ctx, ref)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode logo: %w", err)
	}
	if img.Bounds().Dx() > r.MaxWidth {
		img = imaging.Resize(img, r.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode logo: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (r *LogoResolver) fetch(ctx context.Context, ref *model.LogoRef) ([]byte, error) {
	if len(ref.Data) > 0 {
		return ref.Data, nil
	}

	src := strings.TrimSpace(ref.Source)
	switch {
	case strings.HasPrefix(src, "data:"):
		_, data, ok := parseDataURI(src)
		if !ok {
			return nil, errors.New("malformed data URI")
		}
		return data, nil

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, fmt.Errorf("build logo request: %w", err)
		}
		resp, err := r.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch logo: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch logo: unexpected status %s", resp.Status)
		}
		return readLimited(resp.Body)

	default:
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open logo: %w", err)
		}
		defer f.Close()
		return readLimited(f)
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if len(data) > maxLogoBytes {
		return nil, ErrLogoTooLarge
	}
	return data, nil
}

func sourceLabel(ref *model.LogoRef) string {
	if len(ref.Data) > 0 {
		return "memory"
	}
	if strings.HasPrefix(ref.Source, "data:") {
		return "data-uri"
	}
	return ref.Source
}
