package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	// Decoders for background images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

// Loader loads a background image from a reference (a data URL or an http(s) URL).
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ref string) (image.Image, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, ref string) (image.Image, error) {
	return f(ctx, ref)
}

// maxBackgroundBytes bounds the size of a fetched background image.
const maxBackgroundBytes = 32 << 20

// DefaultLoader decodes data URLs in place and fetches anything else over HTTP.
type DefaultLoader struct {
	// Client used for http(s) references. If nil, http.DefaultClient is used.
	Client *http.Client
}

// Load implements Loader.
func (l DefaultLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	var data []byte
	if IsDataURL(ref) {
		var err error
		if _, data, err = DecodeDataURL(ref); err != nil {
			return nil, err
		}
	} else {
		if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
			return nil, fmt.Errorf("unsupported image reference %q", truncateRef(ref))
		}
		var err error
		if data, err = l.fetch(ctx, ref); err != nil {
			return nil, err
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding background image: %w", err)
	}
	klog.V(2).Infof("Loaded %s background %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func (l DefaultLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching background image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching background image: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBackgroundBytes))
}

// loadWithTimeout runs the loader with a deadline. The loader runs in its own goroutine, so a
// loader that ignores its context still cannot block the caller past the timeout.
func loadWithTimeout(ctx context.Context, loader Loader, ref string, timeout time.Duration) (image.Image, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := loader.Load(ctx, ref)
		done <- result{img, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w after %s", ErrBackgroundUnavailable, ErrLoadTimeout, timeout)
			}
			return nil, fmt.Errorf("%w: %w", ErrBackgroundUnavailable, r.err)
		}
		if r.img == nil || r.img.Bounds().Empty() {
			return nil, fmt.Errorf("%w: empty image", ErrBackgroundUnavailable)
		}
		return r.img, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w after %s", ErrBackgroundUnavailable, ErrLoadTimeout, timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrBackgroundUnavailable, ctx.Err())
	}
}

func truncateRef(ref string) string {
	if len(ref) > 48 {
		return ref[:48] + "..."
	}
	return ref
}
