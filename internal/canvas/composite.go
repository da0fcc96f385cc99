package canvas

import (
	"context"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"k8s.io/klog/v2"
)

// Composite returns the buffer with the background, if any, drawn over it with a multiply blend:
// painted colours show through the white areas of the line art and its black outlines stay on top.
// The background is scaled uniformly to fit the buffer and centred, so the result always has the
// buffer's dimensions.
//
// Loading the background is bounded by the surface's load timeout. If it fails, Composite returns
// an error wrapping ErrBackgroundUnavailable instead of an image without the line art.
func (s *Surface) Composite(ctx context.Context) (*image.RGBA, error) {
	s.mu.Lock()
	snapshot, err := s.snapshotLocked()
	background, loader, timeout := s.background, s.loader, s.loadTimeout
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if background == "" {
		return snapshot, nil
	}

	// The buffer lock is not held while loading: the child may keep painting, the export
	// uses the pixels as they were when it was requested.
	bg, err := loadWithTimeout(ctx, loader, background, timeout)
	if err != nil {
		klog.Errorf("Canvas export: %v", err)
		return nil, err
	}
	return multiplyFit(snapshot, bg), nil
}

// ExportComposite is Composite encoded as a PNG data URL, ready to be recorded in the gallery.
func (s *Surface) ExportComposite(ctx context.Context) (string, error) {
	img, err := s.Composite(ctx)
	if err != nil {
		return "", err
	}
	return EncodePNGDataURL(img)
}

// multiplyFit multiplies bg, aspect-fitted and centred, over a copy of base.
func multiplyFit(base *image.RGBA, bg image.Image) *image.RGBA {
	width, height := base.Bounds().Dx(), base.Bounds().Dy()
	x, y, w, h := FitRect(bg.Bounds().Dx(), bg.Bounds().Dy(), width, height)

	// Flatten onto white so transparent line art leaves the painting untouched under multiply.
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(scaled, scaled.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), bg, bg.Bounds(), xdraw.Over, nil)

	dc := gg.NewContext(width, height)
	defer func() { _ = dc.Close() }()
	dc.DrawImageEx(gg.ImageBufFromImage(base), gg.DrawImageOptions{
		Interpolation: gg.InterpNearest,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	// DrawImageEx always draws source-over: the blend is applied when the layer is popped.
	dc.PushLayer(gg.BlendMultiply, 1)
	dc.DrawImageEx(gg.ImageBufFromImage(scaled), gg.DrawImageOptions{
		X:             float64(x),
		Y:             float64(y),
		Interpolation: gg.InterpNearest,
		Opacity:       1,
	})
	dc.PopLayer()
	return toRGBA(dc.Image())
}
