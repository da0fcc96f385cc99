package canvas

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticLoader always returns the same image.
func staticLoader(img image.Image) Loader {
	return LoaderFunc(func(context.Context, string) (image.Image, error) { return img, nil })
}

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func requireAllWhite(t *testing.T, img *image.RGBA) {
	t.Helper()
	for i, v := range img.Pix {
		if v != 255 {
			t.Fatalf("pixel byte %d (x=%d, y=%d) = %d, want 255", i,
				(i/4)%img.Bounds().Dx(), (i/4)/img.Bounds().Dx(), v)
		}
	}
}

func newSurface(t *testing.T, w, h int, opts ...Option) *Surface {
	t.Helper()
	s := NewSurface(opts...)
	require.NoError(t, s.Initialize(w, h))
	return s
}

func TestInitializeExportsWhite(t *testing.T) {
	s := newSurface(t, 64, 48)
	img, err := s.Composite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	requireAllWhite(t, img)
}

func TestUninitialized(t *testing.T) {
	s := NewSurface()
	_, err := s.Image()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.Clear(), ErrNotInitialized)
	s.BeginStroke(Point{1, 1})
	assert.False(t, s.Drawing())
	assert.True(t, s.ExtendStroke(Point{2, 2}).Empty())
	assert.ErrorIs(t, s.Initialize(0, 10), ErrInvalidSize)
}

func TestStrokePaintsWithBrush(t *testing.T) {
	s := newSurface(t, 100, 100)
	s.SetBrush(Brush{Color: "#3b82f6", Width: 10})
	s.BeginStroke(Point{10, 50})
	dirty := s.ExtendStroke(Point{90, 50})
	s.EndStroke()

	assert.True(t, dirty.Overlaps(image.Rect(50, 50, 51, 51)))
	img, err := s.Image()
	require.NoError(t, err)
	c := img.RGBAAt(50, 50)
	assert.InDelta(t, 0x3b, c.R, 2)
	assert.InDelta(t, 0x82, c.G, 2)
	assert.InDelta(t, 0xf6, c.B, 2)
	// Outside the stroke's half width.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(50, 60))
}

func TestBeginStrokePaintsNothing(t *testing.T) {
	s := newSurface(t, 50, 50)
	s.SetBrush(Brush{Color: "#000000", Width: 10})
	s.BeginStroke(Point{25, 25})
	assert.True(t, s.Drawing())
	img, err := s.Image()
	require.NoError(t, err)
	requireAllWhite(t, img)
}

func TestTapLeavesDot(t *testing.T) {
	s := newSurface(t, 50, 50)
	s.SetBrush(Brush{Color: "#000000", Width: 10})
	s.BeginStroke(Point{25, 25})
	dirty := s.EndStroke()
	assert.True(t, dirty.Overlaps(image.Rect(25, 25, 26, 26)))
	assert.True(t, s.EndStroke().Empty(), "a second end paints nothing")

	img, err := s.Image()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(25, 25))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(25, 35))
}

func TestEndAfterMoveAddsNoDot(t *testing.T) {
	s := newSurface(t, 50, 50)
	s.SetBrush(Brush{Color: "#000000", Width: 4})
	s.BeginStroke(Point{5, 5})
	s.ExtendStroke(Point{5, 45})
	assert.True(t, s.EndStroke().Empty())
}

func TestExtendAfterEndIsNoop(t *testing.T) {
	s := newSurface(t, 50, 50)
	s.SetBrush(Brush{Color: "#000000", Width: 10})
	s.BeginStroke(Point{5, 5})
	s.EndStroke()
	assert.True(t, s.ExtendStroke(Point{45, 45}).Empty())
	img, err := s.Image()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(45, 45))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(25, 25))
}

func TestEraserIsTwiceAsWide(t *testing.T) {
	s := newSurface(t, 100, 100)
	s.SetBrush(Brush{Color: "#000000", Width: 40})
	s.BeginStroke(Point{0, 50})
	s.ExtendStroke(Point{100, 50})
	s.EndStroke()

	s.SetBrush(Brush{Color: EraserColor, Width: 10})
	assert.True(t, s.Brush().IsEraser())
	s.BeginStroke(Point{0, 50})
	s.ExtendStroke(Point{100, 50})
	s.EndStroke()

	img, err := s.Image()
	require.NoError(t, err)
	// A 10px paint stroke would only reach 5px from the centre line; the eraser reaches 10px.
	for _, y := range []int{42, 50, 58} {
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(50, y), "y=%d", y)
	}
	for _, y := range []int{35, 65} {
		assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(50, y), "y=%d", y)
	}
}

func TestClearEqualsFreshSurface(t *testing.T) {
	s := newSurface(t, 40, 30)
	s.SetBrush(Brush{Color: "#a855f7", Width: 20})
	s.BeginStroke(Point{0, 0})
	s.ExtendStroke(Point{40, 30})
	require.NoError(t, s.Clear())
	assert.False(t, s.Drawing(), "clear cancels the active stroke")

	cleared, err := s.Image()
	require.NoError(t, err)
	fresh, err := newSurface(t, 40, 30).Image()
	require.NoError(t, err)
	assert.Equal(t, fresh.Pix, cleared.Pix)
}

func TestResizeDiscardsContent(t *testing.T) {
	s := newSurface(t, 40, 30)
	s.SetBrush(Brush{Color: "#000000", Width: 30})
	s.BeginStroke(Point{0, 15})
	s.ExtendStroke(Point{40, 15})

	require.NoError(t, s.Initialize(80, 20))
	w, h := s.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 20, h)
	assert.True(t, s.ExtendStroke(Point{10, 10}).Empty(), "resize cancels the active stroke")
	img, err := s.Image()
	require.NoError(t, err)
	requireAllWhite(t, img)
}

func TestCompositeMultipliesCenteredBackground(t *testing.T) {
	// A black portrait background fitted into a square canvas: black in the middle column,
	// untouched on both sides.
	s := newSurface(t, 100, 100, WithLoader(staticLoader(uniform(50, 100, color.Black))))
	s.SetBackground("line-art")
	img, err := s.Composite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(50, 50))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(5, 50))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(95, 50))
}

func TestCompositeKeepsPaintUnderWhite(t *testing.T) {
	s := newSurface(t, 60, 60, WithLoader(staticLoader(uniform(10, 10, color.White))))
	s.SetBrush(Brush{Color: "#22c55e", Width: 30})
	s.BeginStroke(Point{0, 30})
	s.ExtendStroke(Point{60, 30})
	s.EndStroke()
	painted, err := s.Image()
	require.NoError(t, err)

	s.SetBackground("white-page")
	img, err := s.Composite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, painted.Pix, img.Pix)
}

// outlinedPage is a grey(200) page with a black vertical outline over columns 40 to 49.
func outlinedPage(w, h int) *image.RGBA {
	page := uniform(w, h, color.Gray{200})
	for y := range h {
		for x := 40; x < 50; x++ {
			page.Set(x, y, color.Black)
		}
	}
	return page
}

func TestCompositeColorShowsThroughLineArt(t *testing.T) {
	for _, tc := range []struct {
		name   string
		render func(s *Surface) (image.Image, error)
	}{
		{"Composite", func(s *Surface) (image.Image, error) { return s.Composite(context.Background()) }},
		{"ExportComposite", func(s *Surface) (image.Image, error) {
			url, err := s.ExportComposite(context.Background())
			if err != nil {
				return nil, err
			}
			return DefaultLoader{}.Load(context.Background(), url)
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newSurface(t, 60, 60, WithLoader(staticLoader(outlinedPage(60, 60))))
			// A green band across the page, under the outline too.
			s.SetBrush(Brush{Color: "#22c55e", Width: 30})
			s.BeginStroke(Point{0, 30})
			s.ExtendStroke(Point{60, 30})
			s.EndStroke()
			s.SetBackground("outlined-page")

			img, err := tc.render(s)
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 60, 60), img.Bounds())
			rgba := func(x, y int) color.RGBA { return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA) }

			// Paint times grey: 0x22c55e * 200/255.
			got := rgba(20, 30)
			assert.InDelta(t, 26, int(got.R), 2)
			assert.InDelta(t, 154, int(got.G), 2)
			assert.InDelta(t, 73, int(got.B), 2)
			assert.Equal(t, uint8(255), got.A)

			// White paper times grey.
			got = rgba(20, 5)
			assert.InDelta(t, 200, int(got.R), 2)
			assert.InDelta(t, 200, int(got.G), 2)
			assert.InDelta(t, 200, int(got.B), 2)

			// The outline stays black over the paint and over the paper.
			assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(45, 30))
			assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(45, 5))
		})
	}
}

func TestCompositeDimensionsFollowBuffer(t *testing.T) {
	for _, bg := range []image.Rectangle{image.Rect(0, 0, 300, 50), image.Rect(0, 0, 7, 900), image.Rect(0, 0, 1, 1)} {
		s := newSurface(t, 120, 80, WithLoader(staticLoader(uniform(bg.Dx(), bg.Dy(), color.Gray{128}))))
		s.SetBackground("bg")
		img, err := s.Composite(context.Background())
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds(), "background %v", bg)
	}
}

func TestExportCompositeDataURL(t *testing.T) {
	page, err := EncodePNGDataURL(uniform(20, 10, color.Black))
	require.NoError(t, err)
	s := newSurface(t, 40, 40)
	s.SetBackground(page)

	url, err := s.ExportComposite(context.Background())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, PNGDataURLPrefix))

	img, err := DefaultLoader{}.Load(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())
	r, g, b, _ := img.At(20, 20).RGBA()
	assert.Zero(t, r+g+b, "line art is on top")
	r, g, b, _ = img.At(20, 2).RGBA()
	assert.Equal(t, uint32(3*0xffff), r+g+b, "letterbox stays white")
}

func TestCompositeFailsClosed(t *testing.T) {
	loadErr := errors.New("404")
	s := newSurface(t, 10, 10, WithLoader(LoaderFunc(func(context.Context, string) (image.Image, error) {
		return nil, loadErr
	})))
	s.SetBackground("https://example.com/page.png")
	_, err := s.ExportComposite(context.Background())
	require.ErrorIs(t, err, ErrBackgroundUnavailable)
	assert.ErrorIs(t, err, loadErr)
	assert.NotErrorIs(t, err, ErrLoadTimeout)
}

func TestCompositeLoadTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		release := make(chan struct{})
		blocking := LoaderFunc(func(ctx context.Context, _ string) (image.Image, error) {
			<-release // Ignores its context.
			return nil, ctx.Err()
		})
		s := newSurface(t, 10, 10, WithLoader(blocking), WithLoadTimeout(3*time.Second))
		s.SetBackground("stalled")

		start := time.Now()
		_, err := s.Composite(context.Background())
		require.ErrorIs(t, err, ErrBackgroundUnavailable)
		assert.ErrorIs(t, err, ErrLoadTimeout)
		assert.Equal(t, 3*time.Second, time.Since(start))

		close(release)
		synctest.Wait()
	})
}

func TestCompositeCancelled(t *testing.T) {
	s := newSurface(t, 10, 10, WithLoader(LoaderFunc(func(ctx context.Context, _ string) (image.Image, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})))
	s.SetBackground("page")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Composite(ctx)
	require.ErrorIs(t, err, ErrBackgroundUnavailable)
	assert.NotErrorIs(t, err, ErrLoadTimeout)
}
