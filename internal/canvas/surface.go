package canvas

import (
	"image"
	"sync"
	"time"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"k8s.io/klog/v2"
)

// DefaultLoadTimeout bounds how long an export waits for its background image.
const DefaultLoadTimeout = 10 * time.Second

// Surface is the drawing buffer of the colouring screen.
//
// The buffer always has the size given to the last Initialize: resizing is destructive and
// discards whatever was painted, including a stroke in progress.
//
// It is safe for concurrent use, but strokes are applied strictly in call order.
type Surface struct {
	mu sync.Mutex

	dc            *gg.Context
	width, height int

	brush      Brush
	drawing    bool
	moved      bool
	last       Point
	background string

	loader      Loader
	loadTimeout time.Duration
}

// Option configures a Surface.
type Option func(*Surface)

// WithLoader sets the loader used to fetch the background at export time.
func WithLoader(l Loader) Option {
	return func(s *Surface) { s.loader = l }
}

// WithLoadTimeout sets the deadline for loading the background at export time.
// A zero or negative timeout disables the deadline.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Surface) { s.loadTimeout = d }
}

// WithBrush sets the initial brush.
func WithBrush(b Brush) Option {
	return func(s *Surface) { s.SetBrush(b) }
}

// NewSurface creates a surface with no buffer: call Initialize before drawing.
func NewSurface(opts ...Option) *Surface {
	s := &Surface{
		brush:       DefaultBrush(),
		loader:      DefaultLoader{},
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize (re)allocates the buffer to exactly width x height and fills it with opaque white.
// Any previous content and any active stroke are discarded.
func (s *Surface) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc != nil {
		_ = s.dc.Close()
	}
	s.dc = gg.NewContext(width, height)
	s.dc.ClearWithColor(gg.White)
	s.width, s.height = width, height
	s.drawing = false
	klog.V(1).Infof("Canvas initialized to %dx%d", width, height)
	return nil
}

// Clear wipes the buffer back to white, keeping its size. Same as Initialize with the current size.
func (s *Surface) Clear() error {
	s.mu.Lock()
	width, height := s.width, s.height
	s.mu.Unlock()
	if width == 0 {
		return ErrNotInitialized
	}
	return s.Initialize(width, height)
}

// Size returns the buffer dimensions, zero before Initialize.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Brush returns the current brush.
func (s *Surface) Brush() Brush {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush
}

// SetBrush changes the brush; the width is clamped to the slider range. It applies to the next
// segment, even in the middle of a stroke.
func (s *Surface) SetBrush(b Brush) {
	if b.Color == "" {
		b.Color = Palette[0]
	}
	b.Width = ClampWidth(b.Width)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brush = b
}

// Background returns the background image reference, empty if none.
func (s *Surface) Background() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

// SetBackground sets (or, with an empty ref, removes) the line-art image composited on export.
func (s *Surface) SetBackground(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = ref
}

// Drawing reports whether a stroke is active.
func (s *Surface) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// BeginStroke starts a stroke at p, given in buffer coordinates. Nothing is painted until the
// stroke is extended or ended.
func (s *Surface) BeginStroke(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return
	}
	s.drawing = true
	s.moved = false
	s.last = p
}

// ExtendStroke paints a segment from the previous point to p with the current brush.
// It returns the buffer area that changed, or an empty rectangle if no stroke is active.
func (s *Surface) ExtendStroke(p Point) image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil || !s.drawing {
		return image.Rectangle{}
	}
	from := s.last
	s.last = p
	s.moved = true
	return s.paintLocked(from, p)
}

// paintLocked paints the segment from-p with the current brush and returns the area it covers.
func (s *Surface) paintLocked(from, p Point) image.Rectangle {
	width := s.brush.StrokeWidth()
	s.dc.SetHexColor(s.brush.Color)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	var err error
	if from == p {
		// A tap: what a round cap on a zero-length segment would paint.
		s.dc.DrawCircle(p.X, p.Y, width/2)
		err = s.dc.Fill()
	} else {
		s.dc.MoveTo(from.X, from.Y)
		s.dc.LineTo(p.X, p.Y)
		err = s.dc.Stroke()
	}
	if err != nil {
		klog.Errorf("Canvas stroke failed: %+v", err)
		return image.Rectangle{}
	}
	return segmentBounds(from, p, width).Intersect(image.Rect(0, 0, s.width, s.height))
}

// EndStroke ends the active stroke: further ExtendStroke calls are no-ops until BeginStroke.
// A stroke that was never extended is a tap and leaves a dot of the brush width; EndStroke
// returns the area it painted, if any.
func (s *Surface) EndStroke() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil || !s.drawing {
		return image.Rectangle{}
	}
	s.drawing = false
	if s.moved {
		return image.Rectangle{}
	}
	return s.paintLocked(s.last, s.last)
}

// Image returns a copy of the buffer's current pixels.
func (s *Surface) Image() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Surface) snapshotLocked() (*image.RGBA, error) {
	if s.dc == nil {
		return nil, ErrNotInitialized
	}
	if err := s.dc.FlushGPU(); err != nil {
		return nil, err
	}
	return toRGBA(s.dc.Image()), nil
}

// segmentBounds is the area a round-capped segment of the given width can touch, plus a pixel
// of anti-aliasing.
func segmentBounds(a, b Point, width float64) image.Rectangle {
	pad := width/2 + 1
	return image.Rect(
		int(min(a.X, b.X)-pad), int(min(a.Y, b.Y)-pad),
		int(max(a.X, b.X)+pad)+1, int(max(a.Y, b.Y)+pad)+1,
	)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}
