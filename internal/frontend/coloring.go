package frontend

import (
	"context"
	"errors"
	"image"
	"strconv"

	"github.com/janpfeifer/GoTales/internal/api"
	"github.com/janpfeifer/GoTales/internal/canvas"
	"github.com/janpfeifer/GoTales/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

const (
	coloringCanvasID    = "coloring-canvas"
	coloringContainerID = "coloring-container"
)

// DownloadName is the file name an exported drawing is saved under.
func DownloadName(ch *game.Character, withBackground bool) string {
	if !withBackground || ch == nil {
		return "cizim.png"
	}
	return "boyama_" + ch.Name + ".png"
}

// ColoringMode is the colouring screen: a generated line-art page over a canvas the child paints
// on. The canvas element only mirrors the canvas.Surface, which owns the pixels.
type ColoringMode struct {
	app.Compo

	surface    *canvas.Surface
	brush      canvas.Brush
	background string
	loading    bool
	exporting  bool
	cancel     context.CancelFunc
}

func (c *ColoringMode) OnMount(ctx app.Context) {
	klog.V(1).Infof("ColoringMode: OnMount called")
	cfg := State.Config.Canvas
	c.surface = canvas.NewSurface(
		canvas.WithBrush(cfg.Brush()),
		canvas.WithLoadTimeout(cfg.ExportTimeout),
	)
	c.brush = c.surface.Brush()
	// Runs once the canvas element is in the page, and re-renders with the configured brush.
	ctx.Dispatch(func(ctx app.Context) {
		c.resize()
	})
	c.loadPage(ctx)
}

func (c *ColoringMode) OnDismount() {
	if c.cancel != nil {
		c.cancel()
	}
}

// OnResize re-creates the buffer at the new size: what was painted is lost.
func (c *ColoringMode) OnResize(ctx app.Context) {
	c.resize()
}

func (c *ColoringMode) resize() {
	container := app.Window().GetElementByID(coloringContainerID)
	el := app.Window().GetElementByID(coloringCanvasID)
	if !container.Truthy() || !el.Truthy() {
		return
	}
	w, h := container.Get("clientWidth").Int(), container.Get("clientHeight").Int()
	if cw, ch := c.surface.Size(); cw == w && ch == h {
		return
	}
	if err := c.surface.Initialize(w, h); err != nil {
		klog.Warningf("ColoringMode: cannot size canvas to %dx%d: %v", w, h, err)
		return
	}
	el.Set("width", w)
	el.Set("height", h)
	c.blit(image.Rect(0, 0, w, h))
}

// blit copies the rectangle r of the surface to the canvas element.
func (c *ColoringMode) blit(r image.Rectangle) {
	if r.Empty() {
		return
	}
	img, err := c.surface.Image()
	if err != nil {
		return
	}
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	rowLen := r.Dx() * 4
	buf := make([]byte, 0, rowLen*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := img.PixOffset(r.Min.X, y)
		buf = append(buf, img.Pix[start:start+rowLen]...)
	}
	arr := app.Window().Get("Uint8ClampedArray").New(len(buf))
	app.CopyBytesToJS(arr, buf)
	data := app.Window().Get("ImageData").New(arr, r.Dx(), r.Dy())
	el := app.Window().GetElementByID(coloringCanvasID)
	if !el.Truthy() {
		return
	}
	el.Call("getContext", "2d").Call("putImageData", data, r.Min.X, r.Min.Y)
}

// point maps the mouse or first touch position of e to buffer coordinates.
func (c *ColoringMode) point(e app.Event) canvas.Point {
	src := e.Value
	if touches := e.Get("touches"); touches.Truthy() && touches.Length() > 0 {
		src = touches.Index(0)
	}
	client := canvas.Point{X: src.Get("clientX").Float(), Y: src.Get("clientY").Float()}
	rect := app.Window().GetElementByID(coloringCanvasID).Call("getBoundingClientRect")
	display := canvas.Rect{
		Left:   rect.Get("left").Float(),
		Top:    rect.Get("top").Float(),
		Width:  rect.Get("width").Float(),
		Height: rect.Get("height").Float(),
	}
	w, h := c.surface.Size()
	return canvas.MapPoint(client, display, w, h)
}

func (c *ColoringMode) onStrokeStart(ctx app.Context, e app.Event) {
	e.PreventDefault()
	c.surface.BeginStroke(c.point(e))
}

func (c *ColoringMode) onStrokeMove(ctx app.Context, e app.Event) {
	if !c.surface.Drawing() {
		return
	}
	e.PreventDefault()
	c.blit(c.surface.ExtendStroke(c.point(e)))
}

func (c *ColoringMode) onStrokeEnd(ctx app.Context, e app.Event) {
	c.blit(c.surface.EndStroke())
}

func (c *ColoringMode) loadPage(ctx app.Context) {
	if State.Character == nil || c.loading {
		return
	}
	character := State.Character.ID
	c.loading = true
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	ctx.Async(func() {
		page, err := State.API.ColoringPage(reqCtx, character)
		ctx.Dispatch(func(ctx app.Context) {
			c.loading = false
			if err != nil {
				klog.Errorf("ColoringMode: coloring page for %s failed: %v", character, err)
				var apiErr *api.Error
				if errors.As(err, &apiErr) {
					State.ShowNotice(NoticeImageFailed)
				} else {
					State.ShowNotice(NoticeConnection)
				}
				return
			}
			c.background = page
			c.surface.SetBackground(page)
			c.clear()
		})
	})
}

func (c *ColoringMode) onNewPage(ctx app.Context, e app.Event) {
	c.loadPage(ctx)
}

func (c *ColoringMode) onClear(ctx app.Context, e app.Event) {
	c.clear()
}

func (c *ColoringMode) clear() {
	if err := c.surface.Clear(); err != nil {
		klog.V(1).Infof("ColoringMode: clear: %v", err)
		return
	}
	w, h := c.surface.Size()
	c.blit(image.Rect(0, 0, w, h))
}

func (c *ColoringMode) onColor(ctx app.Context, e app.Event) {
	c.brush.Color = ctx.JSSrc().Get("dataset").Get("color").String()
	c.surface.SetBrush(c.brush)
}

func (c *ColoringMode) onWidth(ctx app.Context, e app.Event) {
	w, err := strconv.ParseFloat(ctx.JSSrc().Get("value").String(), 64)
	if err != nil {
		return
	}
	c.brush.Width = canvas.ClampWidth(w)
	c.surface.SetBrush(c.brush)
}

func (c *ColoringMode) onSave(ctx app.Context, e app.Event) {
	if c.exporting {
		return
	}
	c.exporting = true
	name := DownloadName(State.Character, c.surface.Background() != "")
	ctx.Async(func() {
		url, err := c.surface.ExportComposite(ctx)
		ctx.Dispatch(func(ctx app.Context) {
			c.exporting = false
			if err != nil {
				klog.Errorf("ColoringMode: export failed: %v", err)
				State.ShowNotice(NoticeImageFailed)
				return
			}
			State.Gallery.RecordDrawing(url)
			download(url, name)
			State.ShowNotice(NoticeSaved)
		})
	})
}

// download makes the browser save url as name.
func download(url, name string) {
	doc := app.Window().Get("document")
	a := doc.Call("createElement", "a")
	a.Set("href", url)
	a.Set("download", name)
	doc.Get("body").Call("appendChild", a)
	a.Call("click")
	a.Call("remove")
}

func (c *ColoringMode) renderToolbar() app.UI {
	var colors []app.UI
	for _, color := range canvas.Palette {
		class := "palette-color"
		if color == c.brush.Color {
			class += " selected"
		}
		label := ""
		if color == canvas.EraserColor {
			label = "🧽"
		}
		colors = append(colors, app.Button().
			Class(class).
			Style("background-color", color).
			DataSet("color", color).
			Title(color).
			OnClick(c.onColor).
			Text(label))
	}
	return app.Div().Class("coloring-toolbar").Body(
		app.Div().Class("palette").Body(colors...),
		app.Label().Body(
			app.Text("Fırça"),
			app.Input().
				Type("range").
				Min(canvas.MinBrushWidth).
				Max(canvas.MaxBrushWidth).
				Value(c.brush.Width).
				OnInput(c.onWidth),
		),
		app.Div().Class("coloring-actions").Body(
			app.Button().Class("secondary").OnClick(c.onClear).Text("🗑️ Temizle"),
			app.Button().Class("secondary").Disabled(c.loading).OnClick(c.onNewPage).Text("🔄 Yeni Sayfa"),
			app.Button().Disabled(c.exporting).OnClick(c.onSave).Text("💾 Kaydet"),
		),
	)
}

func (c *ColoringMode) Render() app.UI {
	layers := []app.UI{
		app.Canvas().
			ID(coloringCanvasID).
			Class("coloring-canvas").
			OnMouseDown(c.onStrokeStart).
			OnMouseMove(c.onStrokeMove).
			OnMouseUp(c.onStrokeEnd).
			OnMouseLeave(c.onStrokeEnd).
			On("touchstart", c.onStrokeStart).
			On("touchmove", c.onStrokeMove).
			On("touchend", c.onStrokeEnd).
			On("touchcancel", c.onStrokeEnd),
	}
	if c.background != "" {
		layers = append(layers, app.Img().Class("coloring-background").Src(c.background).Alt(""))
	}
	if c.loading {
		layers = append(layers, app.Div().Class("coloring-loading").Aria("busy", "true").Text("Boyama sayfası çiziliyor..."))
	}
	return app.Article().Class("coloring").Body(
		c.renderToolbar(),
		app.Div().ID(coloringContainerID).Class("coloring-container").Body(layers...),
	)
}
