package canvas

import "strings"

// Palette lists the colours offered to the child. White is the eraser.
var Palette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e", "#3b82f6",
	"#a855f7", "#78350f", "#000000", EraserColor,
}

// EraserColor paints the background colour back: erasing is just painting white.
const EraserColor = "#ffffff"

// Brush width limits of the width slider.
const (
	MinBrushWidth     = 5
	MaxBrushWidth     = 40
	DefaultBrushWidth = 15
)

// Brush is the current paint colour and width.
type Brush struct {
	Color string  `yaml:"color" json:"color"` // Hex colour, "#rrggbb".
	Width float64 `yaml:"width" json:"width"`
}

// DefaultBrush is the brush selected when the canvas opens.
func DefaultBrush() Brush {
	return Brush{Color: Palette[0], Width: DefaultBrushWidth}
}

// IsEraser reports whether the brush paints with the background colour.
func (b Brush) IsEraser() bool {
	return strings.EqualFold(b.Color, EraserColor)
}

// StrokeWidth is the width actually painted: the eraser is twice as thick as the slider value.
func (b Brush) StrokeWidth() float64 {
	if b.IsEraser() {
		return 2 * b.Width
	}
	return b.Width
}

// ClampWidth limits w to the slider range.
func ClampWidth(w float64) float64 {
	return min(max(w, MinBrushWidth), MaxBrushWidth)
}
