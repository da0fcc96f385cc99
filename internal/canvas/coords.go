package canvas

import "math"

// Point is a position, either in display (CSS pixel) or buffer coordinates.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Rect is the on-screen rectangle of the canvas element, as given by getBoundingClientRect.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// MapPoint converts a pointer/touch position in client coordinates into buffer coordinates.
// The buffer may have a different resolution than the element's rendered size, so the offset
// within the element is scaled by bufferWidth/displayWidth and bufferHeight/displayHeight.
// A degenerate display rectangle maps everything to the origin.
func MapPoint(client Point, display Rect, bufferWidth, bufferHeight int) Point {
	if display.Width <= 0 || display.Height <= 0 {
		return Point{}
	}
	scaleX := float64(bufferWidth) / display.Width
	scaleY := float64(bufferHeight) / display.Height
	return Point{
		X: (client.X - display.Left) * scaleX,
		Y: (client.Y - display.Top) * scaleY,
	}
}

// FitRect returns where an image of size (srcW, srcH) is drawn inside a (dstW, dstH) area:
// uniformly scaled by min(dstW/srcW, dstH/srcH) and centred.
func FitRect(srcW, srcH, dstW, dstH int) (x, y, w, h int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return 0, 0, 0, 0
	}
	ratio := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w = max(int(math.Round(float64(srcW)*ratio)), 1)
	h = max(int(math.Round(float64(srcH)*ratio)), 1)
	w, h = min(w, dstW), min(h, dstH)
	return (dstW - w) / 2, (dstH - h) / 2, w, h
}
