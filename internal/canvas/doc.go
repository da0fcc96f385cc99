// Package canvas implements the colouring canvas: a white raster buffer the child paints on with
// round brush strokes, and the export that composites the line-art background on top of the
// painting with a multiply blend.
//
// Rendering uses the gogpu/gg software rasteriser; gg's own log output is routed to klog.
package canvas

import (
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/gogpu/gg"
	"k8s.io/klog/v2"
)

func init() {
	gg.SetLogger(slog.New(logr.ToSlogHandler(klog.Background())))
}
