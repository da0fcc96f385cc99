package canvas

import (
	"context"
	"fmt"
	"image"

	"gopkg.in/yaml.v3"
)

// Script is a recorded drawing: a canvas size, an optional background and the strokes painted on
// it, in order. It is replayed on a Surface by Render.
//
//	width: 400
//	height: 300
//	background: data:image/png;base64,...
//	strokes:
//	  - color: "#3b82f6"
//	    width: 20
//	    points: [{x: 10, y: 10}, {x: 200, y: 150}]
type Script struct {
	Width      int            `yaml:"width"`
	Height     int            `yaml:"height"`
	Background string         `yaml:"background,omitempty"`
	Strokes    []ScriptStroke `yaml:"strokes"`
}

// ScriptStroke is one continuous stroke.
type ScriptStroke struct {
	Brush  `yaml:",inline"`
	Points []Point `yaml:"points"`
}

// ParseScript decodes a YAML stroke script.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing stroke script: %w", err)
	}
	if sc.Width <= 0 || sc.Height <= 0 {
		return nil, fmt.Errorf("stroke script: %w: %dx%d", ErrInvalidSize, sc.Width, sc.Height)
	}
	return &sc, nil
}

// Render replays the script on a new Surface and returns its composite.
func (sc *Script) Render(ctx context.Context, opts ...Option) (*image.RGBA, error) {
	s := NewSurface(opts...)
	if err := s.Initialize(sc.Width, sc.Height); err != nil {
		return nil, err
	}
	s.SetBackground(sc.Background)
	for _, stroke := range sc.Strokes {
		if len(stroke.Points) == 0 {
			continue
		}
		s.SetBrush(stroke.Brush)
		s.BeginStroke(stroke.Points[0])
		for _, p := range stroke.Points[1:] {
			s.ExtendStroke(p)
		}
		s.EndStroke()
	}
	return s.Composite(ctx)
}
