// Package canvas is an in-process render engine that rasterizes a simple
// region scene to PNG. It does not read design files; every template opens
// with the same layout, sized to the document.
package canvas

import (
	"context"
	"fmt"
	"sync"

	"campaign-backend/internal/render"
	"campaign-backend/internal/tier"
)

// Options configures the engine.
type Options struct {
	Layout func(width, height int) []render.Region
	Loader Loader
}

type Engine struct {
	layout func(width, height int) []render.Region
	loader Loader
}

func New(opts Options) *Engine {
	e := &Engine{layout: opts.Layout, loader: opts.Loader}
	if e.layout == nil {
		e.layout = DefaultLayout
	}
	if e.loader == nil {
		e.loader = DefaultLoader(nil)
	}
	return e
}

func (e *Engine) Open(ctx context.Context, doc render.Document) (render.Session, error) {
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", doc.Width, doc.Height)
	}
	s := &session{
		doc:    doc,
		loader: e.loader,
		byName: map[string]*layer{},
	}
	for _, r := range e.layout(doc.Width, doc.Height) {
		l := &layer{region: r, opacity: 1}
		s.layers = append(s.layers, l)
		s.byName[r.Name] = l
	}
	return s, nil
}

type layer struct {
	region     render.Region
	fill       *tier.RGBA
	image      string
	rotation   float64
	opacity    float64
	blur       float64
	shadow     *render.Shadow
	stroke     *render.Stroke
	background *render.Fill
}

type session struct {
	mu     sync.Mutex
	doc    render.Document
	loader Loader
	layers []*layer
	byName map[string]*layer
	closed bool
}

func (s *session) Regions(ctx context.Context) ([]render.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]render.Region, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l.region)
	}
	return out, nil
}

func (s *session) Set(ctx context.Context, region string, ch render.Change) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("canvas: session closed")
	}
	l, ok := s.byName[region]
	if !ok {
		return fmt.Errorf("%w: %s", render.ErrUnknownRegion, region)
	}
	switch ch.Property {
	case render.PropText:
		l.region.Text = ch.Text()
	case render.PropFontSize:
		l.region.FontSize = ch.Number()
	case render.PropFillColor:
		c := ch.Color()
		l.fill = &c
	case render.PropImage:
		l.image = ch.Text()
	case render.PropRotation:
		l.rotation = ch.Number()
	case render.PropOpacity:
		l.opacity = clamp01(ch.Number())
	case render.PropBlur:
		l.blur = ch.Number()
	case render.PropShadow:
		sh := ch.Shadow()
		l.shadow = &sh
	case render.PropStroke:
		st := ch.Stroke()
		l.stroke = &st
	case render.PropBackground:
		f := ch.Fill()
		l.background = &f
	case render.PropPosition:
		l.region.Position = ch.Point()
	}
	return nil
}

func (s *session) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("canvas: session closed")
	}
	return s.rasterize(ctx)
}

func (s *session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.layers = nil
	s.byName = nil
	s.mu.Unlock()
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
