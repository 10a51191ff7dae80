// Package render defines the capability the campaign pipeline needs from a
// design engine: list a template's regions, set region properties, export a
// raster.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaign-backend/internal/shared/telemetry"
)

var (
	ErrTimeout         = errors.New("render timed out")
	ErrUnknownRegion   = errors.New("unknown region")
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidValue    = errors.New("invalid property value")
)

// RegionKind classifies a region by what it holds.
type RegionKind string

const (
	KindText  RegionKind = "text"
	KindImage RegionKind = "image"
	KindShape RegionKind = "shape"
)

// Region is a read-only snapshot of one named element of an open document.
type Region struct {
	Name     string     `json:"name"`
	Kind     RegionKind `json:"kind"`
	Position Point      `json:"position"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	FontSize float64    `json:"fontSize,omitempty"`
	Text     string     `json:"text,omitempty"`
}

// Document identifies the template resource to open.
type Document struct {
	Name     string
	Resource string
	Width    int
	Height   int
}

// Engine opens sessions. Implementations must allow concurrent sessions.
type Engine interface {
	Open(ctx context.Context, doc Document) (Session, error)
}

// Session is exclusively owned by one caller until Close.
type Session interface {
	Regions(ctx context.Context) ([]Region, error)
	Set(ctx context.Context, region string, ch Change) error
	Export(ctx context.Context) ([]byte, error)
	Close() error
}

// Apply writes every mutation to s. Regions the session does not know are
// logged and skipped; any other error aborts.
func Apply(ctx context.Context, s Session, muts []Mutation) error {
	for _, m := range muts {
		for _, ch := range m.Changes() {
			if err := ch.Validate(); err != nil {
				return fmt.Errorf("region %s: %w", m.Region, err)
			}
			err := s.Set(ctx, m.Region, ch)
			if errors.Is(err, ErrUnknownRegion) {
				telemetry.Warn("render.region_skipped", map[string]any{"region": m.Region})
				break
			}
			if err != nil {
				return fmt.Errorf("region %s %s: %w", m.Region, ch.Property, err)
			}
		}
	}
	return nil
}

// WithSession opens a session, runs fn, and always closes the session.
// When timeout elapses first, ErrTimeout is returned immediately and the
// session is closed once fn returns.
func WithSession(ctx context.Context, e Engine, doc Document, timeout time.Duration, fn func(ctx context.Context, s Session) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- runSession(ctx, e, doc, fn)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrTimeout, doc.Name)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrTimeout, doc.Name)
		}
		return ctx.Err()
	}
}

func runSession(ctx context.Context, e Engine, doc Document, fn func(ctx context.Context, s Session) error) (err error) {
	s, err := e.Open(ctx, doc)
	if err != nil {
		return fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			telemetry.Warn("render.close_failed", map[string]any{"template": doc.Name, "error": cerr.Error()})
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render %s panicked: %v", doc.Name, r)
		}
	}()
	return fn(ctx, s)
}

// Planner computes mutations from the regions of an open document.
type Planner func(regions []Region) []Mutation

// Render runs the whole session lifecycle for one document: list regions,
// plan, apply, export.
func Render(ctx context.Context, e Engine, doc Document, timeout time.Duration, plan Planner) ([]byte, error) {
	var out []byte
	err := WithSession(ctx, e, doc, timeout, func(ctx context.Context, s Session) error {
		regions, err := s.Regions(ctx)
		if err != nil {
			return fmt.Errorf("regions: %w", err)
		}
		if err := Apply(ctx, s, plan(regions)); err != nil {
			return err
		}
		data, err := s.Export(ctx)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
