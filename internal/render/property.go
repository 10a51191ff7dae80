package render

import (
	"fmt"

	"campaign-backend/internal/tier"
)

// Property names a settable region attribute.
type Property string

const (
	PropText       Property = "text"
	PropFontSize   Property = "fontSize"
	PropFillColor  Property = "fillColor"
	PropImage      Property = "imageURI"
	PropRotation   Property = "rotation"
	PropOpacity    Property = "opacity"
	PropBlur       Property = "blur"
	PropShadow     Property = "shadow"
	PropStroke     Property = "stroke"
	PropBackground Property = "background"
	PropPosition   Property = "position"
)

// Kind is the value type a property accepts.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindColor
	KindPoint
	KindShadow
	KindStroke
	KindFill
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindColor:
		return "color"
	case KindPoint:
		return "point"
	case KindShadow:
		return "shadow"
	case KindStroke:
		return "stroke"
	case KindFill:
		return "fill"
	default:
		return "unknown"
	}
}

// Schema maps every property to the kind of value it carries. Engines switch
// on the property and use the matching accessor on Change.
var Schema = map[Property]Kind{
	PropText:       KindString,
	PropFontSize:   KindNumber,
	PropFillColor:  KindColor,
	PropImage:      KindString,
	PropRotation:   KindNumber,
	PropOpacity:    KindNumber,
	PropBlur:       KindNumber,
	PropShadow:     KindShadow,
	PropStroke:     KindStroke,
	PropBackground: KindFill,
	PropPosition:   KindPoint,
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Shadow struct {
	Blur   Point     `json:"blur"`
	Offset Point     `json:"offset"`
	Color  tier.RGBA `json:"color"`
}

type Stroke struct {
	Width float64   `json:"width"`
	Color tier.RGBA `json:"color"`
}

// Fill is a solid background with rounded corners.
type Fill struct {
	Color        tier.RGBA `json:"color"`
	CornerRadius float64   `json:"cornerRadius"`
}

// Change sets one property on one region. The accessors below return the
// zero value when Value has another type; call Validate first.
type Change struct {
	Property Property `json:"property"`
	Value    any      `json:"value"`
}

// Validate checks the property is known and the value has its schema kind.
func (c Change) Validate() error {
	kind, ok := Schema[c.Property]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, c.Property)
	}
	var good bool
	switch kind {
	case KindString:
		_, good = c.Value.(string)
	case KindNumber:
		_, good = c.Value.(float64)
	case KindColor:
		_, good = c.Value.(tier.RGBA)
	case KindPoint:
		_, good = c.Value.(Point)
	case KindShadow:
		_, good = c.Value.(Shadow)
	case KindStroke:
		_, good = c.Value.(Stroke)
	case KindFill:
		_, good = c.Value.(Fill)
	}
	if !good {
		return fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, c.Property, kind, c.Value)
	}
	return nil
}

func (c Change) Text() string     { s, _ := c.Value.(string); return s }
func (c Change) Number() float64  { f, _ := c.Value.(float64); return f }
func (c Change) Color() tier.RGBA { v, _ := c.Value.(tier.RGBA); return v }
func (c Change) Point() Point     { p, _ := c.Value.(Point); return p }
func (c Change) Shadow() Shadow   { s, _ := c.Value.(Shadow); return s }
func (c Change) Stroke() Stroke   { s, _ := c.Value.(Stroke); return s }
func (c Change) Fill() Fill       { f, _ := c.Value.(Fill); return f }
