package render

import "campaign-backend/internal/tier"

// Mutation is the change set for one physical region. Nil fields are left
// untouched by the engine.
type Mutation struct {
	Region string `json:"region"`
	Role   string `json:"role,omitempty"`

	Text       *string    `json:"text,omitempty"`
	FontSize   *float64   `json:"fontSize,omitempty"`
	Fill       *tier.RGBA `json:"fillColor,omitempty"`
	Image      *string    `json:"imageURI,omitempty"`
	Rotation   *float64   `json:"rotation,omitempty"`
	Opacity    *float64   `json:"opacity,omitempty"`
	Blur       *float64   `json:"blur,omitempty"`
	Shadow     *Shadow    `json:"shadow,omitempty"`
	Stroke     *Stroke    `json:"stroke,omitempty"`
	Background *Fill      `json:"background,omitempty"`
	Position   *Point     `json:"position,omitempty"`
}

// Empty reports whether the mutation changes nothing.
func (m Mutation) Empty() bool {
	return len(m.Changes()) == 0
}

// Changes expands the mutation into property changes in a fixed order:
// content first, then style, then geometry.
func (m Mutation) Changes() []Change {
	var out []Change
	if m.Text != nil {
		out = append(out, Change{PropText, *m.Text})
	}
	if m.Image != nil {
		out = append(out, Change{PropImage, *m.Image})
	}
	if m.Fill != nil {
		out = append(out, Change{PropFillColor, *m.Fill})
	}
	if m.FontSize != nil {
		out = append(out, Change{PropFontSize, *m.FontSize})
	}
	if m.Background != nil {
		out = append(out, Change{PropBackground, *m.Background})
	}
	if m.Stroke != nil {
		out = append(out, Change{PropStroke, *m.Stroke})
	}
	if m.Shadow != nil {
		out = append(out, Change{PropShadow, *m.Shadow})
	}
	if m.Blur != nil {
		out = append(out, Change{PropBlur, *m.Blur})
	}
	if m.Opacity != nil {
		out = append(out, Change{PropOpacity, *m.Opacity})
	}
	if m.Rotation != nil {
		out = append(out, Change{PropRotation, *m.Rotation})
	}
	if m.Position != nil {
		out = append(out, Change{PropPosition, *m.Position})
	}
	return out
}
