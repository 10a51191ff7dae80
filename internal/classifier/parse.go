package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

var (
	// ErrEmptyResponse is returned when the advisory text holds no JSON object.
	ErrEmptyResponse = errors.New("empty advisory response")
	// ErrInvalidTier is returned when the advisory names a tier outside the enum.
	ErrInvalidTier = errors.New("invalid tier in advisory response")
)

type wireRGBA struct {
	R float64  `json:"r"`
	G float64  `json:"g"`
	B float64  `json:"b"`
	A *float64 `json:"a"`
}

// color keeps nil for a role the advisory left out.
func (w *wireRGBA) color() *tier.RGBA {
	if w == nil {
		return nil
	}
	c := tier.RGBA{R: w.R, G: w.G, B: w.B, A: 1}
	if w.A != nil {
		c.A = *w.A
	}
	return &c
}

type wireColors struct {
	PrimaryTitle   *wireRGBA `json:"primaryTitle"`
	SecondaryTitle *wireRGBA `json:"secondaryTitle"`
	CTAButton      *wireRGBA `json:"ctaButton"`
	Background     *wireRGBA `json:"background"`
}

type wireBundle struct {
	Profile     string                  `json:"profile"`
	Confidence  float64                 `json:"confidence"`
	Reasoning   string                  `json:"reasoning"`
	Text        suggestion.TextVariants `json:"textSuggestions"`
	Colors      *wireColors             `json:"colorSuggestions"`
	Effects     *suggestion.Effects     `json:"visualEffects"`
	Layout      *suggestion.Layout      `json:"layoutStrategy"`
	Positioning *suggestion.Positioning `json:"positioning"`
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the outermost {...} span of s.
func extractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", ErrEmptyResponse
	}
	return s[start : end+1], nil
}

// parseAdvisory turns raw advisory text into a normalized bundle. Template
// recommendations in the payload are ignored.
func parseAdvisory(raw string) (suggestion.Bundle, error) {
	obj, err := extractObject(stripFences(raw))
	if err != nil {
		return suggestion.Bundle{}, err
	}
	var w wireBundle
	if err := json.Unmarshal([]byte(obj), &w); err != nil {
		return suggestion.Bundle{}, fmt.Errorf("decode advisory: %w", err)
	}
	t, err := tier.Parse(w.Profile)
	if err != nil {
		return suggestion.Bundle{}, fmt.Errorf("%w: %q", ErrInvalidTier, w.Profile)
	}

	confidence := w.Confidence
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}
	b := suggestion.Bundle{
		Tier:        t,
		Confidence:  int(math.Round(confidence)),
		Reasoning:   w.Reasoning,
		Text:        w.Text,
		Effects:     w.Effects,
		Layout:      w.Layout,
		Positioning: w.Positioning,
		Source:      suggestion.SourceAdvisory,
	}
	if c := w.Colors; c != nil {
		b.Colors = &suggestion.Colors{
			PrimaryTitle:   c.PrimaryTitle.color(),
			SecondaryTitle: c.SecondaryTitle.color(),
			CTAButton:      c.CTAButton.color(),
			Background:     c.Background.color(),
		}
	}
	b.Normalize()
	return b, nil
}
