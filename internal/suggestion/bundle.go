package suggestion

import (
	"math"
	"strings"

	"campaign-backend/internal/tier"
)

// Source records which path produced a bundle.
type Source string

const (
	SourceAdvisory Source = "advisory"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
	SourceManual   Source = "manual"
)

// CTA positions accepted in a layout strategy.
const (
	CTATop    = "top"
	CTACenter = "center"
	CTABottom = "bottom"
)

// Bundle is the normalized creative plan for one listing.
type Bundle struct {
	Tier                 tier.Tier    `json:"profile"`
	Confidence           int          `json:"confidence"`
	Reasoning            string       `json:"reasoning"`
	RecommendedTemplates []string     `json:"templateRecommendations"`
	Text                 TextVariants `json:"textSuggestions"`
	Colors               *Colors      `json:"colorSuggestions,omitempty"`
	Effects              *Effects     `json:"visualEffects,omitempty"`
	Layout               *Layout      `json:"layoutStrategy,omitempty"`
	Positioning          *Positioning `json:"positioning,omitempty"`
	Source               Source       `json:"source,omitempty"`
}

// TextVariants holds per-placement copy. Title, Subtitle and CTA are the
// generic variants used when a placement-specific one is missing.
type TextVariants struct {
	FeedTitle     string `json:"feedTitle,omitempty"`
	FeedSubtitle  string `json:"feedSubtitle,omitempty"`
	FeedCTA       string `json:"feedCta,omitempty"`
	StoryTitle    string `json:"storyTitle,omitempty"`
	StorySubtitle string `json:"storySubtitle,omitempty"`
	StoryCTA      string `json:"storyCta,omitempty"`
	Price         string `json:"price,omitempty"`
	Title         string `json:"title,omitempty"`
	Subtitle      string `json:"subtitle,omitempty"`
	CTA           string `json:"cta,omitempty"`
}

// Colors holds per-role colors. A nil role falls back to the tier style.
type Colors struct {
	PrimaryTitle   *tier.RGBA `json:"primaryTitle,omitempty"`
	SecondaryTitle *tier.RGBA `json:"secondaryTitle,omitempty"`
	CTAButton      *tier.RGBA `json:"ctaButton,omitempty"`
	Background     *tier.RGBA `json:"background,omitempty"`
}

type Effects struct {
	TitleBlur         float64            `json:"titleBlur"`
	CTADropShadow     bool               `json:"ctaDropShadow"`
	BackgroundOpacity float64            `json:"backgroundOpacity"`
	StrokeWidth       float64            `json:"strokeWidth"`
	CornerRadius      float64            `json:"cornerRadius"`
	TextStroke        bool               `json:"textStroke"`
	Rotation          map[string]float64 `json:"rotation,omitempty"`
}

type Layout struct {
	TitlePriority int    `json:"titlePriority"`
	ImageFocus    bool   `json:"imageFocus"`
	CTAPosition   string `json:"ctaPosition"`
	AvoidOverlap  bool   `json:"avoidOverlap"`
}

type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Positioning holds per-role offsets. A nil offset leaves the role in place.
type Positioning struct {
	Title    *Offset `json:"titleOffset,omitempty"`
	Subtitle *Offset `json:"subtitleOffset,omitempty"`
	CTA      *Offset `json:"ctaOffset,omitempty"`
	Price    *Offset `json:"priceOffset,omitempty"`
	Image    *Offset `json:"imageOffset,omitempty"`
}

// Normalize clamps every numeric field into its documented range and drops
// layout values outside their enums. It does not validate the tier.
func (b *Bundle) Normalize() {
	b.Confidence = clampInt(b.Confidence, 0, 100)
	b.Reasoning = strings.TrimSpace(b.Reasoning)
	if b.Colors != nil {
		b.Colors.PrimaryTitle = clampColor(b.Colors.PrimaryTitle)
		b.Colors.SecondaryTitle = clampColor(b.Colors.SecondaryTitle)
		b.Colors.CTAButton = clampColor(b.Colors.CTAButton)
		b.Colors.Background = clampColor(b.Colors.Background)
		if b.Colors.Empty() {
			b.Colors = nil
		}
	}
	if e := b.Effects; e != nil {
		e.TitleBlur = math.Max(0, e.TitleBlur)
		e.BackgroundOpacity = clamp(e.BackgroundOpacity, 0, 1)
		e.StrokeWidth = math.Max(0, e.StrokeWidth)
		e.CornerRadius = math.Max(0, e.CornerRadius)
		if len(e.Rotation) > 0 {
			rot := make(map[string]float64, len(e.Rotation))
			for role, deg := range e.Rotation {
				if math.IsNaN(deg) || math.IsInf(deg, 0) {
					continue
				}
				rot[strings.ToLower(strings.TrimSpace(role))] = deg
			}
			e.Rotation = rot
		}
	}
	if l := b.Layout; l != nil {
		l.TitlePriority = clampInt(l.TitlePriority, 1, 5)
		switch pos := strings.ToLower(strings.TrimSpace(l.CTAPosition)); pos {
		case CTATop, CTACenter, CTABottom:
			l.CTAPosition = pos
		default:
			l.CTAPosition = ""
		}
	}
}

// Empty reports whether no role carries a color.
func (c Colors) Empty() bool {
	return c.PrimaryTitle == nil && c.SecondaryTitle == nil && c.CTAButton == nil && c.Background == nil
}

// Clone returns a deep copy.
func (c Colors) Clone() Colors {
	return Colors{
		PrimaryTitle:   clonePtr(c.PrimaryTitle),
		SecondaryTitle: clonePtr(c.SecondaryTitle),
		CTAButton:      clonePtr(c.CTAButton),
		Background:     clonePtr(c.Background),
	}
}

// Clone returns a deep copy.
func (p Positioning) Clone() Positioning {
	return Positioning{
		Title:    clonePtr(p.Title),
		Subtitle: clonePtr(p.Subtitle),
		CTA:      clonePtr(p.CTA),
		Price:    clonePtr(p.Price),
		Image:    clonePtr(p.Image),
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func clampColor(c *tier.RGBA) *tier.RGBA {
	if c == nil {
		return nil
	}
	return &tier.RGBA{
		R: clamp(c.R, 0, 1),
		G: clamp(c.G, 0, 1),
		B: clamp(c.B, 0, 1),
		A: clamp(c.A, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
