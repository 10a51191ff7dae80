package classifier

import (
	"math"
	"math/rand/v2"

	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

// span is a closed numeric range. Without a generator the midpoint is used.
type span struct{ lo, hi float64 }

func (s span) pick(rng *rand.Rand) float64 {
	if rng == nil {
		return (s.lo + s.hi) / 2
	}
	return s.lo + rng.Float64()*(s.hi-s.lo)
}

func (s span) pickFloor(rng *rand.Rand) float64 {
	return math.Floor(s.pick(rng))
}

// chance is a boolean drawn with probability p; def is used without a generator.
type chance struct {
	p   float64
	def bool
}

func (c chance) pick(rng *rand.Rand) bool {
	if rng == nil {
		return c.def
	}
	return rng.Float64() < c.p
}

type fallbackCopy struct {
	title, subtitle, cta, price string
}

type colorBase struct {
	primary, secondary, cta, background tier.RGBA
	bgJitter                            float64
}

type effectRanges struct {
	blur, opacity, stroke, radius span
	shadow, textStroke            chance
}

type layoutRanges struct {
	priority   span
	imageFocus chance
	ctaOptions []string
}

type offsetRanges struct {
	x, y span
}

type positionRanges struct {
	title, subtitle, cta, price, image offsetRanges
}

type fallbackTable struct {
	copy     fallbackCopy
	colors   colorBase
	effects  effectRanges
	layout   layoutRanges
	position positionRanges
}

const colorJitter = 0.1

var fallbackRotation = map[string]float64{"subtitle": -3.5}

func tableFor(t tier.Tier) fallbackTable {
	switch t {
	case tier.Low:
		return fallbackTable{
			copy: fallbackCopy{
				title:    "Seu Primeiro Imóvel Está Aqui!",
				subtitle: "Financiamento facilitado e entrada reduzida",
				cta:      "Realize Seu Sonho Agora!",
				price:    "A partir de R$ 200.000",
			},
			colors: colorBase{
				primary:    tier.RGBA{R: 0.2, G: 0.5, B: 0.9, A: 1},
				secondary:  tier.RGBA{R: 0.1, G: 0.4, B: 0.8, A: 1},
				cta:        tier.RGBA{R: 0.9, G: 0.3, B: 0.1, A: 1},
				background: tier.RGBA{R: 0.92, G: 0.95, B: 0.98, A: 0.85},
				bgJitter:   0.05,
			},
			effects: effectRanges{
				blur:       span{0, 0},
				opacity:    span{0.85, 0.95},
				stroke:     span{1, 2.5},
				radius:     span{4, 10},
				shadow:     chance{p: 0.5, def: false},
				textStroke: chance{p: 0.5, def: false},
			},
			layout: layoutRanges{
				priority:   span{1, 3},
				imageFocus: chance{p: 0.4, def: false},
				ctaOptions: []string{suggestion.CTABottom, suggestion.CTACenter},
			},
			position: positionRanges{
				title:    offsetRanges{span{-20, 20}, span{-30, 10}},
				subtitle: offsetRanges{span{-15, 15}, span{10, 40}},
				cta:      offsetRanges{span{-30, 30}, span{-50, 50}},
				price:    offsetRanges{span{-15, 15}, span{-20, 10}},
				image:    offsetRanges{span{-30, 30}, span{-40, 40}},
			},
		}
	case tier.High:
		return fallbackTable{
			copy: fallbackCopy{
				title:    "Exclusividade e Sofisticação",
				subtitle: "Alto padrão em cada detalhe",
				cta:      "Conheça o Exclusivo",
				price:    "A partir de R$ 800.000",
			},
			colors: colorBase{
				primary:    tier.RGBA{R: 0.7, G: 0.5, B: 0.2, A: 1},
				secondary:  tier.RGBA{R: 0.6, G: 0.4, B: 0.1, A: 1},
				cta:        tier.RGBA{R: 0.8, G: 0.2, B: 0.1, A: 1},
				background: tier.RGBA{R: 0.98, G: 0.96, B: 0.92, A: 0.92},
				bgJitter:   0.02,
			},
			effects: effectRanges{
				blur:       span{0, 3},
				opacity:    span{0.9, 0.98},
				stroke:     span{2.5, 4},
				radius:     span{8, 16},
				shadow:     chance{p: 1, def: true},
				textStroke: chance{p: 1, def: true},
			},
			layout: layoutRanges{
				priority:   span{3, 5},
				imageFocus: chance{p: 0.8, def: true},
				ctaOptions: []string{suggestion.CTACenter, suggestion.CTATop},
			},
			position: positionRanges{
				title:    offsetRanges{span{-60, 60}, span{-100, 30}},
				subtitle: offsetRanges{span{-50, 50}, span{30, 100}},
				cta:      offsetRanges{span{-100, 100}, span{-200, 200}},
				price:    offsetRanges{span{-40, 40}, span{-40, 20}},
				image:    offsetRanges{span{-80, 80}, span{-100, 100}},
			},
		}
	default:
		return fallbackTable{
			copy: fallbackCopy{
				title:    "O Apartamento Ideal Para Sua Família",
				subtitle: "Localização privilegiada e acabamento de qualidade",
				cta:      "Agende Sua Visita",
				price:    "A partir de R$ 400.000",
			},
			colors: colorBase{
				primary:    tier.RGBA{R: 0.2, G: 0.7, B: 0.3, A: 1},
				secondary:  tier.RGBA{R: 0.1, G: 0.6, B: 0.2, A: 1},
				cta:        tier.RGBA{R: 0.8, G: 0.6, B: 0.1, A: 1},
				background: tier.RGBA{R: 0.95, G: 0.97, B: 0.93, A: 0.88},
				bgJitter:   0.05,
			},
			effects: effectRanges{
				blur:       span{0, 2},
				opacity:    span{0.88, 0.95},
				stroke:     span{2, 3.5},
				radius:     span{6, 12},
				shadow:     chance{p: 1, def: true},
				textStroke: chance{p: 1, def: true},
			},
			layout: layoutRanges{
				priority:   span{2, 4},
				imageFocus: chance{p: 0.6, def: true},
				ctaOptions: []string{suggestion.CTABottom, suggestion.CTACenter, suggestion.CTATop},
			},
			position: positionRanges{
				title:    offsetRanges{span{-40, 40}, span{-60, 20}},
				subtitle: offsetRanges{span{-30, 30}, span{20, 70}},
				cta:      offsetRanges{span{-60, 60}, span{-100, 100}},
				price:    offsetRanges{span{-25, 25}, span{-30, 15}},
				image:    offsetRanges{span{-50, 50}, span{-60, 60}},
			},
		}
	}
}

// fallbackBundle builds a fully populated bundle for v. With a nil rng the
// result is a pure function of the tier.
func fallbackBundle(v verdict, rng *rand.Rand) suggestion.Bundle {
	tb := tableFor(v.tier)
	storyTitle, storyCTA := "Oportunidade!", "SAIBA MAIS"
	if v.tier == tier.High {
		storyTitle, storyCTA = "Exclusividade!", "CONHEÇA"
	}

	b := suggestion.Bundle{
		Tier:       v.tier,
		Confidence: v.confidence,
		Reasoning:  v.reasoning,
		Text: suggestion.TextVariants{
			FeedTitle:     tb.copy.title,
			FeedSubtitle:  tb.copy.subtitle,
			FeedCTA:       tb.copy.cta,
			StoryTitle:    storyTitle,
			StorySubtitle: v.tier.Label() + " PADRÃO",
			StoryCTA:      storyCTA,
			Price:         tb.copy.price,
			Title:         tb.copy.title,
			Subtitle:      tb.copy.subtitle,
			CTA:           tb.copy.cta,
		},
		Colors: &suggestion.Colors{
			PrimaryTitle:   jitter(tb.colors.primary, colorJitter, rng),
			SecondaryTitle: jitter(tb.colors.secondary, colorJitter, rng),
			CTAButton:      jitter(tb.colors.cta, colorJitter, rng),
			Background:     jitter(tb.colors.background, colorJitter*tb.colors.bgJitter, rng),
		},
		Effects: &suggestion.Effects{
			TitleBlur:         tb.effects.blur.pick(rng),
			CTADropShadow:     tb.effects.shadow.pick(rng),
			BackgroundOpacity: tb.effects.opacity.pick(rng),
			StrokeWidth:       tb.effects.stroke.pick(rng),
			CornerRadius:      tb.effects.radius.pick(rng),
			TextStroke:        tb.effects.textStroke.pick(rng),
			Rotation:          copyRotation(fallbackRotation),
		},
		Layout: &suggestion.Layout{
			TitlePriority: int(tb.layout.priority.pickFloor(rng)),
			ImageFocus:    tb.layout.imageFocus.pick(rng),
			CTAPosition:   pickOption(tb.layout.ctaOptions, rng),
			AvoidOverlap:  true,
		},
		Positioning: &suggestion.Positioning{
			Title:    tb.position.title.offset(rng),
			Subtitle: tb.position.subtitle.offset(rng),
			CTA:      tb.position.cta.offset(rng),
			Price:    tb.position.price.offset(rng),
			Image:    tb.position.image.offset(rng),
		},
		Source: suggestion.SourceFallback,
	}
	b.Normalize()
	return b
}

func (o offsetRanges) offset(rng *rand.Rand) *suggestion.Offset {
	return &suggestion.Offset{X: o.x.pickFloor(rng), Y: o.y.pickFloor(rng)}
}

func jitter(c tier.RGBA, amount float64, rng *rand.Rand) *tier.RGBA {
	if rng == nil {
		return &c
	}
	d := func() float64 { return (rng.Float64()*2 - 1) * amount }
	return &tier.RGBA{R: c.R + d(), G: c.G + d(), B: c.B + d(), A: c.A}
}

func pickOption(opts []string, rng *rand.Rand) string {
	if len(opts) == 0 {
		return ""
	}
	if rng == nil {
		return opts[0]
	}
	return opts[rng.IntN(len(opts))]
}

func copyRotation(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
