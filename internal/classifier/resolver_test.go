package classifier

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

type scriptedAdvisor struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (a *scriptedAdvisor) Suggest(ctx context.Context, p suggestion.ProductInfo) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.calls
	a.calls++
	if i < len(a.errs) && a.errs[i] != nil {
		return "", a.errs[i]
	}
	if i < len(a.responses) {
		return a.responses[i], nil
	}
	return "", errors.New("timeout")
}

type staticRegistry map[tier.Tier][]string

func (s staticRegistry) Recommend(t tier.Tier) []string {
	return append([]string{}, s[t]...)
}

func newTestResolver(adv *scriptedAdvisor, reg Recommender, opts Options) (*Resolver, *[]time.Duration) {
	r := New(adv, reg, opts)
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestFallbackAfterThreeFailures(t *testing.T) {
	adv := &scriptedAdvisor{}
	reg := staticRegistry{tier.Low: {"template_baixo_feed"}}
	r, slept := newTestResolver(adv, reg, Options{})

	b := r.Resolve(context.Background(), suggestion.ProductInfo{
		Description: "apartamento popular, financiamento facilitado",
		Budget:      "R$ 200",
	}, nil)

	require.Equal(t, 3, adv.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
	assert.Equal(t, tier.Low, b.Tier)
	assert.Equal(t, 70, b.Confidence)
	assert.Equal(t, reasonPopular, b.Reasoning)
	assert.Equal(t, []string{"template_baixo_feed"}, b.RecommendedTemplates)
	assert.Equal(t, suggestion.SourceFallback, b.Source)
	require.NotNil(t, b.Colors)
	require.NotNil(t, b.Effects)
	require.NotNil(t, b.Layout)
	require.NotNil(t, b.Positioning)
}

func TestInvalidTierCountsAsFailure(t *testing.T) {
	adv := &scriptedAdvisor{responses: []string{
		`{"profile":"luxo","confidence":90}`,
		"not json at all",
		"```json\n{\"profile\":\"alto\",\"confidence\":88,\"reasoning\":\"cobertura\",\"templateRecommendations\":[\"template_x\"]}\n```",
	}}
	reg := staticRegistry{tier.High: {"template_alto_feed", "template_alto_story"}}
	r, slept := newTestResolver(adv, reg, Options{})

	b := r.Resolve(context.Background(), suggestion.ProductInfo{Description: "cobertura"}, nil)

	assert.Equal(t, 3, adv.calls)
	assert.Len(t, *slept, 2)
	assert.Equal(t, tier.High, b.Tier)
	assert.Equal(t, 88, b.Confidence)
	assert.Equal(t, suggestion.SourceAdvisory, b.Source)
	assert.Equal(t, []string{"template_alto_feed", "template_alto_story"}, b.RecommendedTemplates)
}

func TestForcedTierSkipsAdvisory(t *testing.T) {
	adv := &scriptedAdvisor{}
	reg := staticRegistry{tier.High: {"template_alto_feed", "template_alto_story"}}
	r, _ := newTestResolver(adv, reg, Options{})
	forced := tier.High

	b := r.Resolve(context.Background(), suggestion.ProductInfo{}, &forced)

	assert.Zero(t, adv.calls)
	assert.Equal(t, 100, b.Confidence)
	assert.Equal(t, manualReasoning, b.Reasoning)
	assert.Nil(t, b.Colors)
	assert.Equal(t, "Título Story", b.Text.StoryTitle)
	assert.Len(t, b.RecommendedTemplates, 2)
}

func TestAlwaysTimingOutStaysBounded(t *testing.T) {
	adv := &scriptedAdvisor{}
	r := New(adv, staticRegistry{}, Options{BaseDelay: time.Millisecond})

	start := time.Now()
	b := r.Resolve(context.Background(), suggestion.ProductInfo{}, nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, b.Tier.Valid())
	assert.Equal(t, tier.Mid, b.Tier)
	assert.Equal(t, 60, b.Confidence)
	assert.NotNil(t, b.RecommendedTemplates)
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	adv := &scriptedAdvisor{}
	r := New(adv, nil, Options{BaseDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := r.Resolve(ctx, suggestion.ProductInfo{Budget: "5000"}, nil)

	assert.Equal(t, 1, adv.calls)
	assert.Equal(t, tier.High, b.Tier)
}

func TestCacheServesRepeatListing(t *testing.T) {
	adv := &scriptedAdvisor{responses: []string{`{"profile":"medio","confidence":80}`}}
	r, _ := newTestResolver(adv, staticRegistry{}, Options{CacheTTL: time.Minute})
	p := suggestion.ProductInfo{Description: "Apartamento 3 quartos"}

	first := r.Resolve(context.Background(), p, nil)
	second := r.Resolve(context.Background(), suggestion.ProductInfo{Description: "  apartamento 3 QUARTOS"}, nil)

	assert.Equal(t, 1, adv.calls)
	assert.Equal(t, suggestion.SourceAdvisory, first.Source)
	assert.Equal(t, suggestion.SourceCache, second.Source)
	assert.Equal(t, tier.Mid, second.Tier)
}

func TestHeuristicClassify(t *testing.T) {
	tests := []struct {
		name    string
		product suggestion.ProductInfo
		want    tier.Tier
		conf    int
	}{
		{"luxury keyword", suggestion.ProductInfo{Description: "Casa de LUXO"}, tier.High, 70},
		{"accent-free keyword", suggestion.ProductInfo{TargetAudience: "publico de alto padrao"}, tier.High, 70},
		{"high budget", suggestion.ProductInfo{Budget: "R$ 1500/dia"}, tier.High, 70},
		{"luxury beats popular", suggestion.ProductInfo{Description: "premium com financiamento", Budget: "100"}, tier.High, 70},
		{"popular keyword", suggestion.ProductInfo{Description: "imóvel acessível"}, tier.Low, 70},
		{"low budget", suggestion.ProductInfo{Budget: "250"}, tier.Low, 70},
		{"default budget", suggestion.ProductInfo{Description: "apartamento"}, tier.Mid, 60},
		{"boundary ceiling", suggestion.ProductInfo{Budget: "1000"}, tier.Mid, 60},
		{"boundary floor", suggestion.ProductInfo{Budget: "300"}, tier.Mid, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := classify(tt.product, 1000, 300)
			assert.Equal(t, tt.want, v.tier)
			assert.Equal(t, tt.conf, v.confidence)
		})
	}
}

func TestBudgetValue(t *testing.T) {
	assert.Equal(t, 500, budgetValue(""))
	assert.Equal(t, 500, budgetValue("a combinar"))
	assert.Equal(t, 2, budgetValue("R$ 2.500/dia"))
	assert.Equal(t, 800, budgetValue("800 reais"))
}

func TestFallbackMidpointsAreDeterministic(t *testing.T) {
	b := fallbackBundle(verdict{tier: tier.Mid, confidence: 60, reasoning: reasonDefault}, nil)

	assert.Equal(t, "O Apartamento Ideal Para Sua Família", b.Text.FeedTitle)
	assert.Equal(t, "MEDIO PADRÃO", b.Text.StorySubtitle)
	assert.Equal(t, "SAIBA MAIS", b.Text.StoryCTA)
	assert.Equal(t, tier.RGBA{R: 0.2, G: 0.7, B: 0.3, A: 1}, *b.Colors.PrimaryTitle)
	assert.InDelta(t, 0.915, b.Effects.BackgroundOpacity, 1e-9)
	assert.Equal(t, 1.0, b.Effects.TitleBlur)
	assert.True(t, b.Effects.CTADropShadow)
	assert.Equal(t, map[string]float64{"subtitle": -3.5}, b.Effects.Rotation)
	assert.Equal(t, 3, b.Layout.TitlePriority)
	assert.Equal(t, suggestion.CTABottom, b.Layout.CTAPosition)
	assert.Equal(t, suggestion.Offset{X: 0, Y: -20}, *b.Positioning.Title)
	assert.Equal(t, suggestion.Offset{X: 0, Y: -8}, *b.Positioning.Price)

	again := fallbackBundle(verdict{tier: tier.Mid}, nil)
	assert.Equal(t, b.Colors, again.Colors)
	assert.Equal(t, b.Positioning, again.Positioning)
}

func TestFallbackSeededStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		b := fallbackBundle(verdict{tier: tier.High}, rng)
		assert.GreaterOrEqual(t, b.Effects.CornerRadius, 8.0)
		assert.LessOrEqual(t, b.Effects.CornerRadius, 16.0)
		assert.GreaterOrEqual(t, b.Positioning.CTA.Y, -200.0)
		assert.LessOrEqual(t, b.Positioning.CTA.Y, 200.0)
		assert.Contains(t, []string{suggestion.CTACenter, suggestion.CTATop}, b.Layout.CTAPosition)
		assert.LessOrEqual(t, b.Colors.PrimaryTitle.R, 1.0)
		assert.Equal(t, "Exclusividade!", b.Text.StoryTitle)
	}
}

func TestSeededResolversRepeat(t *testing.T) {
	mk := func() suggestion.Bundle {
		r, _ := newTestResolver(&scriptedAdvisor{}, nil, Options{Rand: rand.New(rand.NewPCG(42, 42))})
		return r.Resolve(context.Background(), suggestion.ProductInfo{Description: "luxo"}, nil)
	}
	assert.Equal(t, mk(), mk())
}
