// Package classifier turns a listing into a suggestion bundle, calling the
// advisory model with bounded retries and falling back to local heuristics.
package classifier

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"campaign-backend/internal/llm"
	"campaign-backend/internal/shared/metrics"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/shared/util"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

const manualReasoning = "Profile manually specified"

// Recommender lists the available templates for a tier.
type Recommender interface {
	Recommend(t tier.Tier) []string
}

// Options tunes a Resolver. Zero values select the defaults.
type Options struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BudgetCeiling int
	BudgetFloor   int
	// Limiter throttles advisory calls process-wide. Nil disables throttling.
	Limiter *rate.Limiter
	// CacheTTL keeps successful advisory bundles per listing. Zero disables caching.
	CacheTTL time.Duration
	// Rand draws fallback values within their ranges instead of using midpoints.
	Rand *rand.Rand
}

// Resolver produces a bundle for every listing. It never returns an error.
type Resolver struct {
	advisor  llm.Advisor
	registry Recommender
	limiter  *rate.Limiter
	cache    *cache.Cache

	maxAttempts int
	baseDelay   time.Duration
	ceiling     int
	floor       int

	rngMu sync.Mutex
	rng   *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Resolver.
func New(advisor llm.Advisor, registry Recommender, opts Options) *Resolver {
	if advisor == nil {
		advisor = llm.PlaceholderClient{}
	}
	r := &Resolver{
		advisor:     advisor,
		registry:    registry,
		limiter:     opts.Limiter,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		ceiling:     opts.BudgetCeiling,
		floor:       opts.BudgetFloor,
		rng:         opts.Rand,
		sleep:       sleepCtx,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 3
	}
	if r.baseDelay <= 0 {
		r.baseDelay = time.Second
	}
	if r.ceiling <= 0 {
		r.ceiling = 1000
	}
	if r.floor <= 0 {
		r.floor = 300
	}
	if opts.CacheTTL > 0 {
		r.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return r
}

// Resolve returns the bundle for product. A non-nil forced tier skips the
// advisory call entirely. Recommendations always come from the registry.
func (r *Resolver) Resolve(ctx context.Context, product suggestion.ProductInfo, forced *tier.Tier) suggestion.Bundle {
	var b suggestion.Bundle
	switch {
	case forced != nil && forced.Valid():
		b = manualBundle(*forced)
	default:
		b = r.advise(ctx, product)
	}
	b.RecommendedTemplates = r.recommend(b.Tier)
	return b
}

func (r *Resolver) advise(ctx context.Context, product suggestion.ProductInfo) suggestion.Bundle {
	key := cacheKey(product)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			metrics.IncAdvisoryCacheHit()
			b := cloneBundle(v.(suggestion.Bundle))
			b.Source = suggestion.SourceCache
			return b
		}
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		b, err := r.attempt(ctx, product)
		if err == nil {
			telemetry.Info("classifier.advisory_ok", map[string]any{
				"profile":    b.Tier.String(),
				"confidence": b.Confidence,
				"attempt":    attempt,
			})
			if r.cache != nil {
				r.cache.SetDefault(key, cloneBundle(b))
			}
			return b
		}
		metrics.IncAdvisoryAttemptFailed()
		telemetry.Warn("classifier.advisory_failed", map[string]any{
			"attempt":      attempt,
			"max_attempts": r.maxAttempts,
			"error":        err.Error(),
		})
		if attempt == r.maxAttempts {
			break
		}
		if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
			break
		}
	}
	return r.fallback(product)
}

func (r *Resolver) attempt(ctx context.Context, product suggestion.ProductInfo) (suggestion.Bundle, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return suggestion.Bundle{}, err
		}
	}
	raw, err := r.advisor.Suggest(ctx, product)
	if err != nil {
		return suggestion.Bundle{}, err
	}
	return parseAdvisory(raw)
}

// backoff doubles from the base delay: 1s, 2s, 4s, ...
func (r *Resolver) backoff(attempt int) time.Duration {
	return r.baseDelay << (attempt - 1)
}

func (r *Resolver) fallback(product suggestion.ProductInfo) suggestion.Bundle {
	metrics.IncAdvisoryFallback()
	v := classify(product, r.ceiling, r.floor)
	telemetry.Warn("classifier.fallback", map[string]any{
		"profile":    v.tier.String(),
		"confidence": v.confidence,
	})

	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return fallbackBundle(v, r.rng)
}

func (r *Resolver) recommend(t tier.Tier) []string {
	if r.registry == nil {
		return []string{}
	}
	return r.registry.Recommend(t)
}

// manualBundle is used when the caller picked the tier. Only text is set so
// the tier style table drives colors.
func manualBundle(t tier.Tier) suggestion.Bundle {
	return suggestion.Bundle{
		Tier:       t,
		Confidence: 100,
		Reasoning:  manualReasoning,
		Text: suggestion.TextVariants{
			FeedTitle:     "Título Personalizado",
			FeedSubtitle:  "Subtítulo Personalizado",
			FeedCTA:       "Saiba Mais",
			StoryTitle:    "Título Story",
			StorySubtitle: "Subtítulo Story",
			StoryCTA:      "Fale Conosco",
			Title:         "Título Personalizado",
			Subtitle:      "Subtítulo Personalizado",
			CTA:           "Saiba Mais",
		},
		Source: suggestion.SourceManual,
	}
}

func cacheKey(p suggestion.ProductInfo) string {
	return util.HashKey(
		util.Fold(p.Description),
		util.Fold(p.TargetAudience),
		util.Fold(p.Location),
		util.Fold(p.Budget),
		util.Fold(p.Duration),
		strconv.Itoa(len(p.Images)),
	)
}

// cloneBundle copies the pointer sections so cached entries are never
// mutated by callers.
func cloneBundle(b suggestion.Bundle) suggestion.Bundle {
	out := b
	out.RecommendedTemplates = append([]string(nil), b.RecommendedTemplates...)
	if b.Colors != nil {
		c := b.Colors.Clone()
		out.Colors = &c
	}
	if b.Effects != nil {
		e := *b.Effects
		if b.Effects.Rotation != nil {
			e.Rotation = copyRotation(b.Effects.Rotation)
		}
		out.Effects = &e
	}
	if b.Layout != nil {
		l := *b.Layout
		out.Layout = &l
	}
	if b.Positioning != nil {
		p := b.Positioning.Clone()
		out.Positioning = &p
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
