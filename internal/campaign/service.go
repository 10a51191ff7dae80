// Package campaign drives classification, region mapping and rendering for
// one listing, and keeps the history of generated campaigns.
package campaign

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"campaign-backend/internal/llm"
	"campaign-backend/internal/regions"
	"campaign-backend/internal/render"
	"campaign-backend/internal/shared/metrics"
	"campaign-backend/internal/shared/storage/object"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/shared/util"
	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/templates"
	"campaign-backend/internal/tier"
)

// Resolver produces a suggestion bundle for a listing and never fails.
type Resolver interface {
	Resolve(ctx context.Context, product suggestion.ProductInfo, forced *tier.Tier) suggestion.Bundle
}

// Planner computes the region mutations for one template.
type Planner interface {
	Plan(template string, in regions.Input) []render.Mutation
}

// Service contains the campaign pipeline.
type Service struct {
	Resolver  Resolver
	Templates *templates.Registry
	Planner   Planner
	Engine    render.Engine
	Store     object.ObjectStore
	Replier   llm.Replier
	Repo      Repo

	OutputPrefix  string
	RenderTimeout time.Duration
	// Concurrency bounds how many templates render at once. Values below 1
	// render sequentially.
	Concurrency int

	Now func() time.Time
}

// Generation is the outcome of one generate call.
type Generation struct {
	RunID   string            `json:"campaignId,omitempty"`
	Bundle  suggestion.Bundle `json:"analysis"`
	Results []Result          `json:"results"`
}

// Succeeded counts the rendered templates.
func (g Generation) Succeeded() int {
	n := 0
	for _, r := range g.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// Analyze classifies a listing without rendering.
func (s *Service) Analyze(ctx context.Context, product suggestion.ProductInfo) suggestion.Bundle {
	telemetry.Info("campaign.analyze", nil)
	return s.Resolver.Resolve(ctx, product.Sanitized(), nil)
}

// Generate classifies a listing, or uses the forced tier, and renders every
// recommended template. Per-template failures are reported in the results.
func (s *Service) Generate(ctx context.Context, product suggestion.ProductInfo, forced *tier.Tier) Generation {
	product = product.Sanitized()
	fields := map[string]any{"forced": forced != nil}
	if forced != nil {
		fields["tier"] = forced.String()
	}
	telemetry.Info("campaign.generate", fields)

	b := s.Resolver.Resolve(ctx, product, forced)
	results := s.renderAll(ctx, product, b)
	return Generation{RunID: s.record(ctx, b, results), Bundle: b, Results: results}
}

// Chat handles one conversational turn. It always returns a response; any
// unexpected failure yields the generic apology.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (resp ChatResponse) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("campaign.chat_panic", map[string]any{"panic": fmt.Sprint(r)})
			resp = ChatResponse{Message: apologyMessage}
		}
	}()

	req.Message = suggestion.SanitizeText(req.Message)
	if req.Product != nil {
		p := req.Product.Sanitized()
		req.Product = &p
	}
	telemetry.Info("campaign.chat", map[string]any{
		"message_length": len(req.Message),
		"has_product":    req.Product != nil,
		"images":         len(req.Images),
	})

	var (
		analysis *suggestion.Bundle
		results  []Result
	)
	if ShouldAnalyze(req) {
		product := productFor(req)
		b := s.Resolver.Resolve(ctx, product, nil)
		if len(b.RecommendedTemplates) > 0 {
			results = s.renderAll(ctx, product, b)
		} else {
			telemetry.Warn("campaign.no_templates", map[string]any{"tier": b.Tier.String()})
		}
		s.record(ctx, b, results)
		analysis = &b
	}

	if err := ctx.Err(); err != nil {
		telemetry.Error("campaign.chat_failed", map[string]any{"error": err})
		return ChatResponse{Message: apologyMessage}
	}

	reply := s.reply(ctx, req)
	resp = ChatResponse{Message: reply, Analysis: analysis}
	for _, r := range results {
		if r.Success {
			resp.GeneratedImages = append(resp.GeneratedImages, r.image())
		}
	}
	if analysis != nil {
		resp.Message = enrichReply(reply, *analysis, results)
	}
	telemetry.Info("campaign.chat_completed", map[string]any{
		"has_analysis": analysis != nil,
		"generated":    len(resp.GeneratedImages),
	})
	return resp
}

func (s *Service) reply(ctx context.Context, req ChatRequest) string {
	if s.Replier == nil {
		return replyFailure
	}
	text, err := s.Replier.Reply(ctx, llm.ReplyInput{Message: req.Message, Product: req.Product, Images: req.Images})
	if err != nil || text == "" {
		fields := map[string]any{}
		if err != nil {
			fields["error"] = err
		}
		telemetry.Warn("campaign.reply_failed", fields)
		return replyFailure
	}
	return text
}

// renderAll renders the bundle's templates with at most Concurrency sessions
// open. Workers never return errors, so one failed template cannot cancel
// the others.
func (s *Service) renderAll(ctx context.Context, product suggestion.ProductInfo, b suggestion.Bundle) []Result {
	names := b.RecommendedTemplates
	results := make([]Result, len(names))
	if len(names) == 0 {
		return results
	}
	metrics.IncGenerations()

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			results[i] = s.renderOne(ctx, product, b, i, name)
			return nil
		})
	}
	_ = g.Wait()

	telemetry.Info("campaign.generated", map[string]any{
		"tier":      b.Tier.String(),
		"requested": len(results),
		"succeeded": Generation{Results: results}.Succeeded(),
	})
	return results
}

func (s *Service) renderOne(ctx context.Context, product suggestion.ProductInfo, b suggestion.Bundle, index int, name string) (res Result) {
	res = Result{Template: name}
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Template: name, Error: fmt.Sprintf("render panicked: %v", r)}
		}
		if res.Success {
			metrics.IncRenderSucceeded()
		} else {
			metrics.IncRenderFailed()
			telemetry.Error("campaign.render_failed", map[string]any{"template": name, "tier": b.Tier.String(), "error": res.Error})
		}
	}()

	desc, ok := s.Templates.ByName(name)
	if !ok {
		res.Error = fmt.Errorf("%w: %s", templates.ErrNotFound, name).Error()
		return res
	}
	res.Format = desc.Format
	if !s.Templates.IsAvailable(name) {
		res.Error = fmt.Errorf("%w: %s", templates.ErrUnavailable, s.Templates.Path(desc)).Error()
		return res
	}

	pinned := ""
	if n := len(product.Images); n > 0 {
		pinned = product.Images[index%n]
	}
	plan := func(rs []render.Region) []render.Mutation {
		return s.Planner.Plan(name, regions.Input{
			Bundle:      b,
			Product:     product,
			Regions:     rs,
			BatchIndex:  index,
			PinnedImage: pinned,
		})
	}

	w, h := desc.Format.Size()
	doc := render.Document{Name: name, Resource: s.Templates.Path(desc), Width: w, Height: h}
	data, err := render.Render(ctx, s.Engine, doc, s.RenderTimeout, plan)
	metrics.ObserveRenderDurationMs(float64(s.now().Sub(start).Milliseconds()))
	if err != nil {
		res.Error = err.Error()
		return res
	}

	file := fmt.Sprintf("%s_%s_%d.png", b.Tier, name, s.now().UnixMilli())
	key := path.Join(s.OutputPrefix, file)
	if _, err := s.Store.SaveWithKey(ctx, key, "image/png", bytes.NewReader(data)); err != nil {
		res.Error = fmt.Errorf("store %s: %w", key, err).Error()
		return res
	}

	res.Success = true
	res.OutputPath = key
	res.WebPath = "/output/" + file
	res.Message = "Image generated successfully"
	return res
}

// record stores the run. Storage failures are logged and do not affect the
// caller's response.
func (s *Service) record(ctx context.Context, b suggestion.Bundle, results []Result) string {
	if s.Repo == nil {
		return ""
	}
	run := Run{
		ID:         uuid.NewString(),
		Tier:       b.Tier,
		Confidence: b.Confidence,
		Source:     b.Source,
		Requested:  len(results),
		Outputs:    []string{},
		CreatedAt:  s.now().UTC(),
	}
	for _, r := range results {
		if r.Success {
			run.Succeeded++
			run.Outputs = append(run.Outputs, r.WebPath)
		}
	}
	if err := s.Repo.Create(ctx, run); err != nil {
		telemetry.Warn("campaign.record_failed", map[string]any{"campaign_id": run.ID, "error": err})
		return ""
	}
	return run.ID
}

// TemplateStatus reports which catalog resources are present.
func (s *Service) TemplateStatus() TemplateStatus {
	st := s.Templates.Status()
	return TemplateStatus{Available: len(st.Available), Missing: len(st.Missing), Details: st}
}

// InitializeTemplates creates placeholders for missing resources.
func (s *Service) InitializeTemplates() error {
	telemetry.Info("campaign.templates_initialize", map[string]any{"dir": s.Templates.Dir()})
	created, err := s.Templates.Bootstrap()
	if err != nil {
		return err
	}
	telemetry.Info("campaign.templates_initialized", map[string]any{"created": len(created)})
	return nil
}

// OpenOutput opens a rendered image by file name.
func (s *Service) OpenOutput(ctx context.Context, file string) (io.ReadCloser, error) {
	clean, err := util.SanitizeFileName(file)
	if err != nil || clean != file {
		return nil, fmt.Errorf("%w: file name", ErrInvalidInput)
	}
	rc, err := s.Store.Open(ctx, path.Join(s.OutputPrefix, clean))
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rc, err
}

// GetRun returns one stored run.
func (s *Service) GetRun(ctx context.Context, id string) (Run, error) {
	if s.Repo == nil {
		return Run{}, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("%w: campaign id", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// ListRuns returns stored runs newest first.
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	if s.Repo == nil {
		return []Run{}, nil
	}
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
