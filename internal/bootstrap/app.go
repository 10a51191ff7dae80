package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"campaign-backend/internal/campaign"
	"campaign-backend/internal/classifier"
	"campaign-backend/internal/llm"
	openai "campaign-backend/internal/llm/openai"
	"campaign-backend/internal/regions"
	"campaign-backend/internal/render"
	"campaign-backend/internal/render/canvas"
	"campaign-backend/internal/render/remote"
	"campaign-backend/internal/services/health"
	"campaign-backend/internal/shared/config"
	"campaign-backend/internal/shared/server"
	"campaign-backend/internal/shared/storage/db"
	"campaign-backend/internal/shared/storage/object"
	localstore "campaign-backend/internal/shared/storage/object/local"
	s3store "campaign-backend/internal/shared/storage/object/s3"
	"campaign-backend/internal/shared/telemetry"
	"campaign-backend/internal/templates"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Templates *templates.Registry
	Engine    render.Engine

	CampaignRepo    campaign.Repo
	CampaignService *campaign.Service
	CampaignHandler *campaign.Handler
	Health          *health.Service
}

// Build wires configuration into stores, services and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Templates: templates.NewDefault(cfg.TemplatesDir),
		Engine:    engine,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.Health,
		CampaignHandler: app.CampaignHandler,
	})
	return app, nil
}

// PrepareTemplates creates placeholder template resources at startup in
// dev-like environments only. Elsewhere resources are provisioned through
// POST /templates/initialize or by deployment, so the availability check
// keeps reflecting what is really on disk. It reports whether it ran.
func (a *App) PrepareTemplates() (bool, error) {
	if !a.Config.IsDevLike() {
		return false, nil
	}
	return true, a.CampaignService.InitializeTemplates()
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "migrations failed", "error": err.Error()})
			return nil, nil
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildEngine(cfg config.Config) (render.Engine, error) {
	switch cfg.RenderEngine {
	case "remote":
		return remote.New(cfg.RenderURL, cfg.RenderTimeout)
	default:
		return canvas.New(canvas.Options{}), nil
	}
}

func buildClient(cfg config.Config) (*openai.Client, error) {
	if cfg.LLMProvider != "openai" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"reason": "OPENAI_API_KEY empty"})
		return nil, nil
	}
	return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, openai.Options{
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout,
	})
}

func buildServices(app *App) error {
	cfg := app.Config

	var (
		advisor llm.Advisor = llm.PlaceholderClient{}
		replier llm.Replier = llm.PlaceholderClient{}
	)
	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	if client != nil {
		advisor, replier = client, client
	}

	opts := classifier.Options{
		MaxAttempts:   cfg.AdvisoryMaxAttempts,
		BaseDelay:     cfg.AdvisoryBaseDelay,
		BudgetCeiling: cfg.BudgetCeiling,
		BudgetFloor:   cfg.BudgetFloor,
		CacheTTL:      cfg.AdvisoryCacheTTL,
	}
	if cfg.AdvisoryRPS > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.AdvisoryRPS), max(1, cfg.AdvisoryBurst))
	}
	if cfg.FallbackSeed != 0 {
		seed := uint64(cfg.FallbackSeed)
		opts.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	resolver := classifier.New(advisor, app.Templates, opts)

	var repo campaign.Repo
	if app.DB != nil {
		repo = &campaign.PGRepo{DB: app.DB}
	} else {
		repo = campaign.NewMemoryRepo()
	}

	svc := &campaign.Service{
		Resolver:      resolver,
		Templates:     app.Templates,
		Planner:       regions.NewMapper(app.Templates),
		Engine:        app.Engine,
		Store:         app.Store,
		Replier:       replier,
		Repo:          repo,
		OutputPrefix:  cfg.OutputPrefix,
		RenderTimeout: cfg.RenderTimeout,
		Concurrency:   cfg.RenderConcurrency,
	}

	app.CampaignRepo = repo
	app.CampaignService = svc
	app.CampaignHandler = campaign.NewHandler(svc, cfg.MaxUploadBytes, cfg.MaxUploadFiles)
	app.Health = health.NewService(cfg.TemplatesDir)
	return nil
}
