package config

import (
	"context"
	"fmt"

	"magician-server/internal/domain"
	"magician-server/internal/infra/jwks"
	"magician-server/internal/infra/openai"
	"magician-server/internal/infra/replicate"
	"magician-server/internal/infra/stripe"
	"magician-server/internal/infra/supabase"
	"magician-server/internal/infra/vertex"
	"magician-server/internal/repository"
	"magician-server/internal/service"
	"magician-server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient

	UsageRepository        domain.UsageRepository
	SubscriptionRepository domain.SubscriptionRepository

	AuthService       domain.AuthService
	EntitlementGate   domain.EntitlementGate
	GenerationService domain.GenerationService
	BillingService    domain.BillingService
	LedgerSync        domain.LedgerSync
	// BillingGateway is nil when Stripe is not configured.
	BillingGateway domain.BillingGateway

	closers []func()
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) (*Container, error) {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	c := &Container{
		Config: config,
		Logger: appLogger,
	}

	if err := c.initStores(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initAuth(); err != nil {
		c.Close()
		return nil, err
	}

	chat, err := c.newChatProvider(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	images := c.newImageProvider()
	media, err := c.newMediaProvider()
	if err != nil {
		c.Close()
		return nil, err
	}

	gate := service.NewEntitlementService(c.UsageRepository, c.SubscriptionRepository, appLogger, config.GetFreeGenerationLimit())
	c.EntitlementGate = gate
	c.GenerationService = service.NewGenerationService(gate, chat, images, media, appLogger, config.GetProviderTimeout())

	if config.GetStripeKey() != "" {
		c.BillingGateway = stripe.NewGateway(config.GetStripeKey(), config.GetStripeWebhookSecret(), config.GetStripePriceID())
	} else {
		appLogger.Warn("STRIPE_API_KEY not set, billing routes will fail")
	}
	c.BillingService = service.NewBillingService(c.BillingGateway, c.SubscriptionRepository, appLogger, config.GetAppURL())
	c.LedgerSync = service.NewLedgerService(c.BillingGateway, c.SubscriptionRepository, appLogger)

	return c, nil
}

// initStores prefers a direct Postgres connection and falls back to Supabase PostgREST.
func (c *Container) initStores(ctx context.Context) error {
	if c.needsSupabase() {
		client := supabase.NewSupabaseClient(c.Config, c.Logger)
		if err := client.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize supabase: %w", err)
		}
		c.SupabaseClient = client
	}

	if dsn := c.Config.GetDatabaseURL(); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to reach database: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		c.UsageRepository = repository.NewPostgresUsageRepository(pool)
		c.SubscriptionRepository = repository.NewPostgresSubscriptionRepository(pool)
		c.Logger.Info("Using Postgres store")
		return nil
	}

	if c.SupabaseClient == nil {
		return fmt.Errorf("no store configured: set DATABASE_URL or SUPABASE_URL")
	}
	c.UsageRepository = repository.NewSupabaseUsageRepository(c.SupabaseClient, c.Logger)
	c.SubscriptionRepository = repository.NewSupabaseSubscriptionRepository(c.SupabaseClient, c.Logger)
	c.Logger.Info("Using Supabase store")
	return nil
}

func (c *Container) needsSupabase() bool {
	return c.Config.GetAuthProvider() == "supabase" || c.Config.GetDatabaseURL() == ""
}

func (c *Container) initAuth() error {
	switch c.Config.GetAuthProvider() {
	case "supabase":
		c.AuthService = service.NewAuthService(c.SupabaseClient, c.Logger)
	case "jwks":
		verifier, err := jwks.NewVerifier(c.Config.GetJWTIssuer(), c.Config.GetJWTAudience(), c.Config.GetJWKSURL())
		if err != nil {
			return fmt.Errorf("failed to create jwks verifier: %w", err)
		}
		c.AuthService = service.NewAuthService(verifier, c.Logger)
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.Config.GetAuthProvider())
	}
	return nil
}

// newChatProvider returns nil when the selected provider has no credentials.
func (c *Container) newChatProvider(ctx context.Context) (domain.ChatProvider, error) {
	switch c.Config.GetChatProvider() {
	case "openai":
		if c.Config.GetOpenAIKey() == "" {
			c.Logger.Warn("OPENAI_API_KEY not set, conversation and code are disabled")
			return nil, nil
		}
		return openai.NewClient(c.Config.GetOpenAIKey(), c.Config.GetOpenAIChatModel()), nil
	case "vertex":
		if c.Config.GetGCPProjectID() == "" {
			c.Logger.Warn("GCP_PROJECT_ID not set, conversation and code are disabled")
			return nil, nil
		}
		client, err := vertex.NewClient(ctx, c.Config.GetGCPProjectID(), c.Config.GetGCPLocation(), c.Config.GetVertexChatModel())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = client.Close() })
		return client, nil
	default:
		return nil, fmt.Errorf("unknown CHAT_PROVIDER %q", c.Config.GetChatProvider())
	}
}

func (c *Container) newImageProvider() domain.ImageProvider {
	if c.Config.GetOpenAIKey() == "" {
		c.Logger.Warn("OPENAI_API_KEY not set, image generation is disabled")
		return nil
	}
	return openai.NewClient(c.Config.GetOpenAIKey(), c.Config.GetOpenAIChatModel())
}

func (c *Container) newMediaProvider() (domain.MediaProvider, error) {
	if c.Config.GetReplicateToken() == "" {
		c.Logger.Warn("REPLICATE_API_TOKEN not set, music and video are disabled")
		return nil, nil
	}
	return replicate.NewClient(c.Config.GetReplicateToken(), c.Config.GetReplicateMusicModel(), c.Config.GetReplicateVideoModel())
}

// Close releases pooled connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
