package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/zapleads/zapleads/internal/api/router"
	appconfig "github.com/zapleads/zapleads/internal/config"
	"github.com/zapleads/zapleads/internal/dispatch"
	"github.com/zapleads/zapleads/internal/events"
	"github.com/zapleads/zapleads/internal/http/handlers"
	"github.com/zapleads/zapleads/internal/leads"
	"github.com/zapleads/zapleads/internal/messaging/evolution"
	"github.com/zapleads/zapleads/internal/notify"
	"github.com/zapleads/zapleads/internal/observability/metrics"
	"github.com/zapleads/zapleads/internal/reply"
	"github.com/zapleads/zapleads/internal/templates"
	"github.com/zapleads/zapleads/internal/tenants"
	"github.com/zapleads/zapleads/internal/transcript"
	"github.com/zapleads/zapleads/internal/webhook"
	"github.com/zapleads/zapleads/pkg/logging"
)

// tenantFallback resolves instances from the database first, then from the
// environment defaults for single-org installs.
type tenantFallback struct {
	primary tenants.Store
	static  tenants.Store
}

func (t tenantFallback) ByInstance(ctx context.Context, instance string) (*tenants.Settings, error) {
	settings, err := t.primary.ByInstance(ctx, instance)
	if errors.Is(err, tenants.ErrTenantNotFound) {
		return t.static.ByInstance(ctx, instance)
	}
	return settings, err
}

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting zapleads messaging core",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	transcriptDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open transcript db", "error", err)
		os.Exit(1)
	}
	defer transcriptDB.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(reg)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	leadsRepo := leads.NewPostgresRepository(pool)
	templatesRepo := templates.NewPostgresRepository(pool)
	transcripts := transcript.NewStore(transcriptDB)
	processed := events.NewCachedProcessedStore(events.NewProcessedStore(pool), redisClient, 24*time.Hour, logger.Logger)

	tenantStore := tenantFallback{
		primary: tenants.NewPostgresStore(pool),
		static: tenants.NewStaticStore(tenants.Settings{
			OrgID:          cfg.DefaultOrgID,
			Instance:       cfg.GatewayInstance,
			GatewayBaseURL: cfg.GatewayBaseURL,
			GatewayAPIKey:  cfg.GatewayAPIKey,
			SenderCompany:  cfg.SenderCompany,
			SenderName:     cfg.SenderName,
			SenderCategory: cfg.SenderCategory,
		}),
	}

	gatewayDefaults := evolution.Config{
		BaseURL:  cfg.GatewayBaseURL,
		APIKey:   cfg.GatewayAPIKey,
		Instance: cfg.GatewayInstance,
		Timeout:  cfg.GatewayTimeout,
		Logger:   logger.Logger,
	}
	gateway, err := evolution.New(gatewayDefaults)
	if err != nil {
		logger.Error("failed to create gateway client", "error", err)
		os.Exit(1)
	}
	gateways := evolution.NewRegistry(gatewayDefaults)

	llm, modelID := buildLLMClient(ctx, cfg, logger)
	sender := templates.SenderContext{
		Company:  cfg.SenderCompany,
		Name:     cfg.SenderName,
		Category: cfg.SenderCategory,
	}
	generator := reply.NewGenerator(reply.GeneratorConfig{
		LLM:       llm,
		ModelID:   modelID,
		MaxTokens: int32(cfg.ReplyMaxTokens),
		Fallback:  cfg.FallbackReply,
		Sender:    sender,
		Logger:    logger.Logger,
		Metrics:   appMetrics,
	})

	processor, err := webhook.NewProcessor(webhook.ProcessorConfig{
		Leads:            leadsRepo,
		Transcripts:      transcripts,
		Processed:        processed,
		Reply:            generator,
		Gateway:          gateway,
		Gateways:         gateways,
		Tenants:          tenantStore,
		ContextTurnLimit: cfg.ContextTurnLimit,
		Logger:           logger.Logger,
		Metrics:          appMetrics,
	})
	if err != nil {
		logger.Error("failed to create webhook processor", "error", err)
		os.Exit(1)
	}

	engineCfg := dispatch.Config{
		Leads:       leadsRepo,
		Templates:   templatesRepo,
		Gateway:     gateway,
		Sender:      sender,
		SendDelay:   cfg.DispatchSendDelay,
		SendTimeout: cfg.DispatchSendTimeout,
		Logger:      logger.Logger,
		Metrics:     appMetrics,
	}
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		if reporter := notify.NewDispatchReporter(sg, cfg.DispatchReportTo, logger); reporter != nil {
			engineCfg.Notifier = reporter
		}
	}
	engine, err := dispatch.NewEngine(engineCfg)
	if err != nil {
		logger.Error("failed to create dispatch engine", "error", err)
		os.Exit(1)
	}

	r := router.New(&router.Config{
		Logger: logger,
		WhatsAppWebhooks: handlers.NewWhatsAppWebhookHandler(handlers.WhatsAppWebhookConfig{
			Processor: processor,
			Logger:    logger,
		}),
		Dispatch: handlers.NewDispatchHandler(handlers.DispatchConfig{
			Engine:       engine,
			DefaultOrgID: cfg.DefaultOrgID,
			Logger:       logger,
		}),
		Templates: handlers.NewTemplatesHandler(handlers.TemplatesConfig{
			Repo:         templatesRepo,
			DefaultOrgID: cfg.DefaultOrgID,
			Logger:       logger,
		}),
		Leads: handlers.NewLeadsHandler(handlers.LeadsConfig{
			Repo:         leadsRepo,
			DefaultOrgID: cfg.DefaultOrgID,
			Logger:       logger,
		}),
		Tenants: handlers.NewTenantsHandler(handlers.TenantsConfig{
			Store:  tenants.NewPostgresStore(pool),
			Logger: logger,
		}),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLLMClient selects the reply model from configuration. A missing or
// misconfigured provider is not fatal: replies fall back to the canned text.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (reply.LLMClient, string) {
	switch cfg.LLMProvider {
	case "bedrock":
		if cfg.BedrockModelID == "" {
			logger.Warn("bedrock selected but BEDROCK_MODEL_ID is empty, replies will use the fallback text")
			return nil, ""
		}
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
		if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			logger.Warn("failed to load AWS config, replies will use the fallback text", "error", err)
			return nil, ""
		}
		return reply.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg)), cfg.BedrockModelID
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			logger.Warn("no gemini api key configured, replies will use the fallback text")
			return nil, ""
		}
		client, err := reply.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("failed to create gemini client, replies will use the fallback text", "error", err)
			return nil, ""
		}
		return client, cfg.GeminiModelID
	default:
		logger.Warn("unknown LLM provider, replies will use the fallback text", "provider", cfg.LLMProvider)
		return nil, ""
	}
}
