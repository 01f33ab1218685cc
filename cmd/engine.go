package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/placement-engine/internal/ai"
	"github.com/spigell/placement-engine/internal/ai/gemini"
	"github.com/spigell/placement-engine/internal/cache"
	"github.com/spigell/placement-engine/internal/career"
	"github.com/spigell/placement-engine/internal/external"
	"github.com/spigell/placement-engine/internal/jobsearch"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/matching"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/recommend"
	"github.com/spigell/placement-engine/internal/secrets"
	"github.com/spigell/placement-engine/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// engine holds the wired services shared by every command.
type engine struct {
	db           *store.DB
	redis        *redis.Client
	metrics      *metrics.Metrics
	career       *career.Aggregator
	orchestrator *recommend.Orchestrator
	external     *external.Aggregator
}

func newEngine(ctx context.Context, config *Config, log *zap.Logger) (*engine, error) {
	dbURL, err := secrets.Load(secrets.Source{
		Name:  "database url",
		Value: config.Database.URL,
		File:  config.Database.URLFile,
		Hint:  "set DATABASE_URL or database.url",
	})
	if err != nil {
		return nil, err
	}

	db, err := store.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to the database: %w", err)
	}

	e := &engine{db: db, metrics: metrics.New()}

	matcher, roles, err := newOracle(ctx, &config.AI, config.Scoring, log)
	if err != nil {
		e.close()
		return nil, err
	}

	matchCache := e.newCache(ctx, config.Redis, log)

	scorer := matching.NewScorer(matcher, matchCache, config.Scoring, log, e.metrics)

	provider, err := newProvider(&config.Provider, log)
	if err != nil {
		e.close()
		return nil, err
	}

	e.career, err = career.NewAggregator(db, db, config.Weights, log, e.metrics)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("career weights: %w", err)
	}

	e.orchestrator = recommend.NewOrchestrator(db, scorer, config.Budget, log)
	e.external = external.NewAggregator(provider, scorer, roles, db, config.Budget, log, e.metrics)

	return e, nil
}

func (e *engine) close() {
	if e.redis != nil {
		e.redis.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
}

func (e *engine) newCache(ctx context.Context, cfg cache.RedisConfig, log *zap.Logger) cache.Cache {
	if strings.TrimSpace(cfg.Address) == "" {
		log.Info("using in-process match cache", zap.Duration("ttl", cfg.TTL))
		return cache.NewMemory(cfg.TTL)
	}

	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("redis not available, using in-process match cache", zap.Error(err))
		return cache.NewMemory(cfg.TTL)
	}
	e.redis = client

	log.Info("using redis match cache", zap.String("address", cfg.Address), zap.Duration("ttl", cfg.TTL))
	return cache.NewRedis(client, cfg.TTL, log)
}

// newOracle returns nil interfaces when the oracle is disabled; scoring then
// always yields the default assessment.
func newOracle(ctx context.Context, cfg *AIConfig, scoring matching.Config, log *zap.Logger) (ai.Matcher, ai.RoleSuggester, error) {
	if !cfg.Enabled {
		log.Warn("ai oracle is disabled, every match gets the default score")
		return nil, nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Hint:  "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE",
	})
	if err != nil {
		return nil, nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxOutputTokens)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Gemini.ThinkingBudget != nil {
		generator.WithThinkingBudget(*cfg.Gemini.ThinkingBudget)
	}

	aiLogger := logger.WithCommonFields(log, "gemini", generator.Model())

	matcher := gemini.NewMatcher(generator, aiLogger, gemini.MatcherConfig{
		MaxMatched:   scoring.MaxMatched,
		MaxMissing:   scoring.MaxMissing,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	})

	return matcher, gemini.NewRoleSuggester(generator, aiLogger), nil
}

func newProvider(cfg *ProviderConfig, log *zap.Logger) (*jobsearch.Client, error) {
	apiKey, err := secrets.Optional(secrets.Source{
		Name:  "job-search api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	client := jobsearch.New(log, apiKey, cfg.Config)
	if !client.Configured() {
		log.Warn("job-search provider is not configured, external searches return no results",
			zap.String("hint", "set provider.api-key-file or JOBSEARCH_API_KEY_FILE"),
		)
	}

	return client, nil
}
