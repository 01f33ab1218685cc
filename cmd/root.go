package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spigell/placement-engine/internal/cache"
	"github.com/spigell/placement-engine/internal/career"
	"github.com/spigell/placement-engine/internal/jobsearch"
	"github.com/spigell/placement-engine/internal/matching"
	"github.com/spigell/placement-engine/internal/server"
	"github.com/spigell/placement-engine/internal/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "placement-engine"
	envPrefix = "PLACEMENT"
)

type Config struct {
	Server   server.Config     `mapstructure:"server"`
	Database DatabaseConfig    `mapstructure:"database"`
	Redis    cache.RedisConfig `mapstructure:"redis"`
	Weights  career.Weights    `mapstructure:"weights"`
	Budget   types.Budget      `mapstructure:"budget"`
	Scoring  matching.Config   `mapstructure:"scoring"`
	AI       AIConfig          `mapstructure:"ai"`
	Provider ProviderConfig    `mapstructure:"provider"`
}

type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	URLFile string `mapstructure:"url-file"`
}

type AIConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey          string `mapstructure:"api-key"`
	APIKeyFile      string `mapstructure:"api-key-file"`
	Model           string `mapstructure:"model"`
	MaxOutputTokens int    `mapstructure:"max-output-tokens"`
	MaxLogLength    int    `mapstructure:"max-log-length"`
	// ThinkingBudget overrides the per-model default when set. Negative lets
	// the model decide.
	ThinkingBudget *int `mapstructure:"thinking-budget"`
}

// ProviderConfig configures the external job-search provider. Without a key
// external searches return no results.
type ProviderConfig struct {
	jobsearch.Config `mapstructure:",squash"`
	APIKey           string `mapstructure:"api-key"`
	APIKeyFile       string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "placement-engine scores candidates and recommends jobs for them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindEnv("database.url", "DATABASE_URL")
	bindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE")
	bindEnv("provider.api-key-file", "JOBSEARCH_API_KEY_FILE")

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is placement-engine.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// bindEnv binds key to its PLACEMENT_ variable and to the given well-known name.
func bindEnv(key, name string) {
	if err := viper.BindEnv(key, envName(key), name); err != nil {
		log.Fatalf("binding %s environment variable: %v", name, err)
	}
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(envReplacer.Replace(key))
}

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

func setDefaults() {
	srv := server.DefaultConfig()
	viper.SetDefault("server.addr", srv.Addr)
	viper.SetDefault("server.read-timeout", srv.ReadTimeout)
	viper.SetDefault("server.write-timeout", srv.WriteTimeout)
	viper.SetDefault("server.shutdown-timeout", srv.ShutdownTimeout)

	viper.SetDefault("database.url-file", "")

	viper.SetDefault("redis.address", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", cache.DefaultTTL)

	w := career.DefaultWeights()
	viper.SetDefault("weights.resume", w.Resume)
	viper.SetDefault("weights.social", w.Social)
	viper.SetDefault("weights.skill-path", w.SkillPath)
	viper.SetDefault("weights.activity", w.Activity)
	viper.SetDefault("weights.version", w.Version)

	b := types.DefaultBudget()
	viper.SetDefault("budget.max-queries", b.MaxQueries)
	viper.SetDefault("budget.max-results-per-query", b.MaxResultsPerQuery)
	viper.SetDefault("budget.max-scored", b.MaxScored)
	viper.SetDefault("budget.max-feed", b.MaxFeed)
	viper.SetDefault("budget.max-catalog-scored", b.MaxCatalogScored)
	viper.SetDefault("budget.concurrency", b.Concurrency)

	s := matching.DefaultConfig()
	viper.SetDefault("scoring.default-score", s.DefaultScore)
	viper.SetDefault("scoring.timeout", s.Timeout)
	viper.SetDefault("scoring.max-matched", s.MaxMatched)
	viper.SetDefault("scoring.max-missing", s.MaxMissing)

	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-output-tokens", 512)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("provider.url", "")
	viper.SetDefault("provider.host", "")
	viper.SetDefault("provider.timeout", "10s")
	viper.SetDefault("provider.min-interval", "250ms")
	viper.SetDefault("provider.burst", 1)
	viper.SetDefault("provider.api-key", "")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// An explicit config must parse. The default one is optional since
	// everything can come from the environment.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
