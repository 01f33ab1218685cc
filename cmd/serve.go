package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("migrate", false, "create missing tables before serving")
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	logger.Info("starting the placement-engine", zap.String("version", version))

	e, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing the engine", zap.Error(err))
	}
	defer e.close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := e.db.EnsureSchema(ctx); err != nil {
			logger.Fatal("applying the schema", zap.Error(err))
		}
		logger.Info("schema is up to date")
	}

	srv := server.New(config.Server, server.Deps{
		Career:      e.career,
		Scores:      e.db,
		Recommender: e.orchestrator,
		External:    e.external,
		Health:      e.db,
		Metrics:     e.metrics,
		Budget:      config.Budget,
		Logger:      logger,
	})

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("stopped")
}

// setup builds the logger and reads the configuration. Both failures are fatal.
func setup() (*zap.Logger, *Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		l.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return l, config
}

// redacted returns a copy of config without inline secrets.
func redacted(config *Config) Config {
	c := *config
	if c.Database.URL != "" {
		c.Database.URL = "***"
	}
	if c.Redis.Password != "" {
		c.Redis.Password = "***"
	}
	if c.AI.Gemini.APIKey != "" {
		c.AI.Gemini.APIKey = "***"
	}
	if c.Provider.APIKey != "" {
		c.Provider.APIKey = "***"
	}
	return c
}
