package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/ai/gemini"
	"github.com/lumina-beauty/lumina-offer/internal/dispatch"
	"github.com/lumina-beauty/lumina-offer/internal/geo"
	"github.com/lumina-beauty/lumina-offer/internal/jobs"
	"github.com/lumina-beauty/lumina-offer/internal/line"
	"github.com/lumina-beauty/lumina-offer/internal/logger"
	"github.com/lumina-beauty/lumina-offer/internal/mail"
	"github.com/lumina-beauty/lumina-offer/internal/offer"
	"github.com/lumina-beauty/lumina-offer/internal/ranking"
	"github.com/lumina-beauty/lumina-offer/internal/schedule"
	"github.com/lumina-beauty/lumina-offer/internal/secrets"
	"github.com/lumina-beauty/lumina-offer/internal/server"
	"github.com/lumina-beauty/lumina-offer/internal/store/postgres"
)

const (
	defaultPort     = "8080"
	defaultTimezone = "Asia/Tokyo"

	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lumina-offer HTTP server and background jobs",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve(_ *cobra.Command) {
	// A local .env is a development convenience, its absence is fine.
	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the lumina-offer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.Line == nil {
		logger.Fatal("line configuration is required")
	}
	if config.Gemini == nil {
		logger.Fatal("gemini configuration is required")
	}
	if config.DB == nil {
		logger.Fatal("db configuration is required")
	}

	channelSecret, err := secrets.Load(secrets.Source{
		Name: "line channel secret",
		File: config.Line.ChannelSecretFile,
	})
	if err != nil {
		logger.Fatal("loading line channel secret", zap.Error(err),
			zap.String("hint", "set LINE_CHANNEL_SECRET_FILE or line.channel-secret-file"))
	}

	accessToken, err := secrets.Load(secrets.Source{
		Name: "line channel access token",
		File: config.Line.ChannelAccessTokenFile,
	})
	if err != nil {
		logger.Fatal("loading line channel access token", zap.Error(err),
			zap.String("hint", "set LINE_CHANNEL_ACCESS_TOKEN_FILE or line.channel-access-token-file"))
	}

	geminiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
	})
	if err != nil {
		logger.Fatal("loading gemini api key", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE or gemini.api-key-file"))
	}

	location, err := time.LoadLocation(timezone(config))
	if err != nil {
		logger.Fatal("loading timezone", zap.Error(err))
	}

	ctx := context.Background()

	db, err := postgres.Open(dsn(config.DB))
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}

	users := postgres.NewUserRepository(db)
	postings := postgres.NewPostingRepository(db)
	history := postgres.NewHistoryRepository(db)
	queue := postgres.NewQueueRepository(db)

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", config.Gemini.Model),
		zap.Int("ai_retry_attempts", config.Gemini.MaxRetries),
	)
	generator, err := gemini.NewGenerator(ctx, geminiKey, config.Gemini.Model, config.Gemini.MaxRetries, genLogger)
	if err != nil {
		logger.Fatal("building gemini generator", zap.Error(err))
	}
	assistant := gemini.NewAssistant(generator, config.Gemini.MaxLogLength, genLogger)

	resolver := buildResolver(config, logger)

	lineClient := line.NewClient(accessToken, logger)
	rankingService := ranking.New(assistant, logger)
	builder := schedule.NewBuilder(location)

	offers := offer.NewService(
		users, postings, history, queue,
		resolver, rankingService, builder, lineClient, logger,
	)

	sweeper := dispatch.NewSweeper(
		users, postings, history, queue,
		assistant, lineClient, config.Line.ScheduleLiffID, location, logger,
	)

	notifier := buildNotifier(config, logger)

	dispatchSecret, cronSpec := dispatchSettings(config, logger)

	srv := server.New(
		offers, sweeper, users, history, notifier, lineClient,
		channelSecret, dispatchSecret, config.Line.QuestionnaireLiffID, logger,
	)

	dispatchJob := jobs.NewDispatchJob(sweeper, cronSpec, logger)
	if err := dispatchJob.Start(); err != nil {
		logger.Fatal("starting dispatch job", zap.Error(err))
	}

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", port(config))
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	dispatchJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
}

func buildResolver(config *Config, logger *zap.Logger) geo.Resolver {
	baseURL, userAgent := "", ""
	if config.Geocoder != nil {
		baseURL = config.Geocoder.BaseURL
		userAgent = config.Geocoder.UserAgent
	}

	var resolver geo.Resolver = geo.NewClient(baseURL, userAgent, logger)

	var redisClient *redis.Client
	if config.Redis != nil && config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.Redis.Addr})
	} else {
		logger.Warn("redis is not configured, geocoding cache disabled")
	}

	return geo.NewCachedResolver(resolver, redisClient, 0, logger)
}

func buildNotifier(config *Config, logger *zap.Logger) mail.Notifier {
	if config.SendGrid == nil {
		logger.Warn("sendgrid is not configured, operator notifications disabled")
		return mail.Disabled{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "sendgrid api key",
		File: config.SendGrid.APIKeyFile,
	})
	if err != nil {
		logger.Warn("operator notifications disabled", zap.Error(err))
		return mail.Disabled{}
	}

	return mail.NewSendGrid(apiKey, config.SendGrid.From, config.SendGrid.Operator, logger)
}

func dispatchSettings(config *Config, logger *zap.Logger) (secret, cronSpec string) {
	if config.Dispatch == nil {
		logger.Fatal("dispatch configuration is required")
	}

	secret, err := secrets.Load(secrets.Source{
		Name: "dispatch secret",
		File: config.Dispatch.SecretFile,
	})
	if err != nil {
		logger.Fatal("loading dispatch secret", zap.Error(err),
			zap.String("hint", "set dispatch.secret-file"))
	}

	return secret, config.Dispatch.CronSpec
}

func timezone(config *Config) string {
	if config.Timezone != "" {
		return config.Timezone
	}
	return defaultTimezone
}

func port(config *Config) string {
	if config.Server != nil && config.Server.Port != "" {
		return config.Server.Port
	}
	return defaultPort
}

func dsn(db *DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
	)
}
