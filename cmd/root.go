package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "lumina-offer"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Line     *LineConfig     `mapstructure:"line"`
	Gemini   *GeminiConfig   `mapstructure:"gemini"`
	SendGrid *SendGridConfig `mapstructure:"sendgrid"`
	DB       *DBConfig       `mapstructure:"db"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Geocoder *GeocoderConfig `mapstructure:"geocoder"`
	Dispatch *DispatchConfig `mapstructure:"dispatch"`

	// Timezone governs the send-time cadence. Defaults to Asia/Tokyo.
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LineConfig struct {
	ChannelSecretFile      string `mapstructure:"channel-secret-file"`
	ChannelAccessTokenFile string `mapstructure:"channel-access-token-file"`
	ScheduleLiffID         string `mapstructure:"schedule-liff-id"`
	QuestionnaireLiffID    string `mapstructure:"questionnaire-liff-id"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type SendGridConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	From       string `mapstructure:"from"`
	Operator   string `mapstructure:"operator"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type GeocoderConfig struct {
	BaseURL   string `mapstructure:"base-url"`
	UserAgent string `mapstructure:"user-agent"`
}

type DispatchConfig struct {
	SecretFile string `mapstructure:"secret-file"`
	CronSpec   string `mapstructure:"cron-spec"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "lumina-offer matches beauty salon postings to registered candidates and delivers scouting offers over LINE",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("line.channel-secret-file", "LINE_CHANNEL_SECRET_FILE"); err != nil {
		log.Fatalf("binding LINE_CHANNEL_SECRET_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("line.channel-access-token-file", "LINE_CHANNEL_ACCESS_TOKEN_FILE"); err != nil {
		log.Fatalf("binding LINE_CHANNEL_ACCESS_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("db.password", "DB_PASSWORD"); err != nil {
		log.Fatalf("binding DB_PASSWORD environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is lumina-offer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the serve and import commands. If there is no config, we can skip initialization
	if serveCmd.CalledAs() == "" && importCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
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
