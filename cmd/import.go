package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/logger"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
	"github.com/lumina-beauty/lumina-offer/internal/store/postgres"
)

var importCmd = &cobra.Command{
	Use:   "import <postings.json>",
	Short: "Replace the salon posting master from a JSON export",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runImport(args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// runImport loads a JSON export of the posting master, keyed by the Japanese
// sheet headers, and replaces the salon_postings table with it.
func runImport(path string) {
	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.DB == nil {
		logger.Fatal("db configuration is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the export file", zap.Error(err))
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		logger.Fatal("parsing the export file", zap.Error(err))
	}

	postings, err := salon.PostingsFromRows(rows)
	if err != nil {
		logger.Fatal("converting master rows", zap.Error(err))
	}

	db, err := postgres.Open(dsn(config.DB))
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}

	repo := postgres.NewPostingRepository(db)
	if err := repo.ReplaceAll(context.Background(), postings); err != nil {
		logger.Fatal("replacing the posting master", zap.Error(err))
	}

	logger.Info("posting master replaced", zap.Int("count", postings.Len()))
}
