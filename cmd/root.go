package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai/gemini"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/worker"
)

const (
	app = "job-recommender"
)

type Config struct {
	DatabaseURL string           `mapstructure:"database-url"`
	RedisURL    string           `mapstructure:"redis-url"`
	Fixtures    string           `mapstructure:"fixtures"`
	MetricsAddr string           `mapstructure:"metrics-addr"`
	Recommend   recommend.Config `mapstructure:"recommend"`
	Filters     FiltersConfig    `mapstructure:"filters"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Worker      worker.Config    `mapstructure:"worker"`
	AI          *AIConfig        `mapstructure:"ai"`
}

type FiltersConfig struct {
	ExcludeCompanies   []string `mapstructure:"exclude-companies"`
	ExcludeFile        string   `mapstructure:"exclude-file"`
	HistoryGenerations int      `mapstructure:"history-generations" validate:"gte=0"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`

	gemini.Config `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-recommender ranks job postings for a résumé using vector search, a skill graph and optional LLM scoring",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindings := map[string]string{
		"database-url":           "DATABASE_URL",
		"redis-url":              "REDIS_URL",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("fixtures", "", "serve data from a JSON corpus instead of PostgreSQL")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("fixtures", rootCmd.PersistentFlags().Lookup("fixtures"))
}

func initConfig() {
	// Real environment variables win over the dotenv file.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("loading %s: %v", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional: defaults plus environment are enough for fixture mode.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func newLogger() *zap.Logger {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return logger
}

func defaultConfig() Config {
	return Config{
		MetricsAddr: ":9090",
		Recommend:   recommend.DefaultConfig(),
		Cache:       CacheConfig{Enabled: true, TTL: 10 * time.Minute},
		Worker:      worker.DefaultConfig(),
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	config := defaultConfig()
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks struct tags and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Fixtures == "" && c.DatabaseURL == "" {
		return errors.New("either database-url (DATABASE_URL) or fixtures must be set")
	}
	if c.AI != nil && c.AI.Enabled && c.AI.Gemini == nil {
		return errors.New("gemini configuration is required when ai is enabled")
	}
	return nil
}
