/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the credit-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	ScoreHistoryCachePrefix  string `mapstructure:"SCORE_HISTORY_CACHE_PREFIX"`
	ScoreHistoryCacheTTLSecs int    `mapstructure:"SCORE_HISTORY_CACHE_TTL_SECONDS"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	CreditEventExchange      string `mapstructure:"CREDIT_EVENT_EXCHANGE"`
	MLAPIBaseURL             string `mapstructure:"ML_API_BASE_URL"`
	DecisionExpiryDays       int    `mapstructure:"DECISION_EXPIRY_DAYS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("SCORE_HISTORY_CACHE_PREFIX", "credit:score_history")
	viper.SetDefault("SCORE_HISTORY_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("CREDIT_EVENT_EXCHANGE", "credit_events")
	viper.SetDefault("ML_API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("DECISION_EXPIRY_DAYS", 30)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("SCORE_HISTORY_CACHE_PREFIX")
	_ = viper.BindEnv("SCORE_HISTORY_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CREDIT_EVENT_EXCHANGE")
	_ = viper.BindEnv("ML_API_BASE_URL")
	_ = viper.BindEnv("DECISION_EXPIRY_DAYS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.MLAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.MLAPIBaseURL), "/")
	if config.MLAPIBaseURL == "" {
		config.MLAPIBaseURL = "http://localhost:8000"
	}
	if config.DecisionExpiryDays <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive decision expiry; using default\" days=%d", config.DecisionExpiryDays)
		config.DecisionExpiryDays = 30
	}
	if config.ScoreHistoryCacheTTLSecs <= 0 {
		config.ScoreHistoryCacheTTLSecs = 60
	}

	return
}
