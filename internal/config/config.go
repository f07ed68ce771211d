/**
 * @description
 * Configuration management for the transfer-service. Viper reads settings from
 * environment variables (with an optional .env file) and binds them to a
 * single Config struct with sane defaults.
 *
 * @dependencies
 * - github.com/spf13/viper: Application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the transfer-service.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	JWTSecret                  string `mapstructure:"JWT_SECRET"`
	BeneficiaryCoolingMinutes  int    `mapstructure:"BENEFICIARY_COOLING_MINUTES"`
	MaxOTPAttempts             int    `mapstructure:"MAX_OTP_ATTEMPTS"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "pulsebank:rate_limit")
	viper.SetDefault("BENEFICIARY_COOLING_MINUTES", 60)
	viper.SetDefault("MAX_OTP_ATTEMPTS", 3)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 30)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("BENEFICIARY_COOLING_MINUTES")
	_ = viper.BindEnv("MAX_OTP_ATTEMPTS")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")

	if err = viper.ReadInConfig(); err != nil {
		// A missing .env file is fine; environment values still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "pulsebank:rate_limit"
	}

	if config.BeneficiaryCoolingMinutes < 0 {
		log.Printf("level=warn component=config msg=\"negative cooling window configured; using default\" minutes=%d", config.BeneficiaryCoolingMinutes)
		config.BeneficiaryCoolingMinutes = 60
	}
	if config.MaxOTPAttempts <= 0 {
		config.MaxOTPAttempts = 3
	}
	if config.TransferRateLimitPerMinute < 0 {
		config.TransferRateLimitPerMinute = 0
	}

	return
}
