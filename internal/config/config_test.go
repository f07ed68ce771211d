package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "BENEFICIARY_COOLING_MINUTES")
	unsetEnvWithCleanup(t, "MAX_OTP_ATTEMPTS")
	unsetEnvWithCleanup(t, "TRANSFER_RATE_LIMIT_PER_MINUTE")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BeneficiaryCoolingMinutes != 60 {
		t.Fatalf("expected default cooling window of 60 minutes, got %d", cfg.BeneficiaryCoolingMinutes)
	}
	if cfg.MaxOTPAttempts != 3 {
		t.Fatalf("expected default max OTP attempts of 3, got %d", cfg.MaxOTPAttempts)
	}
	if cfg.TransferRateLimitPerMinute != 30 {
		t.Fatalf("expected default transfer rate limit of 30, got %d", cfg.TransferRateLimitPerMinute)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "BENEFICIARY_COOLING_MINUTES", "120")
	setEnvWithCleanup(t, "JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BeneficiaryCoolingMinutes != 120 {
		t.Fatalf("expected cooling window of 120 minutes, got %d", cfg.BeneficiaryCoolingMinutes)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Fatalf("expected JWT secret from environment, got %q", cfg.JWTSecret)
	}
}

func TestLoadConfig_NegativeCoolingWindowFallsBackToDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "BENEFICIARY_COOLING_MINUTES", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BeneficiaryCoolingMinutes != 60 {
		t.Fatalf("expected negative cooling window to fall back to 60, got %d", cfg.BeneficiaryCoolingMinutes)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
		}
	})
}
