package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected shutdown timeout: %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Name != "Pizzaria do Léo" {
		t.Errorf("unexpected default store name: %s", cfg.Store.Name)
	}
	if cfg.Store.DiscountWeekday != time.Monday {
		t.Errorf("expected default discount weekday Monday, got %s", cfg.Store.DiscountWeekday)
	}
	if cfg.Store.DeliveryFee != 200 {
		t.Errorf("unexpected default delivery fee: %d", cfg.Store.DeliveryFee)
	}
	if cfg.Catalog.MenuFile != "" {
		t.Errorf("expected empty menu file (embedded menu), got %s", cfg.Catalog.MenuFile)
	}
	if cfg.RateLimits.DefaultPerMinute != 120 {
		t.Errorf("unexpected default rate limit: %d", cfg.RateLimits.DefaultPerMinute)
	}
	if cfg.RateLimits.CheckoutPerMinute != 10 {
		t.Errorf("unexpected checkout rate limit: %d", cfg.RateLimits.CheckoutPerMinute)
	}
	if cfg.Environment != "local" {
		t.Errorf("expected default environment local, got %s", cfg.Environment)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                "9090",
		"API_SERVER_READ_TIMEOUT":        "20s",
		"API_SERVER_WRITE_TIMEOUT":       "25s",
		"API_SERVER_IDLE_TIMEOUT":        "2m",
		"API_SERVER_SHUTDOWN_TIMEOUT":    "30s",
		"API_STORE_NAME":                 "Pizzaria Central",
		"API_STORE_WHATSAPP":             "5511988887777",
		"API_STORE_DISCOUNT_WEEKDAY":     "3",
		"API_STORE_DELIVERY_FEE":         "500",
		"API_CATALOG_MENU_FILE":          "/etc/pizzaria/menu.json",
		"API_RATELIMIT_DEFAULT_PER_MIN":  "150",
		"API_RATELIMIT_CHECKOUT_PER_MIN": "5",
		"API_ENVIRONMENT":                "PROD",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("unexpected shutdown timeout: %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Name != "Pizzaria Central" {
		t.Errorf("unexpected store name: %s", cfg.Store.Name)
	}
	if cfg.Store.WhatsApp != "5511988887777" {
		t.Errorf("unexpected whatsapp number: %s", cfg.Store.WhatsApp)
	}
	if cfg.Store.DiscountWeekday != time.Wednesday {
		t.Errorf("expected Wednesday discount weekday, got %s", cfg.Store.DiscountWeekday)
	}
	if cfg.Store.DeliveryFee != 500 {
		t.Errorf("unexpected delivery fee: %d", cfg.Store.DeliveryFee)
	}
	if cfg.Catalog.MenuFile != "/etc/pizzaria/menu.json" {
		t.Errorf("unexpected menu file: %s", cfg.Catalog.MenuFile)
	}
	if cfg.RateLimits.DefaultPerMinute != 150 {
		t.Errorf("unexpected default rate limit: %d", cfg.RateLimits.DefaultPerMinute)
	}
	if cfg.RateLimits.CheckoutPerMinute != 5 {
		t.Errorf("unexpected checkout rate limit: %d", cfg.RateLimits.CheckoutPerMinute)
	}
	if cfg.Environment != "prod" {
		t.Errorf("expected lowercased environment, got %s", cfg.Environment)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_STORE_WHATSAPP=5511900001111\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Store.WhatsApp != "5511900001111" {
		t.Errorf("expected whatsapp from dotenv, got %s", cfg.Store.WhatsApp)
	}
}

func TestLoadEnvMapPrecedesDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"API_SERVER_PORT": "6060"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "6060" {
		t.Errorf("expected explicit env map to win, got %s", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	env := map[string]string{
		"API_STORE_DISCOUNT_WEEKDAY":     "9",
		"API_RATELIMIT_DEFAULT_PER_MIN":  "0",
		"API_RATELIMIT_CHECKOUT_PER_MIN": "-1",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validationErr.Fields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 invalid fields, got %v", fields)
	}
}
