package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "contenthub-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "contenthub-auth")
	}
	if cfg.JWTAudience != "contenthub-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "contenthub-api")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.RefreshTTLDays != 7 {
		t.Errorf("RefreshTTLDays = %d, want 7", cfg.RefreshTTLDays)
	}
	if cfg.ReuseGracePeriod != "1h" {
		t.Errorf("ReuseGracePeriod = %q, want %q", cfg.ReuseGracePeriod, "1h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("REFRESH_TTL_DAYS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.RefreshTTLDays != 30 {
		t.Errorf("RefreshTTLDays = %d, want 30", cfg.RefreshTTLDays)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load without JWT_SECRET should fail")
	}
}

func TestLoad_ProductionRequiresSecureCookie(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load with APP_ENV=production and COOKIE_SECURE=false should fail")
	}

	os.Setenv("COOKIE_SECURE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("BCRYPT_COST", "50")

	if _, err := Load(); err == nil {
		t.Fatal("Load with BCRYPT_COST=50 should fail")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", RefreshTTLDays: 14, ReuseGracePeriod: "2h"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	if got := cfg.RefreshTTL(); got != 14*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 336h", got)
	}
	if got := cfg.GracePeriod(); got != 2*time.Hour {
		t.Errorf("GracePeriod = %v, want 2h", got)
	}

	// Invalid values fall back to defaults.
	cfg = &Config{}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 7*24*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
	if got := cfg.GracePeriod(); got != time.Hour {
		t.Errorf("GracePeriod fallback = %v, want 1h", got)
	}
}
