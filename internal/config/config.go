package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Token TTLs differ per purpose: access
// tokens are short-lived, password-reset tokens shorter still, and
// email-verification tokens last a day.
type Config struct {
	Env       string // application environment (dev, prod)
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to sign JWTs

	AccessTTLMin   int // access token time-to-live in minutes
	ResetTTLMin    int // password-reset token time-to-live in minutes
	VerifyTTLHours int // email-verification token time-to-live in hours
	RefreshTTLDays int // refresh token time-to-live in days
	OTPTTLMin      int // verification code time-to-live in minutes
	BcryptCost     int // bcrypt cost for password hashing

	LockoutMaxAttempts int // failed logins before the account locks
	LockoutMinutes     int // lockout window duration in minutes

	FrontendResetURL  string // base URL for password-reset links in emails
	FrontendVerifyURL string // base URL for email-verification links in emails
}

// Load reads configuration from environment variables. Required
// variables are enforced by must() and abort startup when missing;
// tunables fall back to the documented defaults.
func Load() Config {
	return Config{
		Env:       envStr("APP_ENV", "development"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 30),
		ResetTTLMin:    envInt("PASSWORD_RESET_TTL_MIN", 15),
		VerifyTTLHours: envInt("EMAIL_VERIFICATION_TTL_HOURS", 24),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		OTPTTLMin:      envInt("OTP_TTL_MIN", 10),
		BcryptCost:     envInt("BCRYPT_COST", 12),

		LockoutMaxAttempts: envInt("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutMinutes:     envInt("LOCKOUT_MINUTES", 15),

		FrontendResetURL:  envStr("FRONTEND_RESET_URL", "https://app.onform.fit/reset-password"),
		FrontendVerifyURL: envStr("FRONTEND_VERIFICATION_URL", "https://app.onform.fit/verify-email"),
	}
}

// IsDevelopment reports whether the app runs in a development
// environment; a few endpoints echo tokens back for testing there.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

// must retrieves a required environment variable. If the variable is
// unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
