package config

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string
	AdminPassword      string
	TechnicianPassword string
	SecretKey          string
	Location           *time.Location

	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	BadgerPath     string
	LiveRelay      bool

	OperationStore  string
	CSVPath         string
	SQLitePath      string
	PostgresDSN     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	AllowedOrigins     []string
	CookieSecure       bool
	CookieSameSite     http.SameSite
	LoginRatePerMinute int
}

// DefaultSecretKey is public. It may sign report payloads in development but
// never session tokens.
const DefaultSecretKey = "reel-cinemas-secret-key-change-in-production"

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("TIMEZONE", "Asia/Kolkata")
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BADGER_PATH", "./data/sessions")
	v.SetDefault("OPERATION_STORE", "sqlite")
	v.SetDefault("CSV_PATH", "operations.csv")
	v.SetDefault("SQLITE_PATH", "operations.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "reelops")
	v.SetDefault("MONGO_COLLECTION", "operations")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "https://reel-technical-ops.netlify.app")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("COOKIE_SAMESITE", "None")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 0)
	v.SetDefault("LIVE_RELAY", false)
}

// Load reads .env if present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("session ttl: %w", err)
	}

	sameSite, err := parseSameSite(v.GetString("COOKIE_SAMESITE"))
	if err != nil {
		return nil, err
	}

	port := v.GetString("PORT")
	if port != "" && port[0] != ':' {
		port = ":" + port
	}

	cfg := &Config{
		Port:               port,
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		TechnicianPassword: v.GetString("TECHNICIAN_PASSWORD"),
		SecretKey:          v.GetString("SECRET_KEY"),
		Location:           loc,
		SessionBackend:     strings.ToLower(v.GetString("SESSION_BACKEND")),
		SessionTTL:         ttl,
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		BadgerPath:         v.GetString("BADGER_PATH"),
		LiveRelay:          v.GetBool("LIVE_RELAY"),
		OperationStore:     strings.ToLower(v.GetString("OPERATION_STORE")),
		CSVPath:            v.GetString("CSV_PATH"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		PostgresDSN:        v.GetString("POSTGRES_DSN"),
		MongoURI:           v.GetString("MONGO_URI"),
		MongoDatabase:      v.GetString("MONGO_DATABASE"),
		MongoCollection:    v.GetString("MONGO_COLLECTION"),
		AllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		CookieSameSite:     sameSite,
		LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
	}

	if cfg.SecretKey == "" || cfg.SecretKey == DefaultSecretKey {
		if cfg.SessionBackend == "jwt" || cfg.SessionBackend == "cookie" {
			return nil, fmt.Errorf("SESSION_BACKEND=%s requires a private SECRET_KEY", cfg.SessionBackend)
		}
		log.Println("⚠️ SECRET_KEY is unset or the default; report QR signatures can be forged")
	}
	if cfg.AdminPassword == "" || cfg.TechnicianPassword == "" {
		log.Println("⚠️ ADMIN_PASSWORD or TECHNICIAN_PASSWORD is empty; logins for that role will fail")
	}
	return cfg, nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "", "default":
		return http.SameSiteDefaultMode, nil
	}
	return 0, fmt.Errorf("unknown COOKIE_SAMESITE %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
