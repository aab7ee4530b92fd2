package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                  = "8080"
	DefaultConfirmTokenExpiryMin = 60
	DefaultResetTokenExpiryMin   = 1440
	DefaultAccessTokenExpiryMin  = 60
	DefaultRefreshTokenExpiryMin = 1440
	DefaultBcryptCost            = 10
	DefaultLoginMaxAttempts      = 5
	DefaultLoginWindowMinutes    = 15
	DefaultMailPort              = 587
	DefaultConfirmEmailURL       = "http://localhost:8080/api/client/confirm-email"
	DefaultResetPasswordURL      = "http://localhost:8080/registration"
	DefaultCORSAllowedOrigins    = "http://localhost:3000"
	DefaultAdminEmail            = "admin@example.com"
	DefaultAdminPassword         = "adminpassword"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Env  string
	Port string

	DBURL string

	JWTSecret          string
	RefreshTokenSecret string

	ConfirmExpiryMin int
	ResetExpiryMin   int
	AccessExpiryMin  int
	RefreshExpiryMin int
	BcryptCost       int

	LoginMaxAttempts   int
	LoginWindowMinutes int

	ConfirmEmailURL    string
	ResetPasswordURL   string
	CORSAllowedOrigins string

	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string

	AdminEmail    string
	AdminPassword string
}

// Load resolves every key from the environment first, then from
// config/config.<env>.yaml, then from the built-in default.
func Load() *Config {
	env := getEnv("ENV", "development")
	src := source{file: readConfigFile(env)}

	cfg := &Config{
		Env:                env,
		Port:               src.get("PORT", DefaultPort),
		DBURL:              src.must("DB_URL"),
		JWTSecret:          src.must("JWT_SECRET"),
		RefreshTokenSecret: src.must("REFRESH_TOKEN_SECRET"),
		ConfirmExpiryMin:   src.getInt("CONFIRM_TOKEN_EXPIRY", DefaultConfirmTokenExpiryMin),
		ResetExpiryMin:     src.getInt("RESET_TOKEN_EXPIRY", DefaultResetTokenExpiryMin),
		AccessExpiryMin:    src.getInt("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		RefreshExpiryMin:   src.getInt("REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiryMin),
		BcryptCost:         src.getInt("BCRYPT_COST", DefaultBcryptCost),
		LoginMaxAttempts:   src.getInt("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LoginWindowMinutes: src.getInt("LOGIN_WINDOW_MINUTES", DefaultLoginWindowMinutes),
		ConfirmEmailURL:    src.get("CONFIRM_EMAIL_URL", DefaultConfirmEmailURL),
		ResetPasswordURL:   src.get("RESET_PASSWORD_URL", DefaultResetPasswordURL),
		CORSAllowedOrigins: src.get("CORS_ALLOWED_ORIGINS", DefaultCORSAllowedOrigins),
		MailHost:           src.get("MAIL_HOST", ""),
		MailPort:           src.getInt("MAIL_PORT", DefaultMailPort),
		MailUsername:       src.get("MAIL_USERNAME", ""),
		MailPassword:       src.get("MAIL_PASSWORD", ""),
		AdminEmail:         src.get("ADMIN_EMAIL", DefaultAdminEmail),
		AdminPassword:      src.get("ADMIN_PASSWORD", DefaultAdminPassword),
	}
	cfg.MailFrom = src.get("MAIL_FROM", cfg.MailUsername)

	// The refresh cookie needs credentialed CORS, which forbids a wildcard origin.
	if hasWildcardOrigin(cfg.CORSAllowedOrigins) {
		log.Fatalf("Invalid config CORS_ALLOWED_ORIGINS: wildcard origin is not allowed with credentials")
	}

	return cfg
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func hasWildcardOrigin(origins string) bool {
	for _, origin := range strings.Split(origins, ",") {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

func configFileName(env string) string {
	if env == "production" {
		return "config.prod.yaml"
	}
	return "config.dev.yaml"
}

// readConfigFile returns the flat key/value map of the env's config file,
// or nil when the file does not exist.
func readConfigFile(env string) map[string]string {
	path := filepath.Join("config", configFileName(env))
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Unable to read config file %s: %v", path, err)
		}
		return nil
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		log.Fatalf("Invalid config file %s: %v", path, err)
	}
	return values
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if value := strings.TrimSpace(s.file[key]); value != "" {
		return value, true
	}
	return "", false
}

func (s source) get(key, defaultVal string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultVal
}

func (s source) must(key string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func (s source) getInt(key string, defaultVal int) int {
	valStr, ok := s.lookup(key)
	if !ok {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
