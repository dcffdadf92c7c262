package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	DBDSN           string
	RedisURL        string
	SessionTTL      time.Duration
	TokenTTL        time.Duration
	DraftTTL        time.Duration
	ResendAPIKey    string
	MailFrom        string
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	SecureCookies   bool
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	sessionTTL, err := parseDurationEnv("SESSION_TTL", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = sessionTTL

	tokenTTL, err := parseDurationEnv("TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.TokenTTL = tokenTTL

	draftTTL, err := parseDurationEnv("DRAFT_TTL", 36*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.DraftTTL = draftTTL

	// Sem RESEND_API_KEY o código de acesso é devolvido na própria resposta (modo dev).
	cfg.ResendAPIKey = strings.TrimSpace(getEnv("RESEND_API_KEY", ""))
	cfg.MailFrom = strings.TrimSpace(getEnv("MAIL_FROM", "DPI SUL <noreply@dpisul.ce.gov.br>"))

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 5, Burst: 10}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.SecureCookies = true
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			cfg.SecureCookies = false
			break
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
