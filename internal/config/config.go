package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const EnvProduction = "production"

type Config struct {
	HTTPAddr             string
	Env                  string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string
	JWTTTL    time.Duration

	CoinGeckoBaseURL   string
	CryptoPanicBaseURL string
	CryptoPanicAPIKey  string
	HFToken            string
	HFModel            string
	HFRouterBaseURL    string
	RedditBaseURL      string
	MemeCacheTTL       time.Duration

	// RedisURL enables the shared meme pool when set.
	RedisURL string

	LogLevel string
	LogFile  string
}

// Load reads .env (if present) and the environment. Missing DATABASE_URL or
// JWT_SECRET are not fatal here: the server still serves /health and reports
// the missing piece on the routes that need it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		Env:                  strings.ToLower(getenv("APP_ENV", "development")),
		DatabaseURL:          getenv("DATABASE_URL", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",

		JWTSecret: getenv("JWT_SECRET", ""),
		JWTTTL:    getduration("JWT_TTL", 24*time.Hour),

		CoinGeckoBaseURL:   getenv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CryptoPanicBaseURL: getenv("CRYPTOPANIC_BASE_URL", "https://cryptopanic.com/api/developer/v2/posts/"),
		CryptoPanicAPIKey:  getenv("CRYPTOPANIC_API_KEY", ""),
		HFToken:            getenv("HF_TOKEN", ""),
		HFModel:            getenv("HF_MODEL", "openai/gpt-oss-120b:fastest"),
		HFRouterBaseURL:    getenv("HF_ROUTER_BASE_URL", "https://router.huggingface.co/v1"),
		RedditBaseURL:      getenv("REDDIT_BASE_URL", "https://www.reddit.com"),
		MemeCacheTTL:       getduration("MEME_CACHE_TTL", 10*time.Minute),

		RedisURL: getenv("REDIS_URL", ""),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogFile:  getenv("LOG_FILE", ""),
	}

	cfg.CORSAllowedOrigins = splitList(getenv("CORS_ALLOWED_ORIGINS", ""))
	return cfg, nil
}

func (c Config) Production() bool { return c.Env == EnvProduction }

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
