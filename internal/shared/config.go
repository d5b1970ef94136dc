package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	JWTTTL      time.Duration
	UploadDir   string
	MaxUploadMB int64
	CacheTTL    time.Duration
	SeedWorkers int
	LoginRPS    int
	LoginBurst  int
}

func Load() Config {
	// optional; real deployments set the environment directly
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/howsitter?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		JWTSecret:   env("JWT_SECRET", ""),
		JWTTTL:      time.Duration(atoi("JWT_TTL_HOURS", 168)) * time.Hour,
		UploadDir:   env("UPLOAD_DIR", "uploads/properties"),
		MaxUploadMB: int64(atoi("MAX_UPLOAD_MB", 10)),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SeedWorkers: atoi("SEED_WORKERS", 8),
		LoginRPS:    atoi("LOGIN_RPS", 5),
		LoginBurst:  atoi("LOGIN_BURST", 10),
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; using an insecure development default")
		c.JWTSecret = "dev-secret-do-not-use"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
