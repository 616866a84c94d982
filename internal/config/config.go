package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	// storage: memory | sqlite | mysql | redis
	StorageBackend string
	DBDSN          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	JWTSecret         string
	VisitorTokenTTL   time.Duration
	AdminPasswordHash string

	// widget behavior
	Responder      string
	ReplyDelay     time.Duration
	ProactiveIdle  time.Duration
	ProactiveHide  time.Duration
	SessionIdleTTL time.Duration
	SubmitRate     float64
	SubmitBurst    int

	// rabbitMQ, disabled when RabbitURL is empty
	RabbitURL   string
	RabbitQueue string

	// transcript worker
	TranscriptDir     string
	WorkerConcurrency int
}

func Load() Config {
	backend := strings.ToLower(os.Getenv("STORAGE_BACKEND"))
	if backend == "" {
		backend = "sqlite"
	}

	// DSN demo:
	// sqlite: data/chat.db
	// mysql:  app:apppass@tcp(127.0.0.1:3306)/portfolio_chat?charset=utf8mb4&parseTime=true&loc=UTC
	dsn := os.Getenv("DB_DSN")
	if dsn == "" && backend == "sqlite" {
		dsn = "data/chat.db"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "chat_events"
	}

	transcriptDir := os.Getenv("TRANSCRIPT_DIR")
	if transcriptDir == "" {
		transcriptDir = "data/transcripts"
	}

	concurrency := intEnv("WORKER_CONCURRENCY", 2)
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}

	return Config{
		HTTPAddr: addr,

		StorageBackend: backend,
		DBDSN:          dsn,
		RedisAddr:      redisAddr,
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        intEnv("REDIS_DB", 0),

		JWTSecret:         secret,
		VisitorTokenTTL:   durationEnv("VISITOR_TOKEN_TTL", 30*24*time.Hour),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		Responder:      os.Getenv("RESPONDER"),
		ReplyDelay:     durationEnv("REPLY_DELAY", time.Second),
		ProactiveIdle:  durationEnv("PROACTIVE_IDLE", 30*time.Second),
		ProactiveHide:  durationEnv("PROACTIVE_HIDE", 5*time.Second),
		SessionIdleTTL: durationEnv("SESSION_IDLE_TTL", 30*time.Minute),
		SubmitRate:     floatEnv("SUBMIT_RATE", 1),
		SubmitBurst:    intEnv("SUBMIT_BURST", 5),

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,

		TranscriptDir:     transcriptDir,
		WorkerConcurrency: concurrency,
	}
}

// unparseable values fall back to the default, same as an unset key
func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return def
}
