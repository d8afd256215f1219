package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GraphQLEndpoint string
	GraphQLTimeout  time.Duration
	HTTPPort        string
	LogLevel        string

	// Cache. RedisAddr vacío => caché en memoria.
	RedisAddr   string
	CachePrefix string

	ListTTL            time.Duration
	DetailTTL          time.Duration
	RecommendationsTTL time.Duration

	UseKafka     bool
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

// LoadConfig lee la configuración del entorno. Los ficheros .env (si existen)
// se cargan primero y nunca pisan variables ya definidas.
func LoadConfig() *Config {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}

	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	getDuration := func(key string, fallback time.Duration) time.Duration {
		if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
			return d
		}
		return fallback
	}

	useKafka, _ := strconv.ParseBool(getEnv("USE_KAFKA", "false"))

	return &Config{
		GraphQLEndpoint:    getEnv("GRAPHQL_ENDPOINT", "http://localhost:8080/query"),
		GraphQLTimeout:     getDuration("GRAPHQL_TIMEOUT", 10*time.Second),
		HTTPPort:           getEnv("HTTP_PORT", "8090"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		CachePrefix:        getEnv("CACHE_PREFIX", "stockratings"),
		ListTTL:            getDuration("CACHE_TTL_LIST", time.Minute),
		DetailTTL:          getDuration("CACHE_TTL_DETAIL", time.Minute),
		RecommendationsTTL: getDuration("CACHE_TTL_RECOMMENDATIONS", 5*time.Minute),
		UseKafka:           useKafka,
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "stock-events"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "stockratings-client"),
	}
}
