package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	MongoURI           string
	MongoUser          string
	MongoPassword      string
	DBName             string
	RedisURLs          []string
	RedisPass          string
	KafkaBrokers       []string
	KafkaActivityTopic string
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	SessionTTL         time.Duration
	SessionCookieName  string
	MFAEnabled         bool
	ServerPort         string
	WebSocketPort      string
	PrometheusPort     string
	MeiliURL           string
	MeiliMasterKey     string
	Version            string
	CORSOrigin         string
	AdminUsername      string
	AdminPassword      string
	AdminAPIKey        string
}

func LoadConfig() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("no .env file, using environment variables directly")
	}

	return &Config{
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoUser:          getEnv("MONGO_USER", ""),
		MongoPassword:      getEnv("MONGO_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "iris"),
		RedisURLs:          splitList(getEnv("REDIS_URL", "localhost:6379")),
		RedisPass:          getEnv("REDIS_PASS", ""),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaActivityTopic: getEnv("KAFKA_ACTIVITY_TOPIC", "iris-activities"),
		JWTSecret:          getEnv("JWT_SECRET", "iris-dev-secret"),
		AccessTokenTTL:     time.Minute * time.Duration(getEnvInt("ACCESS_TOKEN_TTL", 15)),
		RefreshTokenTTL:    time.Hour * 24 * time.Duration(getEnvInt("REFRESH_TOKEN_TTL", 7)),
		SessionTTL:         time.Hour * time.Duration(getEnvInt("SESSION_TTL", 12)),
		SessionCookieName:  getEnv("SESSION_COOKIE_NAME", "iris_session"),
		MFAEnabled:         getEnvBool("MFA_ENABLED", false),
		ServerPort:         getEnv("SERVER_PORT", "8000"),
		WebSocketPort:      getEnv("WS_PORT", "8001"),
		PrometheusPort:     getEnv("PROMETHEUS_PORT", "9090"),
		MeiliURL:           getEnv("MEILI_URL", ""),
		MeiliMasterKey:     getEnv("MEILI_MASTER_KEY", ""),
		Version:            getEnv("IRIS_VERSION", "v2.4.0"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		AdminUsername:      getEnv("IRIS_ADM_USERNAME", "administrator"),
		AdminPassword:      getEnv("IRIS_ADM_PASSWORD", ""),
		AdminAPIKey:        getEnv("IRIS_ADM_API_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	parsed, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	parsed, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
