package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	GenModel     string
	NERTimeout   time.Duration
	EmbedWorkers int
	SkillsFile   string
	StaticDir    string
	Port         string
	JWTSecret    string
	MaxUploadMB  int
	LogJSON      bool
	LogDebug     bool
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		NERTimeout:   time.Duration(getEnvInt("NER_TIMEOUT_SECONDS", 10)) * time.Second,
		EmbedWorkers: getEnvInt("EMBED_WORKERS", 2),
		SkillsFile:   getEnv("SKILLS_FILE", ""),
		StaticDir:    getEnv("STATIC_DIR", "./web"),
		Port:         getEnv("PORT", "5000"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 16),
		LogJSON:      getEnvBool("LOG_JSON", false),
		LogDebug:     getEnvBool("LOG_DEBUG", false),
	}

	if cfg.DatabaseURL == "" {
		log.Println("WARN: DATABASE_URL not set, parsed résumés will not be stored")
	}

	return cfg
}

// StorageEnabled reports whether raw uploads should be archived to S3.
func (c *Config) StorageEnabled() bool {
	return c.BucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
