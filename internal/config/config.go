package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/snappy-loop/genimage/internal/imagen"
)

// DefaultCredentialsName is the service account file looked up next to the executable.
const DefaultCredentialsName = "credentials.json"

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr string
	LogLevel string

	// Vertex AI / Imagen
	GCPProject       string
	GCPRegion        string
	ImagenModel      string
	ImageAspectRatio string
	ImageLanguage    string
	ImageCount       int
	VertexEndpoint   string // if set, overrides the default Vertex AI base URL
	CredentialsFile  string // service account JSON; defaults to DefaultCredentialsName next to the executable

	// Result envelope output
	OutputDir    string
	RequestID    string // CLI only; empty means the process id
	FailExitCode bool   // CLI only; exit 1 when the envelope is a failure

	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers        []string
	KafkaTopicCreations string

	// S3/Storage
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicURL     string
	SignedURLExpiry time.Duration

	// Auth
	APIKeyHash string // bcrypt hash; empty disables API key auth
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GCPProject:       getEnv("GCP_PROJECT_ID", "etm-cloud"),
		GCPRegion:        getEnv("GCP_REGION", "asia-south1"),
		ImagenModel:      getEnv("IMAGEN_MODEL", "imagen-3.0-generate-002"),
		ImageAspectRatio: getEnv("IMAGE_ASPECT_RATIO", "1:1"),
		ImageLanguage:    getEnv("IMAGE_LANGUAGE", "en"),
		ImageCount:       clampMin(getEnvInt("IMAGE_COUNT", 1), 1),
		VertexEndpoint:   getEnv("VERTEX_API_ENDPOINT", ""),
		CredentialsFile:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", credentialsNextToExecutable()),

		OutputDir:    getEnv("OUTPUT_DIR", os.TempDir()),
		RequestID:    getEnv("REQUEST_ID", ""),
		FailExitCode: getEnvBool("FAIL_EXIT_CODE", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		KafkaBrokers:        getEnvList("KAFKA_BROKERS"),
		KafkaTopicCreations: getEnv("KAFKA_TOPIC_CREATIONS", "genimage.creations.v1"),

		S3Endpoint:      getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET", "genimage-assets"),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:     getEnv("S3_PUBLIC_URL", ""),
		SignedURLExpiry: getEnvDuration("SIGNED_URL_EXPIRY", 24*time.Hour),

		APIKeyHash: getEnv("API_KEY_HASH", ""),
	}
}

// ImagenOptions maps the Vertex AI settings onto the Imagen client options.
func (c *Config) ImagenOptions() imagen.Options {
	return imagen.Options{
		Project:         c.GCPProject,
		Region:          c.GCPRegion,
		Model:           c.ImagenModel,
		AspectRatio:     c.ImageAspectRatio,
		Language:        c.ImageLanguage,
		ImageCount:      c.ImageCount,
		CredentialsFile: c.CredentialsFile,
		Endpoint:        c.VertexEndpoint,
	}
}

// credentialsNextToExecutable falls back to the working directory when the executable
// path cannot be resolved.
func credentialsNextToExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultCredentialsName
	}
	return filepath.Join(filepath.Dir(exe), DefaultCredentialsName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries. Unset yields nil.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// clampMin returns v if v >= min, otherwise min. Used to ensure config values are in valid range.
func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
