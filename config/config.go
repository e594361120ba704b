// Package config, sunucunun tüm ayarlarını environment variable'lardan okur.
// Geliştirmede .env dosyası da desteklenir.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Desteklenen mesaj deposu sürücüleri.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Desteklenen upload backend'leri.
const (
	UploadBackendLocal = "local"
	UploadBackendS3    = "s3"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // boşsa tüm origin'ler kabul edilir
}

// DatabaseConfig, mesaj deposu seçimi ve bağlantı bilgileri.
type DatabaseConfig struct {
	Driver        string // sqlite | mongo
	Path          string // SQLite dosya yolu
	MongoURI      string
	MongoDatabase string
}

// JWTConfig, token doğrulama ayarları. Token'lar bu sunucu tarafından
// üretilmez; yalnızca imza doğrulanır.
type JWTConfig struct {
	Secret string
}

// UploadConfig, medya yükleme ayarları.
type UploadConfig struct {
	Dir        string
	MaxSize    int64 // byte
	Backend    string
	PublicURL  string
	S3Bucket   string
	S3Region   string
	S3Endpoint string // MinIO vb. için; boşsa AWS
}

// RedisConfig, presence deposu. Addr boşsa bellek içi depo kullanılır.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig, sohbet olay akışı. Brokers boşsa olaylar yayınlanmaz.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LogConfig, zap logger ayarları.
type LogConfig struct {
	Level       string
	Development bool
}

// Load, environment variable'lardan Config oluşturur.
func Load() (*Config, error) {
	// .env yoksa sessizce devam edilir; production'da gerçek env kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "5242880"), 10, 64) // 5MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	development, err := strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_DEVELOPMENT: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
			Path:          getEnv("DATABASE_PATH", "./data/agrispine.db"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "agrispine"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Upload: UploadConfig{
			Dir:        getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize:    maxSize,
			Backend:    strings.ToLower(getEnv("UPLOAD_BACKEND", UploadBackendLocal)),
			PublicURL:  getEnv("UPLOAD_PUBLIC_URL", ""),
			S3Bucket:   getEnv("S3_BUCKET", ""),
			S3Region:   getEnv("S3_REGION", "eu-central-1"),
			S3Endpoint: getEnv("S3_ENDPOINT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "agrispine.chat"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: development,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q (want %s or %s)", c.Database.Driver, DriverSQLite, DriverMongo)
	}

	switch c.Upload.Backend {
	case UploadBackendLocal:
	case UploadBackendS3:
		if c.Upload.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q (want %s or %s)", c.Upload.Backend, UploadBackendLocal, UploadBackendS3)
	}

	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}
	return nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// splitList, virgülle ayrılmış bir listeyi boş elemanları atarak böler.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
