// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Model     ModelConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Nutrition NutritionConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	LogLevel       string
}

// StoreConfig locates the per-user inventory workbooks.
type StoreConfig struct {
	DataDir                string
	DefaultWeeklyCustomers int
}

// ModelConfig tunes the regression forest trained per plan request.
type ModelConfig struct {
	Trees           int
	Seed            int64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Workers         int
	BatchWorkers    int
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	PlanTTLSeconds int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type NutritionConfig struct {
	AppID   string
	AppKey  string
	BaseURL string
}

// Configured reports whether nutrition lookups can be made.
func (n NutritionConfig) Configured() bool {
	return n.AppID != "" && n.AppKey != ""
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = build(viper.New())
		ensureDir(instance.Store.DataDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORE_DATA_DIR", "./data")
	v.SetDefault("STORE_DEFAULT_WEEKLY_CUSTOMERS", 100)

	v.SetDefault("MODEL_TREES", 100)
	v.SetDefault("MODEL_SEED", 42)
	v.SetDefault("MODEL_MAX_DEPTH", 0)
	v.SetDefault("MODEL_MIN_SAMPLES_SPLIT", 2)
	v.SetDefault("MODEL_MIN_SAMPLES_LEAF", 1)
	v.SetDefault("MODEL_WORKERS", 0)
	v.SetDefault("MODEL_BATCH_WORKERS", 4)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_PLAN_TTL_SECONDS", 300)

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "foodbank")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "distribution-plans")
	v.SetDefault("STORAGE_USE_SSL", false)

	v.SetDefault("NUTRITIONIX_APP_ID", "")
	v.SetDefault("NUTRITIONIX_APP_KEY", "")
	v.SetDefault("NUTRITIONIX_BASE_URL", "https://trackapi.nutritionix.com")
}

func build(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			LogLevel:       v.GetString("LOG_LEVEL"),
		},
		Store: StoreConfig{
			DataDir:                v.GetString("STORE_DATA_DIR"),
			DefaultWeeklyCustomers: v.GetInt("STORE_DEFAULT_WEEKLY_CUSTOMERS"),
		},
		Model: ModelConfig{
			Trees:           v.GetInt("MODEL_TREES"),
			Seed:            v.GetInt64("MODEL_SEED"),
			MaxDepth:        v.GetInt("MODEL_MAX_DEPTH"),
			MinSamplesSplit: v.GetInt("MODEL_MIN_SAMPLES_SPLIT"),
			MinSamplesLeaf:  v.GetInt("MODEL_MIN_SAMPLES_LEAF"),
			Workers:         v.GetInt("MODEL_WORKERS"),
			BatchWorkers:    v.GetInt("MODEL_BATCH_WORKERS"),
		},
		Cache: CacheConfig{
			Enabled:        v.GetBool("CACHE_ENABLED"),
			RedisURL:       v.GetString("REDIS_URL"),
			RedisHost:      v.GetString("REDIS_HOST"),
			RedisPort:      v.GetString("REDIS_PORT"),
			RedisPassword:  v.GetString("REDIS_PASSWORD"),
			RedisDB:        v.GetInt("REDIS_DB"),
			PlanTTLSeconds: v.GetInt("CACHE_PLAN_TTL_SECONDS"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt("DB_MAX_CONNS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Nutrition: NutritionConfig{
			AppID:   v.GetString("NUTRITIONIX_APP_ID"),
			AppKey:  v.GetString("NUTRITIONIX_APP_KEY"),
			BaseURL: v.GetString("NUTRITIONIX_BASE_URL"),
		},
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
