// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Planning PlanningConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Queue    QueueConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type AppConfig struct {
	UploadDir         string
	DataDir           string
	Timezone          string
	StagingTTLMinutes int
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

// ForecastConfig holds the process-wide default parameter bundle and the
// horizons used by the replenishment dashboard.
type ForecastConfig struct {
	DaysToCover   int
	MAWindowDays  int
	MinAvgDaily   float64
	SafetyDays    float64
	LookbackDays  int
	ChartMaxDays  int
	ShortWindow   int
	LongWindow    int
	Span          int
	DefaultMethod string
}

type PlanningConfig struct {
	SafetyDays   int
	ShippingDays int
	BufferDays   int
	Alpha        float64
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

// Enabled reports whether enough settings exist to talk to object storage.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

type QueueConfig struct {
	Enabled     bool
	Concurrency int
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	JSON       bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure upload and data directories exist
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "replenish")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SQLITE_PATH", "./data/replenish.db")

	viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	viper.SetDefault("APP_DATA_DIR", "./data/output")
	viper.SetDefault("APP_TIMEZONE", "Europe/Rome")
	viper.SetDefault("STAGING_TTL_MINUTES", 30)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)

	viper.SetDefault("FORECAST_DAYS_TO_COVER", 14)
	viper.SetDefault("FORECAST_MA_WINDOW_DAYS", 7)
	viper.SetDefault("FORECAST_MIN_AVG_DAILY", 1.0)
	viper.SetDefault("FORECAST_SAFETY_DAYS", 0.0)
	viper.SetDefault("MAX_LOOKBACK_DAYS", 90)
	viper.SetDefault("FORECAST_CHART_MAX_DAYS", 30)
	viper.SetDefault("FORECAST_SHORT_WINDOW", 7)
	viper.SetDefault("FORECAST_LONG_WINDOW", 30)
	viper.SetDefault("FORECAST_SPAN", 14)
	viper.SetDefault("FORECAST_METHOD", "sma")

	viper.SetDefault("PLANNING_SAFETY_DAYS", 14)
	viper.SetDefault("PLANNING_SHIPPING_DAYS", 14)
	viper.SetDefault("PLANNING_BUFFER_DAYS", 28)
	viper.SetDefault("PLANNING_ALPHA", 0.2)

	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_PREFIX", "replenish")

	viper.SetDefault("QUEUE_ENABLED", false)
	viper.SetDefault("QUEUE_CONCURRENCY", 4)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_MAX_SIZE_MB", 100)
	viper.SetDefault("LOG_MAX_BACKUPS", 7)
	viper.SetDefault("LOG_MAX_AGE_DAYS", 30)
}

func fromViper() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASSWORD"),
			DBName:     viper.GetString("DB_NAME"),
			SSLMode:    viper.GetString("DB_SSLMODE"),
			SQLitePath: viper.GetString("DB_SQLITE_PATH"),
		},
		App: AppConfig{
			UploadDir:         viper.GetString("APP_UPLOAD_DIR"),
			DataDir:           viper.GetString("APP_DATA_DIR"),
			Timezone:          viper.GetString("APP_TIMEZONE"),
			StagingTTLMinutes: viper.GetInt("STAGING_TTL_MINUTES"),
		},
		Cache: CacheConfig{
			Enabled:             viper.GetBool("CACHE_ENABLED"),
			RedisURL:            viper.GetString("REDIS_URL"),
			RedisHost:           viper.GetString("REDIS_HOST"),
			RedisPort:           viper.GetString("REDIS_PORT"),
			RedisPassword:       viper.GetString("REDIS_PASSWORD"),
			RedisDB:             viper.GetInt("REDIS_DB"),
			DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			DaysToCover:   viper.GetInt("FORECAST_DAYS_TO_COVER"),
			MAWindowDays:  viper.GetInt("FORECAST_MA_WINDOW_DAYS"),
			MinAvgDaily:   viper.GetFloat64("FORECAST_MIN_AVG_DAILY"),
			SafetyDays:    viper.GetFloat64("FORECAST_SAFETY_DAYS"),
			LookbackDays:  viper.GetInt("MAX_LOOKBACK_DAYS"),
			ChartMaxDays:  viper.GetInt("FORECAST_CHART_MAX_DAYS"),
			ShortWindow:   viper.GetInt("FORECAST_SHORT_WINDOW"),
			LongWindow:    viper.GetInt("FORECAST_LONG_WINDOW"),
			Span:          viper.GetInt("FORECAST_SPAN"),
			DefaultMethod: viper.GetString("FORECAST_METHOD"),
		},
		Planning: PlanningConfig{
			SafetyDays:   viper.GetInt("PLANNING_SAFETY_DAYS"),
			ShippingDays: viper.GetInt("PLANNING_SHIPPING_DAYS"),
			BufferDays:   viper.GetInt("PLANNING_BUFFER_DAYS"),
			Alpha:        viper.GetFloat64("PLANNING_ALPHA"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		},
		Queue: QueueConfig{
			Enabled:     viper.GetBool("QUEUE_ENABLED"),
			Concurrency: viper.GetInt("QUEUE_CONCURRENCY"),
		},
		Log: LogConfig{
			Level:      viper.GetString("LOG_LEVEL"),
			File:       viper.GetString("LOG_FILE"),
			MaxSizeMB:  viper.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: viper.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: viper.GetInt("LOG_MAX_AGE_DAYS"),
			JSON:       viper.GetBool("LOG_JSON"),
		},
	}
}

// Location resolves the configured business timezone. "Today" for every
// forecast is computed in this zone.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Printf("warning: unknown timezone %q, falling back to UTC", a.Timezone)
		return time.UTC
	}
	return loc
}

// StagingTTL is how long an uploaded preview stays confirmable.
func (a AppConfig) StagingTTL() time.Duration {
	if a.StagingTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.StagingTTLMinutes) * time.Minute
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
